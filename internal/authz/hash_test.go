package authz

import (
	"encoding/json"
	"testing"
)

func TestCanonicalHash_KeyOrderIndependent(t *testing.T) {
	a := json.RawMessage(`{"b":2,"a":1,"c":{"y":2,"x":1}}`)
	b := json.RawMessage(`{"a":1,"c":{"x":1,"y":2},"b":2}`)

	hashA, err := CanonicalHash(a)
	if err != nil {
		t.Fatalf("CanonicalHash(a) error = %v", err)
	}
	hashB, err := CanonicalHash(b)
	if err != nil {
		t.Fatalf("CanonicalHash(b) error = %v", err)
	}
	if hashA != hashB {
		t.Errorf("hashes differ for semantically equal inputs: %s != %s", hashA, hashB)
	}
}

func TestCanonicalHash_ArrayOrderSignificant(t *testing.T) {
	a := json.RawMessage(`{"items":[1,2,3]}`)
	b := json.RawMessage(`{"items":[3,2,1]}`)

	hashA, _ := CanonicalHash(a)
	hashB, _ := CanonicalHash(b)
	if hashA == hashB {
		t.Errorf("array reordering should change the hash")
	}
}

func TestCanonicalHash_DifferentValuesDifferentHash(t *testing.T) {
	a := json.RawMessage(`{"x":1}`)
	b := json.RawMessage(`{"x":2}`)
	hashA, _ := CanonicalHash(a)
	hashB, _ := CanonicalHash(b)
	if hashA == hashB {
		t.Errorf("different values should not hash equal")
	}
}

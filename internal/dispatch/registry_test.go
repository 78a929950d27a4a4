package dispatch

import (
	"encoding/json"
	"testing"
)

func TestValidateInput_RejectsNonObject(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
	}{
		{"array", json.RawMessage(`[1,2,3]`)},
		{"string", json.RawMessage(`"hello"`)},
		{"number", json.RawMessage(`42`)},
		{"empty", json.RawMessage(``)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateInput("tool", tt.input); err == nil {
				t.Errorf("validateInput(%s) error = nil, want non-nil", tt.input)
			}
		})
	}
}

func TestValidateInput_AcceptsObject(t *testing.T) {
	if err := validateInput("tool", json.RawMessage(`{"a":1}`)); err != nil {
		t.Errorf("validateInput() error = %v, want nil", err)
	}
	if err := validateInput("tool", json.RawMessage(`  {"a":1}  `)); err != nil {
		t.Errorf("validateInput() with leading whitespace error = %v, want nil", err)
	}
}

func TestValidateInput_RejectsOverlongName(t *testing.T) {
	long := make([]byte, MaxToolNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := validateInput(string(long), json.RawMessage(`{}`)); err == nil {
		t.Errorf("validateInput() error = nil, want non-nil for overlong name")
	}
}

func TestRegistry_RegisterGetUnregister(t *testing.T) {
	r := NewRegistry()
	tool := &fakeTool{name: "calc"}
	r.Register(tool)

	got, ok := r.Get("calc")
	if !ok || got.Name() != "calc" {
		t.Fatalf("Get() = %v, %v; want calc tool", got, ok)
	}

	defs := r.Definitions()
	if len(defs) != 1 || defs[0].Name != "calc" {
		t.Errorf("Definitions() = %+v, want one calc definition", defs)
	}

	r.Unregister("calc")
	if _, ok := r.Get("calc"); ok {
		t.Errorf("Get() found tool after Unregister()")
	}
}

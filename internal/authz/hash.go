// Package authz implements the authorization engine: it decides whether a
// proposed tool call may proceed, consulting the grant store for standing
// permissions and falling back to an AutoDeny or Interactive policy.
package authz

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// CanonicalHash returns the hex-encoded SHA-256 digest of the canonical
// form of raw: object keys sorted lexicographically at every depth, array
// order preserved, compact (no whitespace) encoding. Two semantically
// equal JSON documents with differently-ordered object keys hash equal.
func CanonicalHash(raw json.RawMessage) (string, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize decodes raw and re-encodes it with object keys sorted
// lexicographically at every depth, producing a deterministic byte
// sequence regardless of the input's original key order.
func Canonicalize(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(canonicalize(v))
}

func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(orderedMap, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, kv{key: k, value: canonicalize(val[k])})
		}
		return ordered
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalize(item)
		}
		return out
	default:
		return val
	}
}

// kv is one key/value pair in a canonically-ordered object.
type kv struct {
	key   string
	value any
}

// orderedMap marshals as a JSON object preserving insertion order, which
// canonicalize has already sorted lexicographically by key.
type orderedMap []kv

// MarshalJSON implements json.Marshaler.
func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, pair := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(pair.key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		valJSON, err := json.Marshal(pair.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}

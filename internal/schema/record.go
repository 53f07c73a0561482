package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FindingRecord is one party's normalized observations: an insertion-ordered
// mapping from field key to Value. Key order is semantic — reconciliation
// traverses it to fix a deterministic outcome order — so the record is not a
// plain map. Absent is never stored; absence is inferred by the engine when
// one record's key is missing from the other.
type FindingRecord struct {
	keys   []string
	values map[string]Value
}

// NewFindingRecord returns an empty record.
func NewFindingRecord() *FindingRecord {
	return &FindingRecord{values: make(map[string]Value)}
}

// Set stores v under key, preserving the key's original position when the
// key is already present. Storing Absent is rejected: absence is inferred,
// never recorded.
func (r *FindingRecord) Set(key string, v Value) error {
	if key == "" {
		return fmt.Errorf("schema: empty field key")
	}
	if v == nil {
		return fmt.Errorf("schema: nil value for field %q", key)
	}
	if _, isAbsent := v.(Absent); isAbsent {
		return fmt.Errorf("schema: field %q: Absent is inferred, not stored", key)
	}
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
	return nil
}

// Get returns the value for key. The second return is false when the key is
// not present; callers treat that as Absent.
func (r *FindingRecord) Get(key string) (Value, bool) {
	if r == nil || r.values == nil {
		return Absent{}, false
	}
	v, ok := r.values[key]
	if !ok {
		return Absent{}, false
	}
	return v, true
}

// Has reports whether key is present.
func (r *FindingRecord) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Keys returns the field keys in insertion order. The slice is a copy.
func (r *FindingRecord) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *FindingRecord) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// MarshalJSON encodes the record as a JSON object with keys in insertion
// order.
func (r *FindingRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("schema: marshal key %q: %w", key, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := MarshalValue(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("schema: marshal field %q: %w", key, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the record, preserving the
// object's key order. encoding/json map decoding would lose that order, so
// the object is walked token by token.
func (r *FindingRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("schema: unmarshal record: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("schema: finding record must be a JSON object")
	}

	r.keys = nil
	r.values = make(map[string]Value)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("schema: unmarshal record key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: non-string record key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("schema: unmarshal field %q: %w", key, err)
		}
		v, err := UnmarshalValue(raw)
		if err != nil {
			return fmt.Errorf("schema: field %q: %w", key, err)
		}
		if _, isAbsent := v.(Absent); isAbsent {
			// Absence on the wire is tolerated but not stored.
			continue
		}
		if err := r.Set(key, v); err != nil {
			return err
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("schema: unmarshal record: %w", err)
	}
	return nil
}

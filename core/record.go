package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Record is one unit of work: a JSON object whose field order and field
// values are preserved exactly as loaded. Values are held as raw JSON so
// fields the engine does not understand round-trip unchanged.
//
// A Record may also wrap a non-object array element (a string, a number,
// null). Such records report IsObject() == false and are written back
// verbatim.
type Record struct {
	keys   []string
	values map[string]json.RawMessage
	raw    json.RawMessage
}

// NewRecord returns an empty JSON object record.
func NewRecord() Record {
	return Record{values: make(map[string]json.RawMessage)}
}

// IsObject reports whether the record is a JSON object.
func (r Record) IsObject() bool {
	return r.raw == nil
}

// Has reports whether the record carries the named field.
func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the field names in their original order.
func (r Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.keys)
}

// Raw returns the raw JSON value of a field.
func (r Record) Raw(key string) (json.RawMessage, bool) {
	v, ok := r.values[key]
	return v, ok
}

// String returns the value of a field if it holds a JSON string. A null
// value is not a string.
func (r Record) String(key string) (string, bool) {
	v, ok := r.values[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// Get decodes the value of a field into v.
func (r Record) Get(key string, v any) error {
	raw, ok := r.values[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingField, key)
	}
	return json.Unmarshal(raw, v)
}

// Set encodes v and stores it under key. A new key is appended after the
// existing fields; an existing key keeps its position.
func (r *Record) Set(key string, v any) error {
	if !r.IsObject() {
		return fmt.Errorf("%w: cannot set %q on a non-object record", ErrInvalidRecord, key)
	}
	encoded, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("encoding field %q: %w", key, err)
	}
	if r.values == nil {
		r.values = make(map[string]json.RawMessage)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = encoded
	return nil
}

// Clone returns a shallow copy. Raw values are shared; they are never
// mutated in place.
func (r Record) Clone() Record {
	c := Record{
		keys: slices.Clone(r.keys),
		raw:  r.raw,
	}
	if r.values != nil {
		c.values = make(map[string]json.RawMessage, len(r.values))
		for k, v := range r.values {
			c.values[k] = v
		}
	}
	return c
}

// MarshalJSON writes the record with its fields in original order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeValue(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(r.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON value, keeping object field order. Duplicate
// keys keep their first position and their last value.
func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty value", ErrInvalidRecord)
	}
	if trimmed[0] != '{' {
		*r = Record{raw: slices.Clone(trimmed)}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return err
	}
	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected object key %v", ErrInvalidRecord, tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if _, exists := rec.values[key]; !exists {
			rec.keys = append(rec.keys, key)
		}
		rec.values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = rec
	return nil
}

// encodeValue marshals v without HTML escaping.
func encodeValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

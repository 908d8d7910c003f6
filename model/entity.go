package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Entity is the backend's authoritative contract record. The wizard does not
// interpret it beyond the per-step sections, so every field is kept as raw
// JSON and round-trips untouched.
type Entity struct {
	ID     string
	fields map[string]json.RawMessage
}

func NewEntity(id string) *Entity {
	e := &Entity{ID: id, fields: make(map[string]json.RawMessage)}
	e.fields["id"] = mustMarshal(id)
	return e
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("entity must be a JSON object: %w", err)
	}

	// Some backend routes wrap the record in {"data": {...}}.
	if inner, ok := fields["data"]; ok && fields["id"] == nil && bytes.HasPrefix(bytes.TrimSpace(inner), []byte("{")) {
		return e.UnmarshalJSON(inner)
	}

	var id ID
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &id); err != nil {
			return fmt.Errorf("invalid entity id: %w", err)
		}
	}
	e.ID = string(id)
	e.fields = fields
	return nil
}

func (e Entity) MarshalJSON() ([]byte, error) {
	if e.fields == nil {
		return json.Marshal(map[string]string{"id": e.ID})
	}
	// Sorted keys keep the encoding stable for comparisons.
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(mustMarshal(k))
		buf.WriteByte(':')
		buf.Write(e.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Section decodes the step's sub-object into dst. It reports false when the
// entity has no such section.
func (e *Entity) Section(step Step, dst any) (bool, error) {
	raw, ok := e.fields[step.Section()]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", step.Section(), err)
	}
	return true, nil
}

// SetSection replaces the step's sub-object as a whole.
func (e *Entity) SetSection(step Step, value any) error {
	key := step.Section()
	if key == "" {
		return fmt.Errorf("step %d has no section", step)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if e.fields == nil {
		e.fields = make(map[string]json.RawMessage)
	}
	e.fields[key] = raw
	return nil
}

// Field returns a raw top-level field.
func (e *Entity) Field(key string) (json.RawMessage, bool) {
	raw, ok := e.fields[key]
	return raw, ok
}

// Clone returns a deep copy so cached entities are never shared.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := &Entity{ID: e.ID, fields: make(map[string]json.RawMessage, len(e.fields))}
	for k, v := range e.fields {
		out.fields[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func mustMarshal(v string) []byte {
	b, _ := json.Marshal(v)
	return b
}

// ID accepts both string and numeric identifiers from the backend.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

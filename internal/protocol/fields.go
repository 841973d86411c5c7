package protocol

import (
	"encoding/json"
	"fmt"
)

// fields is a decoded JSON object whose members are read lazily so that a
// missing or mistyped member can be reported by name.
type fields map[string]json.RawMessage

// value returns the member with option wrappers removed; null and None count
// as absent.
func (f fields) value(key string) (json.RawMessage, bool) {
	raw, ok := f[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	raw = unwrapOption(raw)
	if raw == nil || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

func (f fields) has(key string) bool {
	_, ok := f.value(key)
	return ok
}

// require decodes a member that must be present and non-null.
func (f fields) require(key string, dst any) error {
	raw, ok := f.value(key)
	if !ok {
		return fmt.Errorf("missing field %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	return nil
}

// optional decodes a member when present; absent or null leaves dst unchanged.
func (f fields) optional(key string, dst any) error {
	raw, ok := f.value(key)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	return nil
}

// caseEnvelope is the {"Case": ..., "Fields": [...]} shape used for options
// and for the snapshot union.
type caseEnvelope struct {
	Case   string            `json:"Case"`
	Fields []json.RawMessage `json:"Fields"`
}

// unwrapOption returns the inner value of {"Case":"Some","Fields":[v]}, nil for
// {"Case":"None"}, and raw unchanged for anything else.
func unwrapOption(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	var env caseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	switch env.Case {
	case "Some":
		if len(env.Fields) == 1 {
			return env.Fields[0]
		}
	case "None":
		return nil
	}
	return raw
}

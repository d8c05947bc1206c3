package handlers

import (
	"encoding/json"
	"reflect"
)

// NullableString is a JSON string field that tells an explicit null apart from an
// absent key. Set is true whenever the key was present in the body.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only called for keys present in the body.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// IsNull reports whether the key was present with a null value.
func (n NullableString) IsNull() bool {
	return n.Set && n.Value == nil
}

// nullableStringValue lets validator tags apply to the wrapped string. Absent and
// null values validate as nil, so "omitempty" skips them.
func nullableStringValue(field reflect.Value) interface{} {
	if n, ok := field.Interface().(NullableString); ok && n.Value != nil {
		return *n.Value
	}
	return nil
}

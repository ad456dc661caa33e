package model

import "encoding/json"

// Optional marks whether a JSON field was present in a request body,
// which lets a partial update tell "absent" apart from "null" or "".
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns nil when the field was not supplied.
func (o Optional[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

package schema

// Optional pairs a value with a presence bit. The zero Optional is absent
// and absent fields are never written to the wire.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Or returns the value when present and def otherwise.
func (o Optional[T]) Or(def T) T {
	if o.Valid {
		return o.Value
	}
	return def
}

func (o *Optional[T]) Set(v T) {
	o.Value = v
	o.Valid = true
}

// Clear marks the field absent and drops its value.
func (o *Optional[T]) Clear() {
	var zero T
	o.Value = zero
	o.Valid = false
}

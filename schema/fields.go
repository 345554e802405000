package schema

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/scitags/nftnl/nlattr"
)

func Uint8[T any, V ~uint8](name string, code uint16, get func(*T) *Optional[V]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			if v, ok := get(obj).Get(); ok {
				e.Uint8(code, uint8(v))
			}
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			if len(b) != 1 {
				return widthError(len(b), 1)
			}
			get(obj).Set(V(b[0]))
			return nil
		},
	}
}

func Uint16[T any, V ~uint16](name string, code uint16, order binary.ByteOrder, get func(*T) *Optional[V]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			if v, ok := get(obj).Get(); ok {
				e.Uint16(code, order, uint16(v))
			}
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			if len(b) != 2 {
				return widthError(len(b), 2)
			}
			get(obj).Set(V(order.Uint16(b)))
			return nil
		},
	}
}

func Uint32[T any, V ~uint32](name string, code uint16, order binary.ByteOrder, get func(*T) *Optional[V]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			if v, ok := get(obj).Get(); ok {
				e.Uint32(code, order, uint32(v))
			}
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			if len(b) != 4 {
				return widthError(len(b), 4)
			}
			get(obj).Set(V(order.Uint32(b)))
			return nil
		},
	}
}

func Uint64[T any, V ~uint64](name string, code uint16, order binary.ByteOrder, get func(*T) *Optional[V]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			if v, ok := get(obj).Get(); ok {
				e.Uint64(code, order, uint64(v))
			}
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			if len(b) != 8 {
				return widthError(len(b), 8)
			}
			get(obj).Set(V(order.Uint64(b)))
			return nil
		},
	}
}

// Int32 covers the signed fields such as hook priorities and verdict codes.
func Int32[T any, V ~int32](name string, code uint16, order binary.ByteOrder, get func(*T) *Optional[V]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			if v, ok := get(obj).Get(); ok {
				e.Uint32(code, order, uint32(int32(v)))
			}
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			if len(b) != 4 {
				return widthError(len(b), 4)
			}
			get(obj).Set(V(int32(order.Uint32(b))))
			return nil
		},
	}
}

// String fields are NUL terminated on the wire. Decoding tolerates a
// missing terminator and strips any trailing NULs.
func String[T any, V ~string](name string, code uint16, get func(*T) *Optional[V]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			if v, ok := get(obj).Get(); ok {
				e.String(code, string(v))
			}
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			for len(b) > 0 && b[len(b)-1] == 0 {
				b = b[:len(b)-1]
			}
			if !utf8.Valid(b) {
				return ErrUTF8
			}
			get(obj).Set(V(b))
			return nil
		},
	}
}

// Bytes fields are copied on decode so objects never alias receive buffers.
func Bytes[T any](name string, code uint16, get func(*T) *Optional[[]byte]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			if v, ok := get(obj).Get(); ok {
				e.Attribute(code, v)
			}
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			get(obj).Set(append([]byte(nil), b...))
			return nil
		},
	}
}

// Enum wraps an integer field with a validity check applied when decoding.
// Values outside the set are rejected with ErrDiscriminant.
func Enum[T any, V comparable](f Field[T], get func(*T) *Optional[V], valid func(V) bool) Field[T] {
	decode := f.Decode
	f.Decode = func(obj *T, b []byte) error {
		if err := decode(obj, b); err != nil {
			return err
		}
		if v := get(obj).Value; !valid(v) {
			get(obj).Clear()
			return fmt.Errorf("%w: %v", ErrDiscriminant, v)
		}
		return nil
	}
	return f
}

// Nested embeds another schema as a nested attribute.
func Nested[T, N any](name string, code uint16, inner *Schema[N], get func(*T) *Optional[N]) Field[T] {
	return Field[T]{
		Name: name,
		Code: code,
		Encode: func(e *nlattr.Encoder, code uint16, obj *T) error {
			v := get(obj)
			if !v.Valid {
				return nil
			}
			e.Nested(code, func(e *nlattr.Encoder) error {
				return inner.Encode(e, &v.Value)
			})
			return nil
		},
		Decode: func(obj *T, b []byte) error {
			var v N
			if err := inner.Decode(b, &v); err != nil {
				return err
			}
			get(obj).Set(v)
			return nil
		},
	}
}

// Custom builds a field out of arbitrary functions, for payloads such as
// expression lists that no generic field describes.
func Custom[T any](name string, code uint16, enc func(e *nlattr.Encoder, code uint16, obj *T) error, dec func(obj *T, b []byte) error) Field[T] {
	return Field[T]{Name: name, Code: code, Encode: enc, Decode: dec}
}

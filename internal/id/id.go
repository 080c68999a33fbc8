// Package id implements the phantom-typed content identifiers used across
// the media library: an 8-byte value rendered as 16 lowercase hex
// characters, carrying a type parameter only to keep media and album ids
// from being accidentally interchanged at compile time.
package id

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Media and Album are the two phantom tags in use. They carry no fields;
// they exist purely to parameterize ID.
type Media struct{}
type Album struct{}

// ID is an opaque 8-byte identifier tagged with a phantom type T so that
// ID[Media] and ID[Album] are distinct types even though their underlying
// representation is identical.
type ID[T any] [8]byte

// Zero reports whether id is the zero value (never a valid id in practice,
// since it would require a SHA-1 prefix collision with an all-zero byte
// string, but used as a sentinel for "not set").
func (i ID[T]) Zero() bool {
	return i == ID[T]{}
}

// String renders the id as 16 lowercase hex characters.
func (i ID[T]) String() string {
	return hex.EncodeToString(i[:])
}

// Parse decodes a 16-character hex string into an ID.
func Parse[T any](s string) (ID[T], error) {
	var out ID[T]
	if len(s) != 16 {
		return out, fmt.Errorf("id: invalid length %d, want 16", len(s))
	}
	n, err := hex.Decode(out[:], []byte(s))
	if err != nil {
		return out, fmt.Errorf("id: invalid hex: %w", err)
	}
	if n != 8 {
		return out, fmt.Errorf("id: decoded %d bytes, want 8", n)
	}
	return out, nil
}

// MustParse is Parse but panics on error; intended for constants in tests.
func MustParse[T any](s string) ID[T] {
	v, err := Parse[T](s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromBytes truncates/copies the first 8 bytes of b into an ID. Callers
// pass a SHA-1 digest here; only the first 8 bytes of the digest are kept.
func FromBytes[T any](b []byte) ID[T] {
	var out ID[T]
	copy(out[:], b)
	return out
}

// Int64 renders the id as a big-endian signed integer, the representation
// used to store ids as sqlite INTEGER primary keys.
func (i ID[T]) Int64() int64 {
	return int64(binary.BigEndian.Uint64(i[:]))
}

// FromInt64 is the inverse of Int64.
func FromInt64[T any](v int64) ID[T] {
	var out ID[T]
	binary.BigEndian.PutUint64(out[:], uint64(v))
	return out
}

// MarshalText implements encoding.TextMarshaler so an ID can be used
// directly as a JSON object key or value, and as a gin path/query param.
func (i ID[T]) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID[T]) UnmarshalText(text []byte) error {
	v, err := Parse[T](string(text))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

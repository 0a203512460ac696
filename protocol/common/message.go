package common

import (
	"fmt"
	"math"
	"sort"
)

// --------------------------------------------------------------------------
// Value Type Definition
// --------------------------------------------------------------------------

// ValueType identifies the active variant of a Value. The numeric values
// double as the on-wire type tags and must not be reordered.
type ValueType uint8

const (
	TypeInt64 ValueType = iota + 1
	TypeUint64
	TypeFloat64
	TypeString
	TypeBinary
)

// String returns the string representation of a ValueType.
func (t ValueType) String() string {
	switch t {
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Value Structure
// --------------------------------------------------------------------------

// Value is a tagged union with exactly five variants: int64, uint64,
// float64, string and opaque binary. Exactly one variant is active at
// a time; there is no implicit numeric coercion between variants. The zero
// Value has no active variant and cannot be encoded.
type Value struct {
	Type    ValueType
	Int64   int64
	Uint64  uint64
	Float64 float64
	Str     string
	Bin     []byte
}

// --------------------------------------------------------------------------
// Value Factory Functions
// --------------------------------------------------------------------------

// Int64Value creates a Value holding a signed 64-bit integer
func Int64Value(v int64) Value {
	return Value{Type: TypeInt64, Int64: v}
}

// Uint64Value creates a Value holding an unsigned 64-bit integer
func Uint64Value(v uint64) Value {
	return Value{Type: TypeUint64, Uint64: v}
}

// Float64Value creates a Value holding a 64-bit IEEE-754 float
func Float64Value(v float64) Value {
	return Value{Type: TypeFloat64, Float64: v}
}

// StringValue creates a Value holding a string. The bytes are carried to
// the wire verbatim and are not UTF-8 validated.
func StringValue(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// BinaryValue creates a Value holding an opaque byte sequence
func BinaryValue(v []byte) Value {
	return Value{Type: TypeBinary, Bin: v}
}

// --------------------------------------------------------------------------
// Value Accessors
// --------------------------------------------------------------------------

// AsInt64 returns the int64 variant. The second return value reports
// whether that variant is the active one.
func (v Value) AsInt64() (int64, bool) {
	return v.Int64, v.Type == TypeInt64
}

// AsUint64 returns the uint64 variant and whether it is active
func (v Value) AsUint64() (uint64, bool) {
	return v.Uint64, v.Type == TypeUint64
}

// AsFloat64 returns the float64 variant and whether it is active
func (v Value) AsFloat64() (float64, bool) {
	return v.Float64, v.Type == TypeFloat64
}

// AsString returns the string variant and whether it is active
func (v Value) AsString() (string, bool) {
	return v.Str, v.Type == TypeString
}

// AsBinary returns the binary variant and whether it is active
func (v Value) AsBinary() ([]byte, bool) {
	return v.Bin, v.Type == TypeBinary
}

// Equal reports whether two Values hold the same variant with the same
// content. Floats are compared by bit pattern so that NaN and negative
// zero compare the way they travel on the wire.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeInt64:
		return v.Int64 == other.Int64
	case TypeUint64:
		return v.Uint64 == other.Uint64
	case TypeFloat64:
		return math.Float64bits(v.Float64) == math.Float64bits(other.Float64)
	case TypeString:
		return v.Str == other.Str
	case TypeBinary:
		if len(v.Bin) != len(other.Bin) {
			return false
		}
		for i := range v.Bin {
			if v.Bin[i] != other.Bin[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a human-readable representation of the Value
func (v Value) String() string {
	switch v.Type {
	case TypeInt64:
		return fmt.Sprintf("int64(%d)", v.Int64)
	case TypeUint64:
		return fmt.Sprintf("uint64(%d)", v.Uint64)
	case TypeFloat64:
		return fmt.Sprintf("float64(%g)", v.Float64)
	case TypeString:
		return fmt.Sprintf("string(%q)", v.Str)
	case TypeBinary:
		return fmt.Sprintf("binary(%d bytes)", len(v.Bin))
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is a mapping from string key to Value. Keys are unique; setting
// an existing key overwrites the previous entry. Messages are transient,
// own no external resources and are created either by the sender or by the
// codec on receive.
type Message map[string]Value

// NewMessage creates an empty Message
func NewMessage() Message {
	return make(Message)
}

// --------------------------------------------------------------------------
// Typed Setters
// --------------------------------------------------------------------------

// SetInt64 stores a signed 64-bit integer under key
func (m Message) SetInt64(key string, v int64) {
	m[key] = Int64Value(v)
}

// SetUint64 stores an unsigned 64-bit integer under key
func (m Message) SetUint64(key string, v uint64) {
	m[key] = Uint64Value(v)
}

// SetFloat64 stores a 64-bit float under key
func (m Message) SetFloat64(key string, v float64) {
	m[key] = Float64Value(v)
}

// SetString stores a string under key
func (m Message) SetString(key string, v string) {
	m[key] = StringValue(v)
}

// SetBinary stores an opaque byte sequence under key
func (m Message) SetBinary(key string, v []byte) {
	m[key] = BinaryValue(v)
}

// --------------------------------------------------------------------------
// Typed Getters
// --------------------------------------------------------------------------

// GetInt64 returns the int64 stored under key, if present with that type
func (m Message) GetInt64(key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.AsInt64()
}

// GetUint64 returns the uint64 stored under key, if present with that type
func (m Message) GetUint64(key string) (uint64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.AsUint64()
}

// GetFloat64 returns the float64 stored under key, if present with that type
func (m Message) GetFloat64(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.AsFloat64()
}

// GetString returns the string stored under key, if present with that type
func (m Message) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// GetBinary returns the bytes stored under key, if present with that type
func (m Message) GetBinary(key string) ([]byte, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return v.AsBinary()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// Keys returns all keys in lexicographic order. This is the deterministic
// iteration order used for encoding, so the same Message always encodes to
// the same bytes.
func (m Message) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two Messages contain the same entries,
// independent of insertion order
func (m Message) Equal(other Message) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

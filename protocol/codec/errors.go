package codec

import "errors"

// Encoding errors. All length fields are checked before writing; nothing is
// ever silently truncated.
var (
	// ErrKeyTooLarge is returned when a key's byte length exceeds the
	// 16-bit key length field
	ErrKeyTooLarge = errors.New("key exceeds 16-bit length field")

	// ErrValueTooLarge is returned when a string or binary value exceeds
	// the 32-bit value length field
	ErrValueTooLarge = errors.New("value exceeds 32-bit length field")

	// ErrPayloadTooLarge is returned when the total payload exceeds the
	// 32-bit frame length field
	ErrPayloadTooLarge = errors.New("payload exceeds 32-bit length field")
)

// Decoding errors. Decoding is a single validating pass; the first failed
// check aborts with one of these.
var (
	// ErrTooShort is returned when the input is shorter than the 4-byte
	// frame header
	ErrTooShort = errors.New("message shorter than frame header")

	// ErrIncomplete is returned when the input is shorter than the
	// declared payload length
	ErrIncomplete = errors.New("incomplete message")

	// ErrOversized is returned when the input is longer than the declared
	// payload length (trailing garbage)
	ErrOversized = errors.New("message longer than declared length")

	// ErrTruncated is returned when an entry field runs past the end of
	// the payload
	ErrTruncated = errors.New("entry truncated")

	// ErrUnknownType is returned when an entry carries a type tag outside
	// the known range
	ErrUnknownType = errors.New("unknown value type tag")
)

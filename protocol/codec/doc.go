// Package codec implements the SBDP binary wire format: the mapping between
// a common.Message and its length-prefixed frame.
//
// Frame layout (all integers big-endian):
//
//	Frame   := PayloadLen(4) Payload
//	Payload := Entry*
//	Entry   := KeyLen(2) Key(KeyLen) TypeTag(1) Value
//	TypeTag := 1=int64 | 2=uint64 | 3=float64 | 4=string | 5=binary
//
// Numeric values are always 8 bytes; float64 travels as its IEEE-754 bit
// pattern. String and binary values carry a 4-byte length followed by that
// many bytes. An empty Message encodes to a frame of 4 zero bytes.
//
// Every length read from the wire is validated against the remaining buffer
// before it is used to slice or allocate. Decode enforces an exact-length
// contract: input shorter than declared fails with ErrIncomplete, longer
// with ErrOversized. Decoding either yields a complete Message or an error,
// never a partial result.
//
// Thread Safety:
//
//	Codecs are stateless and safe for concurrent use across goroutines.
package codec

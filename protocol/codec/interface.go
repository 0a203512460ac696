package codec

import "github.com/3103lab/sbdp/protocol/common"

// ICodec is the interface for message codecs. Implementations are stateless
// and safe for concurrent use.
type ICodec interface {
	// Encode serializes a Message into a complete wire frame: a 4-byte
	// big-endian payload length followed by the payload. It returns an
	// error if a key or value exceeds its length field.
	Encode(msg common.Message) ([]byte, error)
	// Decode parses a complete wire frame (header included) back into a
	// Message. The input must contain exactly one frame; trailing bytes
	// are rejected. On error no partial Message is returned.
	Decode(data []byte) (common.Message, error)
}

package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/3103lab/sbdp/protocol/common"
)

// Wire layout constants. All integers on the wire are big-endian.
const (
	// FrameHeaderSize is the size of the payload length prefix
	FrameHeaderSize = 4

	keyLengthSize   = 2
	typeTagSize     = 1
	numericSize     = 8
	valueLengthSize = 4
)

// NewBinaryCodec creates a codec for the SBDP binary wire format
func NewBinaryCodec() ICodec {
	return &binaryCodecImpl{}
}

// binaryCodecImpl implements ICodec using the SBDP binary format
type binaryCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (c binaryCodecImpl) Encode(msg common.Message) ([]byte, error) {
	// Entries are emitted in the Message's deterministic key order
	keys := msg.Keys()

	// First pass: validate length fields and compute the exact buffer size
	payloadLen := 0
	for _, key := range keys {
		if len(key) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: key is %d bytes", ErrKeyTooLarge, len(key))
		}

		entryLen := keyLengthSize + len(key) + typeTagSize

		val := msg[key]
		switch val.Type {
		case common.TypeInt64, common.TypeUint64, common.TypeFloat64:
			entryLen += numericSize
		case common.TypeString:
			if len(val.Str) > math.MaxUint32 {
				return nil, fmt.Errorf("%w: string value for key %q is %d bytes", ErrValueTooLarge, key, len(val.Str))
			}
			entryLen += valueLengthSize + len(val.Str)
		case common.TypeBinary:
			if len(val.Bin) > math.MaxUint32 {
				return nil, fmt.Errorf("%w: binary value for key %q is %d bytes", ErrValueTooLarge, key, len(val.Bin))
			}
			entryLen += valueLengthSize + len(val.Bin)
		default:
			return nil, fmt.Errorf("%w: value for key %q has tag %d", ErrUnknownType, key, val.Type)
		}

		payloadLen += entryLen
	}

	if payloadLen > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrPayloadTooLarge, payloadLen)
	}

	// Second pass: write the frame into a single buffer
	result := make([]byte, FrameHeaderSize+payloadLen)
	binary.BigEndian.PutUint32(result[0:FrameHeaderSize], uint32(payloadLen))
	pos := FrameHeaderSize

	for _, key := range keys {
		binary.BigEndian.PutUint16(result[pos:pos+keyLengthSize], uint16(len(key)))
		pos += keyLengthSize

		copy(result[pos:pos+len(key)], key)
		pos += len(key)

		val := msg[key]
		result[pos] = byte(val.Type)
		pos += typeTagSize

		switch val.Type {
		case common.TypeInt64:
			binary.BigEndian.PutUint64(result[pos:pos+numericSize], uint64(val.Int64))
			pos += numericSize
		case common.TypeUint64:
			binary.BigEndian.PutUint64(result[pos:pos+numericSize], val.Uint64)
			pos += numericSize
		case common.TypeFloat64:
			binary.BigEndian.PutUint64(result[pos:pos+numericSize], math.Float64bits(val.Float64))
			pos += numericSize
		case common.TypeString:
			binary.BigEndian.PutUint32(result[pos:pos+valueLengthSize], uint32(len(val.Str)))
			pos += valueLengthSize
			copy(result[pos:pos+len(val.Str)], val.Str)
			pos += len(val.Str)
		case common.TypeBinary:
			binary.BigEndian.PutUint32(result[pos:pos+valueLengthSize], uint32(len(val.Bin)))
			pos += valueLengthSize
			copy(result[pos:pos+len(val.Bin)], val.Bin)
			pos += len(val.Bin)
		}
	}

	return result, nil
}

func (c binaryCodecImpl) Decode(data []byte) (common.Message, error) {
	if len(data) < FrameHeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTooShort, len(data))
	}

	payloadLen := binary.BigEndian.Uint32(data[0:FrameHeaderSize])
	frameEnd := FrameHeaderSize + int(payloadLen)

	// Exact-length contract: the input must be exactly one frame
	if len(data) < frameEnd {
		return nil, fmt.Errorf("%w: declared %d payload bytes, got %d", ErrIncomplete, payloadLen, len(data)-FrameHeaderSize)
	}
	if len(data) > frameEnd {
		return nil, fmt.Errorf("%w: declared %d payload bytes, got %d", ErrOversized, payloadLen, len(data)-FrameHeaderSize)
	}

	msg := common.NewMessage()
	pos := FrameHeaderSize

	for pos < frameEnd {
		// Key length
		if pos+keyLengthSize > frameEnd {
			return nil, fmt.Errorf("%w: key length at offset %d", ErrTruncated, pos)
		}
		keyLen := int(binary.BigEndian.Uint16(data[pos : pos+keyLengthSize]))
		pos += keyLengthSize

		// Key bytes, taken verbatim without UTF-8 validation
		if pos+keyLen > frameEnd {
			return nil, fmt.Errorf("%w: key data at offset %d", ErrTruncated, pos)
		}
		key := string(data[pos : pos+keyLen])
		pos += keyLen

		// Type tag
		if pos+typeTagSize > frameEnd {
			return nil, fmt.Errorf("%w: type tag at offset %d", ErrTruncated, pos)
		}
		tag := common.ValueType(data[pos])
		pos += typeTagSize

		switch tag {
		case common.TypeInt64:
			if pos+numericSize > frameEnd {
				return nil, fmt.Errorf("%w: int64 value at offset %d", ErrTruncated, pos)
			}
			msg[key] = common.Int64Value(int64(binary.BigEndian.Uint64(data[pos : pos+numericSize])))
			pos += numericSize

		case common.TypeUint64:
			if pos+numericSize > frameEnd {
				return nil, fmt.Errorf("%w: uint64 value at offset %d", ErrTruncated, pos)
			}
			msg[key] = common.Uint64Value(binary.BigEndian.Uint64(data[pos : pos+numericSize]))
			pos += numericSize

		case common.TypeFloat64:
			if pos+numericSize > frameEnd {
				return nil, fmt.Errorf("%w: float64 value at offset %d", ErrTruncated, pos)
			}
			msg[key] = common.Float64Value(math.Float64frombits(binary.BigEndian.Uint64(data[pos : pos+numericSize])))
			pos += numericSize

		case common.TypeString:
			if pos+valueLengthSize > frameEnd {
				return nil, fmt.Errorf("%w: string length at offset %d", ErrTruncated, pos)
			}
			strLen := int(binary.BigEndian.Uint32(data[pos : pos+valueLengthSize]))
			pos += valueLengthSize

			if pos+strLen > frameEnd {
				return nil, fmt.Errorf("%w: string data at offset %d", ErrTruncated, pos)
			}
			msg[key] = common.StringValue(string(data[pos : pos+strLen]))
			pos += strLen

		case common.TypeBinary:
			if pos+valueLengthSize > frameEnd {
				return nil, fmt.Errorf("%w: binary length at offset %d", ErrTruncated, pos)
			}
			binLen := int(binary.BigEndian.Uint32(data[pos : pos+valueLengthSize]))
			pos += valueLengthSize

			if pos+binLen > frameEnd {
				return nil, fmt.Errorf("%w: binary data at offset %d", ErrTruncated, pos)
			}
			// Copy so the Message does not alias the input buffer
			bin := make([]byte, binLen)
			copy(bin, data[pos:pos+binLen])
			msg[key] = common.BinaryValue(bin)
			pos += binLen

		default:
			return nil, fmt.Errorf("%w: tag %d for key %q", ErrUnknownType, tag, key)
		}
	}

	return msg, nil
}

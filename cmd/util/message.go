package util

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/3103lab/sbdp/protocol/common"
)

// ParseEntries builds a Message from command line arguments of the form
// KEY=TYPE:VALUE, where TYPE is one of int, uint, float, str, bin (hex
// encoded).
//
// Example: name=str:hello count=int:42 payload=bin:deadbeef
func ParseEntries(args []string) (common.Message, error) {
	msg := common.NewMessage()

	for _, arg := range args {
		key, rest, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid entry %q (expected KEY=TYPE:VALUE)", arg)
		}

		typ, raw, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("invalid entry %q (expected KEY=TYPE:VALUE)", arg)
		}

		switch typ {
		case "int", "i":
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid int value %q for key %q: %v", raw, key, err)
			}
			msg.SetInt64(key, v)
		case "uint", "u":
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid uint value %q for key %q: %v", raw, key, err)
			}
			msg.SetUint64(key, v)
		case "float", "f":
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid float value %q for key %q: %v", raw, key, err)
			}
			msg.SetFloat64(key, v)
		case "str", "s":
			msg.SetString(key, raw)
		case "bin", "b":
			v, err := hex.DecodeString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid hex value %q for key %q: %v", raw, key, err)
			}
			msg.SetBinary(key, v)
		default:
			return nil, fmt.Errorf("invalid type %q for key %q (expected int, uint, float, str or bin)", typ, key)
		}
	}

	return msg, nil
}

// FormatMessage renders a Message for terminal output, one entry per line
// in key order
func FormatMessage(msg common.Message) string {
	if len(msg) == 0 {
		return "(empty message)"
	}

	var sb strings.Builder
	for _, key := range msg.Keys() {
		val := msg[key]
		switch val.Type {
		case common.TypeBinary:
			sb.WriteString(fmt.Sprintf("  %-22s: binary %s\n", key, hex.EncodeToString(val.Bin)))
		default:
			sb.WriteString(fmt.Sprintf("  %-22s: %s\n", key, val.String()))
		}
	}
	return sb.String()
}

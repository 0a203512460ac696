// Package common contains the core data structures shared across the SBDP
// protocol implementation: the Message dictionary and its tagged-union Value
// type, configuration structures for connections, servers and clients, and
// the logging setup.
//
// A Message maps string keys to Values. A Value holds exactly one of five
// variants (int64, uint64, float64, string, binary); the variant tag doubles
// as the wire type tag. Messages are plain data: they are created by the
// sender or by the decoder, carried across one send or receive call, and
// then discarded.
//
// Key iteration order for encoding is lexicographic (see Message.Keys),
// which makes the encoded form of a given Message deterministic.
package common

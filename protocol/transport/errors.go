package transport

import "errors"

var (
	// ErrTimedOut is returned when a bounded read's timeout elapses before
	// the transport becomes readable
	ErrTimedOut = errors.New("receive timed out")

	// ErrCancelled is returned when Shutdown was requested while a send or
	// receive was in flight; partially transferred bytes are discarded
	ErrCancelled = errors.New("connection shut down")

	// ErrConnClosed is returned when the peer closed the connection or the
	// transport reported a fatal I/O error
	ErrConnClosed = errors.New("connection closed")

	// ErrHeaderReception wraps any failure while reading the 4-byte frame
	// header
	ErrHeaderReception = errors.New("header reception failed")

	// ErrPayloadReception wraps any failure while reading the declared
	// payload bytes
	ErrPayloadReception = errors.New("payload reception failed")

	// ErrFrameTooLarge is returned when a peer declares a payload length
	// above the configured maximum, before any of it is read
	ErrFrameTooLarge = errors.New("declared frame exceeds payload limit")
)

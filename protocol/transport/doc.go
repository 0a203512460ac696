// Package transport defines the message-level connection abstraction for
// SBDP and the error taxonomy shared by its implementations.
//
// The subpackages provide the concrete pieces:
//
//   - base: the framed connection over an arbitrary net.Conn, including the
//     partial-I/O loops, per-read timeouts and cooperative cancellation.
//
//   - tcp: connectors that establish and tune TCP connections for the base
//     implementation.
//
// Errors returned by connections wrap the sentinels in this package, so
// callers can classify failures with errors.Is: timeouts (ErrTimedOut),
// cancellation (ErrCancelled), peer closure (ErrConnClosed), and the frame
// stage that failed (ErrHeaderReception, ErrPayloadReception).
package transport

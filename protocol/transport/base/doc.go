// Package base implements the framed message connection over an arbitrary
// net.Conn, independent of how that conn was established. Connectors (see
// the tcp package) supply the dial/listen glue; this package owns the
// framing discipline:
//
//   - SendMessage loops on partial writes until the whole frame is out.
//   - RecvMessage reads the 4-byte header, validates the declared length
//     against the configured payload cap, reads exactly that many payload
//     bytes and hands the frame to the codec.
//   - Receive timeouts are re-armed per underlying read. The timeout bounds
//     how long the conn may stay silent, not how long a whole frame may
//     take to arrive.
//   - Shutdown cooperatively cancels blocked reads and writes by flipping a
//     shared flag and forcing the conn deadline into the past.
//
// A connection is meant to be driven by at most one sending and one
// receiving goroutine; the paths are not locked against themselves.
package base

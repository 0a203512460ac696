// Package tcp implements TCP socket connectors for the SBDP message
// transport. It provides concrete implementations of the base package's
// connector interfaces: dialing on the client side, listening on the server
// side, and socket tuning (TCP_NODELAY, keep-alive, linger, buffer sizes)
// for both.
//
// The framing itself lives entirely in the base package; this package is
// only the OS glue that produces connected net.Conn values.
package tcp

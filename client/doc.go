// Package client provides a dialing SBDP message client: one framed
// connection to a server with retrying connect, plus Send/Recv/Call
// convenience methods over the transport interface.
package client

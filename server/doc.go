// Package server provides an accepting SBDP message server. It combines a
// server connector (listen glue), the binary codec and the framed transport
// into a simple receive-dispatch-reply loop, one goroutine per connection.
//
// The server keeps a registry of active connections so Stop can broadcast
// cancellation: every blocked receive wakes promptly and the connection
// goroutines release their handles on the way out.
//
// Handler errors are reported back to the peer as a message with a single
// "error" string entry; receive errors close the affected connection, since
// a failed decode can leave the byte stream desynchronized.
package server

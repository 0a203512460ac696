// Package protocol contains the SBDP (Simple Binary Dictionary Protocol)
// implementation: a minimal binary wire protocol for exchanging typed
// key/value dictionaries over a reliable byte-stream transport.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the protocol, including the
//     Message dictionary, its tagged-union Value type, configuration
//     structures, and logging.
//
//   - codec: The binary wire format, mapping Messages to length-prefixed
//     frames and back with full validation of every length field.
//
//   - transport: The message-level connection abstraction, with a framed
//     implementation over net.Conn (transport/base) and TCP connectors
//     (transport/tcp) supplying the socket glue.
package protocol

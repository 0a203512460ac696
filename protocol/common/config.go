package common

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultMaxPayloadBytes caps how large a declared payload a receiver will
// accept before reading it, so a hostile peer cannot force an arbitrary
// allocation via the length field.
const DefaultMaxPayloadBytes = 64 * 1024 * 1024 // 64 MiB

// --------------------------------------------------------------------------
// Connection-level configuration
// --------------------------------------------------------------------------

// ConnConfig holds the parameters of a single framed message connection.
type ConnConfig struct {
	// WriteTimeoutSecond bounds each write of a SendMessage call.
	// Zero means writes block until the OS accepts the bytes.
	WriteTimeoutSecond int

	// MaxPayloadBytes is the largest payload length accepted from a peer.
	// Zero selects DefaultMaxPayloadBytes; a negative value disables the
	// limit entirely.
	MaxPayloadBytes int
}

// EffectiveMaxPayload resolves the configured payload cap
func (c ConnConfig) EffectiveMaxPayload() int {
	if c.MaxPayloadBytes == 0 {
		return DefaultMaxPayloadBytes
	}
	if c.MaxPayloadBytes < 0 {
		return 0 // no limit
	}
	return c.MaxPayloadBytes
}

// --------------------------------------------------------------------------
// Socket tuning configuration
// --------------------------------------------------------------------------

// SocketConf holds generic socket buffer settings
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP-specific socket settings
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds transport settings for the server
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (e.g. "0.0.0.0:4750")
	Endpoint string

	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for a message server.
type ServerConfig struct {
	// TimeoutSecond is the per-message receive timeout applied to every
	// connection. Zero means receives block until the peer sends or closes.
	TimeoutSecond int64

	// MetricsEndpoint is the optional address for the metrics/pprof HTTP
	// listener. Empty disables it.
	MetricsEndpoint string

	// Logging configuration
	LogLevel string

	Conn      ConnConfig
	Transport ServerTransportConfig
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Payload", strconv.Itoa(c.Conn.EffectiveMaxPayload()))
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Socket")
	addField("TCP NoDelay", fmt.Sprintf("%t", c.Transport.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))
	addField("Write Buffer", strconv.Itoa(c.Transport.WriteBufferSize))
	addField("Read Buffer", strconv.Itoa(c.Transport.ReadBufferSize))

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds transport settings for the client
type ClientTransportConfig struct {
	// Endpoint is the address of the server (e.g. "localhost:4750")
	Endpoint string

	// RetryCount is how often to retry the initial connect
	RetryCount int

	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters for a message client.
type ClientConfig struct {
	// TimeoutSecond is the receive timeout used by Call and the default
	// Recv helper. Zero means receives block.
	TimeoutSecond int

	// Logging configuration
	LogLevel string

	Conn      ConnConfig
	Transport ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Max Payload", strconv.Itoa(c.Conn.EffectiveMaxPayload()))

	return sb.String()
}

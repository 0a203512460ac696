package util

import (
	"strings"

	"github.com/3103lab/sbdp/protocol/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("sbdp")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupClientFlags adds common client connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "localhost:4750", WrapString("The address of the SBDP server"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("Receive timeout in seconds (0 blocks until the peer sends)"))

	key = "retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry the initial connect"))

	key = "max-payload"
	cmd.PersistentFlags().Int(key, 0, WrapString("Largest accepted payload in bytes (0 = 64 MiB default, negative = unlimited)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval in seconds (0 disables)"))

	key = "tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time in seconds (0 disables)"))

	key = "write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The socket write buffer size in KB (0 keeps the OS default)"))

	key = "read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The socket read buffer size in KB (0 keeps the OS default)"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		LogLevel:      viper.GetString("log-level"),
		Conn: common.ConnConfig{
			WriteTimeoutSecond: viper.GetInt("timeout"),
			MaxPayloadBytes:    viper.GetInt("max-payload"),
		},
		Transport: common.ClientTransportConfig{
			Endpoint:   viper.GetString("endpoint"),
			RetryCount: viper.GetInt("retries"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPNoDelay:      viper.GetBool("tcp-nodelay"),
				TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("tcp-linger"),
			},
		},
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

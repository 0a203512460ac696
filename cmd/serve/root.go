package serve

import (
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/3103lab/sbdp/cmd/util"
	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport/tcp"
	"github.com/3103lab/sbdp/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start an SBDP echo server",
		Long:    `Start an SBDP server that replies to every received message with the same message. Configuration can be set via command line flags or environment variables (SBDP_<flag>, e.g. SBDP_ENDPOINT=0.0.0.0:4750).`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:4750", cmdUtil.WrapString("The address on which the server will listen"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Per-message receive timeout in seconds (0 blocks until the peer sends)"))

	key = "max-payload"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Largest accepted payload in bytes (0 = 64 MiB default, negative = unlimited)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address for the metrics/pprof HTTP listener (empty disables it)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY for accepted connections"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds (0 disables)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time in seconds (0 disables)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket write buffer size in KB (0 keeps the OS default)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket read buffer size in KB (0 keeps the OS default)"))
}

// processConfig reads the configuration from the command line flags and
// environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Conn = common.ConnConfig{
		MaxPayloadBytes: viper.GetInt("max-payload"),
	}
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint: viper.GetString("endpoint"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
	}

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	s := server.NewServer(
		*serveCmdConfig,
		tcp.NewServerConnector(),
		codec.NewBinaryCodec(),
	)

	// Echo handler: reply with the received message unchanged
	s.RegisterHandler(func(peer string, msg common.Message) (common.Message, error) {
		return msg, nil
	})

	// Stop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		server.Logger.Infof("Shutting down")
		s.Stop()
	}()

	return s.Serve()
}

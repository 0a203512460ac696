package cmd

import (
	"fmt"
	"os"

	"github.com/3103lab/sbdp/cmd/bench"
	"github.com/3103lab/sbdp/cmd/send"
	"github.com/3103lab/sbdp/cmd/serve"
	"github.com/3103lab/sbdp/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "sbdp",
		Short: "simple binary dictionary protocol toolkit",
		Long: fmt.Sprintf(`sbdp (v%s)

A toolkit for the Simple Binary Dictionary Protocol: a minimal binary
wire protocol exchanging typed key/value dictionaries over TCP.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of sbdp",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sbdp v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(send.SendCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("Log level (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

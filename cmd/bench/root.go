package bench

import (
	"fmt"
	"math"
	"testing"
	"time"

	cmdUtil "github.com/3103lab/sbdp/cmd/util"
	"github.com/3103lab/sbdp/client"
	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	benchValueSizeKB = 1
	benchEntryCount  = 4

	BenchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Benchmark round-trips against an SBDP echo server",
		Long:    "",
		PreRunE: processBenchConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	cmdUtil.SetupClientFlags(BenchCmd)

	key := "value-size"
	BenchCmd.PersistentFlags().Int(key, 1, cmdUtil.WrapString("Size of the binary value in each message (in KB)"))

	key = "entries"
	BenchCmd.PersistentFlags().Int(key, 4, cmdUtil.WrapString("Number of entries per message"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	benchValueSizeKB = viper.GetInt("value-size")
	benchEntryCount = viper.GetInt("entries")

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	config := cmdUtil.GetClientConfig()
	common.InitLoggers(config.LogLevel)

	fmt.Println("SBDP round-trip benchmark")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Entries per message: %d\n", benchEntryCount)
	fmt.Printf("Value size: %d KB\n", benchValueSizeKB)
	fmt.Println()

	c, err := client.Dial(*config, tcp.NewClientConnector(), codec.NewBinaryCodec())
	if err != nil {
		return err
	}
	defer c.Close()

	// Build the message once and reuse it for every round-trip
	msg := buildMessage()

	result := testing.Benchmark(func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := c.Call(msg); err != nil {
				b.Fatalf("call failed: %v", err)
			}
		}
	})

	printResult("round-trip", result)
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// buildMessage creates the benchmark message: one binary entry of the
// configured size plus numeric filler entries
func buildMessage() common.Message {
	msg := common.NewMessage()
	msg.SetBinary("payload", make([]byte, benchValueSizeKB*1024))

	for i := 1; i < benchEntryCount; i++ {
		msg.SetInt64(fmt.Sprintf("entry-%d", i), int64(i))
	}

	return msg
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

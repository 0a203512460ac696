package send

import (
	"fmt"

	cmdUtil "github.com/3103lab/sbdp/cmd/util"
	"github.com/3103lab/sbdp/client"
	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	SendCmd = &cobra.Command{
		Use:   "send KEY=TYPE:VALUE ...",
		Short: "Send one message to an SBDP server",
		Long:  `Send a single message built from KEY=TYPE:VALUE arguments, where TYPE is one of int, uint, float, str, bin (hex encoded). Example: sbdp send name=str:hello count=int:42`,
		RunE:  run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	cmdUtil.SetupClientFlags(SendCmd)

	key := "no-reply"
	SendCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Do not wait for a reply after sending"))
}

func run(cmd *cobra.Command, args []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := cmdUtil.GetClientConfig()
	common.InitLoggers(config.LogLevel)

	msg, err := cmdUtil.ParseEntries(args)
	if err != nil {
		return err
	}

	c, err := client.Dial(*config, tcp.NewClientConnector(), codec.NewBinaryCodec())
	if err != nil {
		return err
	}
	defer c.Close()

	if viper.GetBool("no-reply") {
		return c.Send(msg)
	}

	reply, err := c.Call(msg)
	if err != nil {
		return err
	}

	fmt.Println("Reply:")
	fmt.Print(cmdUtil.FormatMessage(reply))
	return nil
}

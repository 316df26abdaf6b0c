package status

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andydunstall/primegossip/status/client"
	"github.com/andydunstall/primegossip/status/config"
)

func newResetCommand() *cobra.Command {
	return newControlCommand(
		"reset",
		"reset the node",
		`Reset the node.

Clears the node's known peers and seen messages, and resets its best value
to the baseline. If the node was started with a bootstrap peer, the peer is
added again. A sleeping node is woken up.

Examples:
  primegossip status reset
`,
		(*client.Client).Reset,
	)
}

func newSleepCommand() *cobra.Command {
	return newControlCommand(
		"sleep",
		"put the node to sleep",
		`Put the node to sleep.

A sleeping node ignores received messages and doesn't send any messages,
simulating a failed node. Its state is retained.

Examples:
  primegossip status sleep
`,
		(*client.Client).Sleep,
	)
}

func newWakeCommand() *cobra.Command {
	return newControlCommand(
		"wake",
		"wake up a sleeping node",
		`Wake up a sleeping node.

Examples:
  primegossip status wake
`,
		(*client.Client).Wake,
	)
}

func newControlCommand(
	use string,
	short string,
	long string,
	f func(c *client.Client) error,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
	}

	var conf config.Config
	conf.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		client := newClient(&conf)
		defer client.Close()

		if err := f(client); err != nil {
			fmt.Printf("failed to %s: %s\n", use, err.Error())
			os.Exit(1)
		}
		fmt.Println("ok")
	}

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/andydunstall/primegossip/cli/node"
	"github.com/andydunstall/primegossip/cli/status"
	"github.com/andydunstall/primegossip/cli/test"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "primegossip [command] (flags)",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Long: `Primegossip is a peer-to-peer gossip network where nodes agree on the
largest known Mersenne prime.

Each node is identified by the port it listens on. Nodes discover each other
from the messages they receive, probe known peers to detect failures, and
periodically generate the next Mersenne prime and flood it to their peers.

Start a node on port 5000 with:

  $ primegossip node --node.port 5000

Then start another node that bootstraps from the first:

  $ primegossip node --node.port 5001 --node.bootstrap 5000

You can inspect and control a running node using:

  $ primegossip status
`,
	}

	cmd.AddCommand(node.NewCommand())
	cmd.AddCommand(status.NewCommand())
	cmd.AddCommand(test.NewCommand())

	return cmd
}

func init() {
	cobra.EnableCommandSorting = false
}

package test

import (
	"github.com/spf13/cobra"

	"github.com/andydunstall/primegossip/cli/test/cluster"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "tools for testing gossip networks",
		Long:  `Tools for testing gossip networks.`,
	}

	cmd.AddCommand(cluster.NewCommand())

	return cmd
}

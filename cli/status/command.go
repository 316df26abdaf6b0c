package status

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/andydunstall/primegossip/status/client"
	"github.com/andydunstall/primegossip/status/config"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "inspect and control a node",
		Long: `Inspect and control a node.

Each node exposes a status API to inspect its state and recent messages, and
to reset the node or put it to sleep.

Requests can be sent to any node reachable from '--node.url' using
'--forward', which proxies the request via the node at '--node.url'.

See 'status --help' for the availale commands.

Examples:
  # Inspect the state of the node on port 5000.
  primegossip status state --node.url http://localhost:5000

  # Inspect the 10 most recent messages of the node on port 5001, via the
  # node on port 5000.
  primegossip status logs --n 10 --forward 5001

  # Stream messages as they are sent and received.
  primegossip status logs --follow

  # Put the node to sleep, then wake it up.
  primegossip status sleep
  primegossip status wake
`,
	}

	cmd.AddCommand(newStateCommand())
	cmd.AddCommand(newLogsCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newSleepCommand())
	cmd.AddCommand(newWakeCommand())

	return cmd
}

func newClient(conf *config.Config) *client.Client {
	if err := conf.Validate(); err != nil {
		fmt.Printf("invalid config: %s\n", err.Error())
		os.Exit(1)
	}

	// The URL has already been validated in conf.
	url, _ := url.Parse(conf.Node.URL)
	return client.NewClient(url, conf.Forward)
}

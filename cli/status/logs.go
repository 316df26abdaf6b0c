package status

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/andydunstall/primegossip/node"
	"github.com/andydunstall/primegossip/status/config"
)

func newLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "inspect recent messages",
		Long: `Inspect recent messages.

Queries the node for the most recent messages it sent and received, and any
errors, oldest first.

With '--follow', streams new messages as they occur until interrupted.

Examples:
  # Inspect the 5 most recent messages.
  primegossip status logs

  # Inspect the 20 most recent messages.
  primegossip status logs --n 20

  # Stream new messages.
  primegossip status logs --follow
`,
	}

	var conf config.Config
	conf.RegisterFlags(cmd.Flags())

	var n int
	cmd.Flags().IntVar(
		&n,
		"n",
		5,
		`
The number of recent messages to show.`,
	)

	var follow bool
	cmd.Flags().BoolVar(
		&follow,
		"follow",
		false,
		`
Whether to stream new messages as they occur.`,
	)

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if n < 0 {
			fmt.Printf("invalid config: n cannot be negative\n")
			os.Exit(1)
		}

		if follow {
			followLogs(&conf)
			return
		}
		showLogs(n, &conf)
	}

	return cmd
}

type logsOutput struct {
	Events []node.Event `json:"events"`
}

func showLogs(n int, conf *config.Config) {
	client := newClient(conf)
	defer client.Close()

	events, err := client.Logs(n)
	if err != nil {
		fmt.Printf("failed to get logs: %s\n", err.Error())
		os.Exit(1)
	}

	output := logsOutput{
		Events: events,
	}
	b, _ := yaml.Marshal(output)
	fmt.Println(string(b))
}

func followLogs(conf *config.Config) {
	client := newClient(conf)
	defer client.Close()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	if err := client.Follow(ctx, func(e node.Event) {
		b, _ := yaml.Marshal([]node.Event{e})
		fmt.Print(string(b))
	}); err != nil {
		fmt.Printf("failed to follow logs: %s\n", err.Error())
		os.Exit(1)
	}
}

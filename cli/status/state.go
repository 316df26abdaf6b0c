package status

import (
	"fmt"
	"os"
	"sort"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/andydunstall/primegossip/status/config"
)

func newStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "inspect node state",
		Long: `Inspect node state.

Queries the node for its known peers, best known value and whether it is
awake.

Examples:
  primegossip status state
`,
	}

	var conf config.Config
	conf.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		showState(&conf)
	}

	return cmd
}

type peerOutput struct {
	Port      int       `json:"port"`
	LastHeard time.Time `json:"last_heard"`
}

type stateOutput struct {
	Port               int          `json:"port"`
	Name               string       `json:"name"`
	InstanceID         string       `json:"instance_id"`
	Awake              bool         `json:"awake"`
	BiggestPrime       string       `json:"biggest_prime"`
	BiggestPrimeSender int          `json:"biggest_prime_sender"`
	MsgID              uint64       `json:"msg_id"`
	SeenMessages       int          `json:"seen_messages"`
	Peers              []peerOutput `json:"peers"`
}

func showState(conf *config.Config) {
	client := newClient(conf)
	defer client.Close()

	state, err := client.State()
	if err != nil {
		fmt.Printf("failed to get state: %s\n", err.Error())
		os.Exit(1)
	}

	output := stateOutput{
		Port:               state.Port,
		Name:               state.Name,
		InstanceID:         state.InstanceID,
		Awake:              state.Awake,
		BiggestPrime:       state.BiggestPrime.String(),
		BiggestPrimeSender: state.BiggestPrimeSender,
		MsgID:              state.MsgID,
		SeenMessages:       state.SeenMessages,
	}
	for port, lastHeard := range state.Peers {
		output.Peers = append(output.Peers, peerOutput{
			Port:      port,
			LastHeard: lastHeard,
		})
	}
	// Sort by port.
	sort.Slice(output.Peers, func(i, j int) bool {
		return output.Peers[i].Port < output.Peers[j].Port
	})

	b, _ := yaml.Marshal(output)
	fmt.Println(string(b))
}

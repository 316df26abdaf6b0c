package node

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	rungroup "github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andydunstall/primegossip/config"
	"github.com/andydunstall/primegossip/node"
	pkgconfig "github.com/andydunstall/primegossip/pkg/config"
	"github.com/andydunstall/primegossip/pkg/log"
	"github.com/andydunstall/primegossip/server"
	"github.com/andydunstall/primegossip/transport"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "start a gossip node",
		Long: `Start a gossip node.

The node listens for messages from peers on '--node.port', which is also its
ID in the network. Peers must all be reachable on '--transport.peer-host'.

The node periodically probes its known peers, evicts peers it hasn't heard
from, and generates the next Mersenne prime and floods it to its peers.

The same port also serves the status API, used by 'primegossip status', and
Prometheus metrics at '/metrics'.

Examples:
  # Start a node on port 5000.
  primegossip node --node.port 5000

  # Start a node on port 5001 that bootstraps from the node on port 5000.
  primegossip node --node.port 5001 --node.bootstrap 5000

  # Start a node that encodes messages with msgpack.
  primegossip node --node.port 5002 --transport.codec msgpack

  # Start a node using a YAML config file.
  primegossip node --config.path ./node.yaml
`,
	}

	conf := config.Default()

	var configPath string
	cmd.Flags().StringVar(
		&configPath,
		"config.path",
		"",
		`
YAML config file path.`,
	)

	var configExpandEnv bool
	cmd.Flags().BoolVar(
		&configExpandEnv,
		"config.expand-env",
		false,
		`
Whether to expand environment variables in the config file.

This will replaces references to ${VAR} or $VAR with the corresponding
environment variable. The replacement is case-sensitive.

References to undefined variables will be replaced with an empty string. A
default value can be given using form ${VAR:default}.`,
	)

	// Register flags and set default values.
	conf.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			if err := pkgconfig.Load(&conf, configPath, configExpandEnv); err != nil {
				fmt.Printf("load config: %s\n", err.Error())
				os.Exit(1)
			}
		}

		if err := conf.Validate(); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		logger, err := log.NewLogger(conf.Log.Level, conf.Log.Subsystems)
		if err != nil {
			fmt.Printf("failed to setup logger: %s\n", err.Error())
			os.Exit(1)
		}
		defer logger.Sync() //nolint

		if err := run(&conf, logger); err != nil {
			logger.Error("failed to run node", zap.Error(err))
			os.Exit(1)
		}
	}

	return cmd
}

func run(conf *config.Config, logger log.Logger) error {
	logger.Info("starting node", zap.Any("conf", conf))

	registry := prometheus.NewRegistry()

	client, err := transport.NewClient(&conf.Transport, logger)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer client.Close()
	client.Metrics().Register(registry)

	n := node.New(&conf.Node, client, node.WithLogger(logger))
	n.Metrics().Register(registry)

	scheduler := node.NewScheduler(
		n, node.MersenneGenerator, &conf.Gossip, logger,
	)

	addr := net.JoinHostPort(conf.Server.BindHost, strconv.Itoa(conf.Node.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %s: %w", addr, err)
	}
	srv := server.NewServer(
		n,
		conf.Transport.PeerHost,
		&conf.Server,
		registry,
		logger,
	)

	var group rungroup.Group

	// Termination handler.
	signalCtx, signalCancel := context.WithCancel(context.Background())
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	group.Add(func() error {
		select {
		case sig := <-signalCh:
			logger.Info(
				"received shutdown signal",
				zap.String("signal", sig.String()),
			)
			return nil
		case <-signalCtx.Done():
			return nil
		}
	}, func(error) {
		signalCancel()
	})

	// Scheduler.
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	group.Add(func() error {
		if err := scheduler.Run(schedulerCtx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	}, func(error) {
		schedulerCancel()
		logger.Info("scheduler stopped")
	})

	// HTTP server.
	group.Add(func() error {
		if err := srv.Serve(ln); err != nil {
			return fmt.Errorf("server serve: %w", err)
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			conf.GracePeriod,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to gracefully shutdown server", zap.Error(err))
		}

		logger.Info("server shut down")
	})

	if err := group.Run(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

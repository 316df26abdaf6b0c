package cluster

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	rungroup "github.com/oklog/run"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andydunstall/primegossip/gossiptest/cluster"
	"github.com/andydunstall/primegossip/gossiptest/cluster/config"
	pkgconfig "github.com/andydunstall/primegossip/pkg/config"
	"github.com/andydunstall/primegossip/pkg/log"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "create a local gossip network",
		Long: `Create a local gossip network.

Starts the configured number of nodes on local ports. Each node bootstraps from
the previously started node.

Supports both YAML configuration and command line flags. Configure a YAML file
using '--config.path'. When enabling '--config.expand-env', environment
variables in the loaded YAML configuration are expanded.

The number of nodes can be changed by updating the YAML configuration then
sending a SIGHUP signal to the process. Removed nodes are the oldest nodes.

Examples:
  # Start a network of 5 nodes.
  primegossip test cluster --nodes 5

  # Start a network that generates a new value every second.
  primegossip test cluster --gossip.propagate-interval 1s
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
Whether to expand environment variables in the config file.`,
	)

	// Register flags and set default values.
	conf.RegisterFlags(cmd.Flags())

	var logger log.Logger

	loadConfig := func() error {
		if configPath != "" {
			if err := pkgconfig.Load(conf, configPath, configExpandEnv); err != nil {
				return fmt.Errorf("load: %w", err)
			}
		}

		if err := conf.Validate(); err != nil {
			return fmt.Errorf("validate: %w", err)
		}

		return nil
	}

	cmd.PreRun = func(_ *cobra.Command, _ []string) {
		if err := loadConfig(); err != nil {
			fmt.Println(err.Error())
			os.Exit(1)
		}

		var err error
		logger, err = log.NewLogger(conf.Log.Level, conf.Log.Subsystems)
		if err != nil {
			fmt.Printf("failed to setup logger: %s\n", err.Error())
			os.Exit(1)
		}
	}

	cmd.Run = func(_ *cobra.Command, _ []string) {
		if err := runCluster(conf, loadConfig, logger); err != nil {
			logger.Error("failed to run cluster", zap.Error(err))
			os.Exit(1)
		}
	}

	return cmd
}

func runCluster(
	conf *config.Config,
	loadConfig func() error,
	logger log.Logger,
) error {
	logger.Info("starting cluster", zap.Any("config", conf))

	defer func() {
		logger.Info("shutdown complete")
	}()

	manager := cluster.NewManager(cluster.WithLogger(logger))
	defer manager.Close()

	if err := manager.Update(conf); err != nil {
		return fmt.Errorf("start nodes: %w", err)
	}

	for _, n := range manager.Nodes() {
		logger.Info(
			"node started",
			zap.Int("id", int(n.ID())),
			zap.String("url", n.URL().String()),
		)
	}

	var group rungroup.Group

	// Config reload.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	hupCancel := make(chan struct{})
	group.Add(func() error {
		for {
			select {
			case <-hup:
				logger.Info("received hup signal")

				if err := loadConfig(); err != nil {
					logger.Error("failed to load config", zap.Error(err))
					continue
				}

				if err := manager.Update(conf); err != nil {
					logger.Error("failed to update cluster", zap.Error(err))
				}
			case <-hupCancel:
				return nil
			}
		}
	}, func(error) {
		close(hupCancel)
	})

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

	return group.Run()
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calehh/ballot-app/app"
	app_config "github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var homeDir string

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run a ballot node",
	Args:  cobra.NoArgs,
	RunE:  nodeRun,
}

func init() {
	nodeCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func loadConfig(home string) (*app_config.Config, error) {
	appConfig := app_config.DefaultConfig(home)
	viper.SetConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"))
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	appConfig.SetRoot(appConfig.App.Home)
	if err := appConfig.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return appConfig, nil
}

func startIndexer(ctx context.Context, appConfig *app_config.Config, logger cmtlog.Logger) error {
	rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
	if err != nil {
		return fmt.Errorf("parse rpc url: %w", err)
	}
	rpcUrl.Scheme = "http"
	idx, err := indexer.NewChainIndexer(logger, appConfig.App.IndexerDBPath(), rpcUrl.String())
	if err != nil {
		return fmt.Errorf("new chain indexer: %w", err)
	}
	go func() {
		idx.Start(ctx)
		_ = idx.Close()
	}()
	svc := indexer.NewService(appConfig.App.IndexerListen, idx)
	go func() {
		if err := svc.Start(); err != nil {
			logger.Error("indexer service stopped", "err", err)
		}
	}()
	logger.Info("indexer started", "listen", appConfig.App.IndexerListen)
	return nil
}

func nodeRun(cmd *cobra.Command, args []string) error {
	appConfig, err := loadConfig(homeDir)
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		return fmt.Errorf("failed to load node's key: %w", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	ballotApp, err := app.NewBallotApp(appConfig.App, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(ballotApp),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		ballotApp.Stop()
		return fmt.Errorf("creating node: %w", err)
	}

	if err = node.Start(); err != nil {
		ballotApp.Stop()
		return fmt.Errorf("start comet node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if appConfig.App.IndexerEnable {
		if err = startIndexer(ctx, appConfig, logger); err != nil {
			logger.Error("indexer disabled", "err", err)
		}
	}

	defer func() {
		log.Println("shut down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := node.Stop(); err != nil {
				logger.Error("stop comet node", "err", err)
			}
			node.Wait()
			ballotApp.Stop()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	return nil
}

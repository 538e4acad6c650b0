package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	app_config "github.com/calehh/ballot-app/config"
	"github.com/calehh/ballot-app/types"
	cmtos "github.com/cometbft/cometbft/libs/os"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	Signer     string          `json:"signer" yaml:"signer"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

type initArguments struct {
	RequireRegistration bool
	ProgramID           string
}

var initArgs initArguments

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long:  `Initialize validators's and node's configuration files.`,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "node home directory")
	initCmd.Flags().BoolVar(&initArgs.RequireRegistration, "require-registration", false, "only registered members may vote")
	initCmd.Flags().StringVar(&initArgs.ProgramID, "program-id", "", "hex program id, defaults to the built-in one")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)

	if chainID == "" {
		chainID = fmt.Sprintf("ballot-chain-%v", rand.Uint64())
	}
	appConfig := app_config.NewBallotConfig(home)
	appConfig.App.RequireRegistration = initArgs.RequireRegistration
	if initArgs.ProgramID != "" {
		appConfig.App.ProgramID = initArgs.ProgramID
	}
	appGenesis, err := appConfig.App.AppGenesis()
	if err != nil {
		return err
	}
	appState, err := json.Marshal(appGenesis)
	if err != nil {
		return err
	}

	genFile := appConfig.GenesisFile()
	if !overwrite && cmtos.FileExists(genFile) {
		return fmt.Errorf("genesis file %s already exists, use --%s to replace it", genFile, types.FlagOverwrite)
	}

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	vals := []types.GenesisValidator{
		{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower, Name: types.BallotModuleName},
	}

	genesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appState,
	}
	if err = types.ExportGenesisFile(genesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file: %w", err)
	}
	if err = app_config.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return displayInfo(printInfo{
		ChainID:    chainID,
		NodeID:     nodeID,
		Signer:     fmt.Sprintf("%x", pk.Bytes()),
		AppMessage: appState,
	})
}

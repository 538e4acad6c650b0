package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calehh/ballot-app/address"
	"github.com/calehh/ballot-app/types"
	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const (
	DefaultHome          = "$HOME/.ballot"
	DefaultIndexerListen = "127.0.0.1:8088"
	DefaultIndexerDB     = "indexer.db"
)

// BallotAppConfig is the [app] section of config.toml. ProgramID and
// RequireRegistration only seed the genesis file written by init; a running
// chain reads both from its genesis.
type BallotAppConfig struct {
	Home                string `mapstructure:"-"`
	ProgramID           string `mapstructure:"program_id"`
	RequireRegistration bool   `mapstructure:"require_registration"`
	IndexerEnable       bool   `mapstructure:"indexer_enable"`
	IndexerListen       string `mapstructure:"indexer_listen"`
	IndexerDB           string `mapstructure:"indexer_db"`
}

func DefaultBallotAppConfig(home string) *BallotAppConfig {
	return &BallotAppConfig{
		Home:          home,
		ProgramID:     address.DefaultProgramID.String(),
		IndexerEnable: true,
		IndexerListen: DefaultIndexerListen,
		IndexerDB:     DefaultIndexerDB,
	}
}

// ProgramAddress parses ProgramID, falling back to the default program.
func (c *BallotAppConfig) ProgramAddress() (address.Address, error) {
	if c.ProgramID == "" {
		return address.DefaultProgramID, nil
	}
	return address.ParseAddress(c.ProgramID)
}

// AppGenesis is the app_state that init writes into genesis.json.
func (c *BallotAppConfig) AppGenesis() (*types.AppGenesis, error) {
	pid, err := c.ProgramAddress()
	if err != nil {
		return nil, fmt.Errorf("program_id: %w", err)
	}
	return &types.AppGenesis{ProgramID: pid, RequireRegistration: c.RequireRegistration}, nil
}

// IndexerDBPath resolves IndexerDB against the home directory.
func (c *BallotAppConfig) IndexerDBPath() string {
	if c.IndexerDB == "" || c.IndexerDB == ":memory:" || filepath.IsAbs(c.IndexerDB) {
		return c.IndexerDB
	}
	return filepath.Join(c.Home, c.IndexerDB)
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *BallotAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv(DefaultHome)
	}
	config := &Config{
		DefaultBallotCometConfig(),
		DefaultBallotAppConfig(home),
	}
	config.SetRoot(home)
	return config
}

func NewBallotConfig(home string) *Config {
	config := DefaultConfig(home)
	_ = os.MkdirAll(filepath.Join(config.RootDir, "config"), 0755)
	return config
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	if _, err := c.App.ProgramAddress(); err != nil {
		return fmt.Errorf("app.program_id: %w", err)
	}
	return nil
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

// DefaultBallotCometConfig shortens the consensus timeouts so deadlines
// expressed in seconds track block time closely.
func DefaultBallotCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1000
	return cometConfig
}

// Package config defines the deployment suite configuration. Configs are
// per-network yaml files, defaults for the known networks are embedded into
// the binary.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/personae-labs/inft-go/pkg/access"
	"gopkg.in/yaml.v3"
)

var (
	// Version is the version of the toolkit, set at build time.
	Version string

	// BuildTime is the time and date the current version was built, set at
	// build time.
	BuildTime string
)

//go:embed *.yml
var defaults embed.FS

type (
	// Config is the top level deployment suite configuration.
	Config struct {
		Network NetworkConfig `yaml:"Network"`
		RPC     RPCConfig     `yaml:"RPC"`
		Deploy  DeployConfig  `yaml:"Deploy"`
		Logger  LoggerConfig  `yaml:"Logger"`
	}

	// NetworkConfig names the target network.
	NetworkConfig struct {
		Name string `yaml:"Name"`
		// Magic is the expected chain ID. When not zero, commands refuse to
		// talk to a node reporting a different one.
		Magic uint64 `yaml:"Magic"`
	}

	// RPCConfig describes the node connection.
	RPCConfig struct {
		Endpoint string `yaml:"Endpoint"`
		// Timeout for a single RPC request, in seconds.
		Timeout int64 `yaml:"Timeout"`
	}

	// DeployConfig describes what to deploy and how to wire it.
	DeployConfig struct {
		// ArtifactsDir holds compiled contract artifacts, one
		// <ContractName>.json per contract.
		ArtifactsDir string `yaml:"ArtifactsDir"`
		// RegistryPath is the deployment registry database file.
		RegistryPath string        `yaml:"RegistryPath"`
		ALI          ALIDeploy     `yaml:"ALI"`
		Pod          PodDeploy     `yaml:"Pod"`
		Drop         DropDeploy    `yaml:"Drop"`
		Staking      StakingDeploy `yaml:"Staking"`
		// Grants are extra role assignments performed after deployment on
		// top of the standard suite wiring.
		Grants []Grant `yaml:"Grants"`
	}

	// ALIDeploy parametrizes the ALI ERC20 deployment.
	ALIDeploy struct {
		// InitialHolder receives the initial token supply, the deployer
		// account when empty.
		InitialHolder string `yaml:"InitialHolder"`
		// Features to enable on a freshly deployed token. Plain and
		// on-behalf transfers when not set.
		Features access.Mask `yaml:"Features"`
	}

	// PodDeploy parametrizes the Personality Pod ERC721 deployment.
	PodDeploy struct {
		Name   string `yaml:"Name"`
		Symbol string `yaml:"Symbol"`
	}

	// DropDeploy enables the airdrop contract deployment.
	DropDeploy struct {
		Enable bool `yaml:"Enable"`
	}

	// StakingDeploy enables the staking contract deployment.
	StakingDeploy struct {
		Enable bool `yaml:"Enable"`
	}

	// Grant is one role assignment: Operator gets Role on Contract. Contract
	// is a suite contract name, Operator is either a suite contract name or
	// a hex address.
	Grant struct {
		Contract string      `yaml:"Contract"`
		Operator string      `yaml:"Operator"`
		Role     access.Mask `yaml:"Role"`
	}

	// LoggerConfig describes the logging setup.
	LoggerConfig struct {
		// Level is a zap level name, info when empty.
		Level string `yaml:"Level"`
		// Path is the log file, stderr when empty.
		Path string `yaml:"Path"`
	}
)

// TimeoutDuration returns the configured request timeout.
func (r RPCConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// Load reads and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return parse(data)
}

// LoadNetwork loads the config of the named network from
// <dir>/suite.<name>.yml, falling back to the embedded default config when
// the file does not exist.
func LoadNetwork(dir, name string) (Config, error) {
	path := filepath.Join(dir, fmt.Sprintf("suite.%s.yml", name))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(name)
	}
	return Load(path)
}

// DefaultConfig returns the embedded config of the named network.
func DefaultConfig(name string) (Config, error) {
	data, err := defaults.ReadFile(fmt.Sprintf("suite.%s.yml", name))
	if err != nil {
		return Config{}, fmt.Errorf("no default config for network %s", name)
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	c := Config{
		RPC: RPCConfig{Timeout: 15},
		Deploy: DeployConfig{
			ArtifactsDir: "artifacts",
			RegistryPath: filepath.Join("deploy", "registry.db"),
			ALI:          ALIDeploy{Features: access.Union(access.FeatureTransfers, access.FeatureTransfersOnBehalf)},
			Pod:          PodDeploy{Name: "Personality Pod", Symbol: "POD"},
		},
		Logger: LoggerConfig{Level: "info"},
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config for holes that would fail any deployment.
func (c Config) Validate() error {
	if c.Network.Name == "" {
		return fmt.Errorf("network name is missing")
	}
	if c.RPC.Endpoint == "" {
		return fmt.Errorf("RPC endpoint is missing")
	}
	if c.RPC.Timeout <= 0 {
		return fmt.Errorf("RPC timeout must be positive")
	}
	if c.Deploy.ArtifactsDir == "" {
		return fmt.Errorf("artifacts directory is missing")
	}
	if c.Deploy.RegistryPath == "" {
		return fmt.Errorf("registry path is missing")
	}
	if h := c.Deploy.ALI.InitialHolder; h != "" && !common.IsHexAddress(h) {
		return fmt.Errorf("invalid ALI initial holder address %q", h)
	}
	if c.Deploy.Pod.Name == "" || c.Deploy.Pod.Symbol == "" {
		return fmt.Errorf("pod name and symbol are missing")
	}
	for i, g := range c.Deploy.Grants {
		if g.Contract == "" {
			return fmt.Errorf("grant %d has no contract", i)
		}
		if g.Operator == "" {
			return fmt.Errorf("grant %d has no operator", i)
		}
		if g.Role.IsZero() {
			return fmt.Errorf("grant %d has a zero role mask", i)
		}
	}
	return nil
}

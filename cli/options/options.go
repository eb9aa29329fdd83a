/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/personae-labs/inft-go/cli/flags"
	"github.com/personae-labs/inft-go/cli/input"
	"github.com/personae-labs/inft-go/config"
	"github.com/personae-labs/inft-go/pkg/chain"
	"github.com/personae-labs/inft-go/pkg/registry"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeout is the default timeout used for RPC requests.
const DefaultTimeout = 15 * time.Second

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address (overrides the configured one)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Usage: "timeout for the operation (overrides the configured one)",
	},
}

// Signing is a set of flags used to find the transaction signing key: either
// a raw hex key or a go-ethereum keystore directory with an account address.
var Signing = []cli.Flag{
	cli.StringFlag{
		Name:  "key, k",
		Usage: "hex-encoded private key to sign transactions with; conflicts with --keystore",
	},
	cli.StringFlag{
		Name:  "keystore",
		Usage: "path to a key store directory; conflicts with --key",
	},
	flags.AddressFlag{
		Name:  "address, a",
		Usage: "address of the key store account to sign transactions with",
	},
}

// Config is a flag for commands that use per-network suite configuration.
var Config = cli.StringFlag{
	Name:  "config-path",
	Usage: "path to directory with per-network configuration files",
}

// Network is a flag selecting the named network configuration.
var Network = cli.StringFlag{
	Name:  "network, n",
	Value: "devnet",
	Usage: "network to operate on (a suite.<network>.yml file must exist for it)",
}

// Debug is a flag enabling debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

var (
	errNoEndpoint        = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r' or set one in the config")
	errNoKey             = errors.New("no signing key specified, use option '--key' or '--keystore' with '--address'")
	errConflictingKeys   = errors.New("--key flag conflicts with --keystore flag, please, provide one of them to specify the signing key")
	errNoKeystoreAddress = errors.New("no account specified, use option '--address' to pick a key store account")
)

// GetConfigFromContext loads the suite configuration selected by the
// config-path and network flags and applies flag overrides to it.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	var configPath = "./config"
	if argCp := ctx.String("config-path"); argCp != "" {
		configPath = argCp
	}
	network := ctx.String("network")
	if network == "" {
		network = "devnet"
	}
	cfg, err := config.LoadNetwork(configPath, network)
	if err != nil {
		return cfg, err
	}
	if ep := ctx.String(RPCEndpointFlag); ep != "" {
		cfg.RPC.Endpoint = ep
	}
	return cfg, nil
}

// GetTimeoutContext returns a context.Context with the flag-set, config-set
// or default timeout.
func GetTimeoutContext(ctx *cli.Context, cfg config.Config) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = cfg.RPC.TimeoutDuration()
	}
	if dur == 0 {
		dur = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetRPCClient returns an RPC client instance for the given Context. When the
// configuration pins a network magic, clients connected to a node reporting a
// different chain ID are rejected.
func GetRPCClient(gctx context.Context, ctx *cli.Context, cfg config.Config) (*ethclient.Client, cli.ExitCoder) {
	endpoint := cfg.RPC.Endpoint
	if len(endpoint) == 0 {
		return nil, cli.NewExitError(errNoEndpoint, 1)
	}
	c, err := ethclient.DialContext(gctx, endpoint)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("dialing %s: %w", endpoint, err), 1)
	}
	if cfg.Network.Magic != 0 {
		id, err := c.ChainID(gctx)
		if err != nil {
			c.Close()
			return nil, cli.NewExitError(fmt.Errorf("requesting chain ID: %w", err), 1)
		}
		if !id.IsUint64() || id.Uint64() != cfg.Network.Magic {
			c.Close()
			return nil, cli.NewExitError(fmt.Errorf("RPC node reports chain ID %s, network %s expects %d",
				id, cfg.Network.Name, cfg.Network.Magic), 1)
		}
	}
	return c, nil
}

// GetRPCWithInvoker combines GetRPCClient with a read-only invoker performing
// calls on behalf of the --address flag account (zero address when not set).
func GetRPCWithInvoker(gctx context.Context, ctx *cli.Context, cfg config.Config) (*ethclient.Client, *chain.Invoker, cli.ExitCoder) {
	c, err := GetRPCClient(gctx, ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var from common.Address
	if addrFlag, ok := ctx.Generic("address").(*flags.Address); ok && addrFlag.IsSet {
		from = addrFlag.Address()
	}
	return c, chain.NewInvoker(c, from), nil
}

// GetRPCWithActor combines GetRPCClient with a transaction-signing actor
// using the key selected by the signing flags.
func GetRPCWithActor(gctx context.Context, ctx *cli.Context, cfg config.Config) (*ethclient.Client, *chain.Actor, cli.ExitCoder) {
	key, err := GetKeyFromContext(ctx)
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	c, exitErr := GetRPCClient(gctx, ctx, cfg)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	a, err := chain.NewActor(gctx, c, key)
	if err != nil {
		c.Close()
		return nil, nil, cli.NewExitError(fmt.Errorf("failed to create actor: %w", err), 1)
	}
	return c, a, nil
}

// GetKeyFromContext returns the transaction signing key selected by the
// signing flags: either the --key hex value or a key store account decrypted
// with an interactively requested password.
func GetKeyFromContext(ctx *cli.Context) (*ecdsa.PrivateKey, error) {
	var (
		keyHex = ctx.String("key")
		ksPath = ctx.String("keystore")
	)
	if keyHex != "" && ksPath != "" {
		return nil, errConflictingKeys
	}
	if keyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid signing key: %w", err)
		}
		return key, nil
	}
	if ksPath == "" {
		return nil, errNoKey
	}
	addrFlag, ok := ctx.Generic("address").(*flags.Address)
	if !ok || !addrFlag.IsSet {
		return nil, errNoKeystoreAddress
	}
	return readKeystoreKey(ksPath, addrFlag.Address())
}

// readKeystoreKey locates the key file of the given account in a go-ethereum
// key store directory and decrypts it.
func readKeystoreKey(dir string, addr common.Address) (*ecdsa.PrivateKey, error) {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	for _, acc := range ks.Accounts() {
		if acc.Address != addr {
			continue
		}
		pass, err := input.ReadPassword(fmt.Sprintf("Enter password for %s > ", addr))
		if err != nil {
			return nil, fmt.Errorf("error reading password: %w", err)
		}
		data, err := os.ReadFile(acc.URL.Path)
		if err != nil {
			return nil, fmt.Errorf("unable to read key file: %w", err)
		}
		key, err := keystore.DecryptKey(data, pass)
		if err != nil {
			return nil, fmt.Errorf("unable to decrypt key: %w", err)
		}
		return key.PrivateKey, nil
	}
	return nil, fmt.Errorf("key store contains no account for %s", addr)
}

// ResolveContract resolves a contract CLI argument: a hex address is used as
// is, anything else is looked up in the deployment registry by name.
func ResolveContract(cfg config.Config, chainID *big.Int, arg string) (common.Address, error) {
	if common.IsHexAddress(arg) {
		return common.HexToAddress(arg), nil
	}
	reg, err := registry.Open(cfg.Deploy.RegistryPath)
	if err != nil {
		return common.Address{}, err
	}
	defer reg.Close()
	rec, err := reg.Get(chainID, arg)
	if err != nil {
		return common.Address{}, fmt.Errorf("unable to resolve %q: %w", arg, err)
	}
	return rec.Address, nil
}

// GetChainID resolves the chain ID registry records are keyed by: the
// configured network magic when set, otherwise whatever the RPC node reports.
func GetChainID(gctx context.Context, ctx *cli.Context, cfg config.Config) (*big.Int, cli.ExitCoder) {
	if cfg.Network.Magic != 0 {
		return new(big.Int).SetUint64(cfg.Network.Magic), nil
	}
	c, exitErr := GetRPCClient(gctx, ctx, cfg)
	if exitErr != nil {
		return nil, exitErr
	}
	defer c.Close()
	id, err := c.ChainID(gctx)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("requesting chain ID: %w", err), 1)
	}
	return id, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.LoggerConfig) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.Level) > 0 {
		level, err = zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.Path; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), os.ModePerm); err != nil {
			return nil, nil, fmt.Errorf("unable to create log dir: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

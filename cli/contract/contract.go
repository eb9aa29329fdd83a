// Package contract implements CLI commands managing individual suite
// contracts: deployment, attachment and permission administration.
package contract

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/personae-labs/inft-go/cli/options"
	"github.com/personae-labs/inft-go/config"
	"github.com/personae-labs/inft-go/pkg/access"
	"github.com/personae-labs/inft-go/pkg/artifact"
	"github.com/personae-labs/inft-go/pkg/registry"
	"github.com/personae-labs/inft-go/pkg/suite"
	"github.com/personae-labs/inft-go/pkg/token"
	"github.com/urfave/cli"
)

// contractNames lists the deployable suite contracts.
var contractNames = []string{
	token.ALIContract,
	token.PodContract,
	token.INFTContract,
	token.DropContract,
	token.StakingContract,
}

var (
	errNoContract = cli.NewExitError("contract name or address is missing", 1)
	errNoOperator = cli.NewExitError("operator name or address is missing", 1)
	errNoMask     = cli.NewExitError("permission mask is missing", 1)
)

// NewCommands returns the 'contract', 'features' and 'role' commands.
func NewCommands() []cli.Command {
	readFlags := append([]cli.Flag{options.Config, options.Network}, options.RPC...)
	writeFlags := append([]cli.Flag{options.Config, options.Network, options.Debug}, options.Signing...)
	writeFlags = append(writeFlags, options.RPC...)
	return []cli.Command{
		{
			Name:  "contract",
			Usage: "deploy and attach single suite contracts",
			Subcommands: []cli.Command{
				{
					Name:      "deploy",
					Usage:     "deploy one suite contract (or attach to a registered one), dependencies included",
					ArgsUsage: "<name>",
					Action:    deployContract,
					Flags:     writeFlags,
				},
				{
					Name:      "attach",
					Usage:     "record an already deployed contract in the registry",
					ArgsUsage: "<name> <address>",
					Action:    attachContract,
					Flags:     readFlags,
				},
			},
		},
		{
			Name:  "features",
			Usage: "inspect and change contract feature flags",
			Subcommands: []cli.Command{
				{
					Name:      "get",
					Usage:     "print the feature mask of a contract",
					ArgsUsage: "<contract>",
					Action:    getFeatures,
					Flags:     readFlags,
				},
				{
					Name:      "set",
					Usage:     "set the feature mask of a contract",
					ArgsUsage: "<contract> <mask>",
					Action:    setFeatures,
					Flags:     writeFlags,
				},
			},
		},
		{
			Name:  "role",
			Usage: "inspect and change operator roles",
			Subcommands: []cli.Command{
				{
					Name:      "get",
					Usage:     "print the role mask of an operator",
					ArgsUsage: "<contract> <operator>",
					Action:    getRole,
					Flags:     readFlags,
				},
				{
					Name:      "grant",
					Usage:     "add permission bits to an operator role",
					ArgsUsage: "<contract> <operator> <mask>",
					Action:    grantRole,
					Flags:     writeFlags,
				},
				{
					Name:      "revoke",
					Usage:     "clear permission bits of an operator role (all of them without a mask)",
					ArgsUsage: "<contract> <operator> [mask]",
					Action:    revokeRole,
					Flags:     writeFlags,
				},
			},
		},
	}
}

func deployContract(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		return errNoContract
	}
	if !slices.Contains(contractNames, name) {
		return cli.NewExitError(fmt.Errorf("unknown contract %q, pick one of: %s",
			name, strings.Join(contractNames, ", ")), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	c, acc, exitErr := options.GetRPCWithActor(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	reg, err := registry.Open(cfg.Deploy.RegistryPath)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer reg.Close()

	d := suite.New(acc, artifact.NewStore(cfg.Deploy.ArtifactsDir),
		suite.WithLogger(log), suite.WithRegistry(reg))
	addr, err := ensureContract(gctx, d, cfg, name)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%s: %s\n", name, addr.Hex())
	return nil
}

// ensureContract deploys or attaches the named contract. Dependencies it
// needs (the ALI token for the iNFT wrapper, the pod for the drop and
// staking) are ensured with configuration defaults.
func ensureContract(gctx context.Context, d *suite.Deployer, cfg config.Config, name string) (common.Address, error) {
	switch name {
	case token.ALIContract:
		var holder common.Address
		if cfg.Deploy.ALI.InitialHolder != "" {
			holder = common.HexToAddress(cfg.Deploy.ALI.InitialHolder)
		}
		t, err := d.EnsureALI(gctx, common.Address{}, holder)
		if err != nil {
			return common.Address{}, err
		}
		return t.Address(), nil
	case token.PodContract:
		t, err := d.EnsurePod(gctx, common.Address{}, cfg.Deploy.Pod.Name, cfg.Deploy.Pod.Symbol)
		if err != nil {
			return common.Address{}, err
		}
		return t.Address(), nil
	case token.INFTContract:
		t, err := d.EnsureINFT(gctx, common.Address{}, nil)
		if err != nil {
			return common.Address{}, err
		}
		return t.Address(), nil
	case token.DropContract:
		t, err := d.EnsureDrop(gctx, common.Address{}, nil)
		if err != nil {
			return common.Address{}, err
		}
		return t.Address(), nil
	case token.StakingContract:
		t, err := d.EnsureStaking(gctx, common.Address{}, nil)
		if err != nil {
			return common.Address{}, err
		}
		return t.Address(), nil
	}
	return common.Address{}, fmt.Errorf("unknown contract %q", name)
}

func attachContract(ctx *cli.Context) error {
	args := ctx.Args()
	name := args.First()
	if name == "" {
		return errNoContract
	}
	if !slices.Contains(contractNames, name) {
		return cli.NewExitError(fmt.Errorf("unknown contract %q, pick one of: %s",
			name, strings.Join(contractNames, ", ")), 1)
	}
	addrStr := args.Get(1)
	if !common.IsHexAddress(addrStr) {
		return cli.NewExitError(fmt.Errorf("invalid contract address %q", addrStr), 1)
	}
	addr := common.HexToAddress(addrStr)

	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	code, err := inv.CodeAt(gctx, addr)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("checking code at %s: %w", addr, err), 1)
	}
	if len(code) == 0 {
		return cli.NewExitError(fmt.Errorf("no code at %s", addr), 1)
	}

	id, err := c.ChainID(gctx)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("requesting chain ID: %w", err), 1)
	}
	reg, err := registry.Open(cfg.Deploy.RegistryPath)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer reg.Close()
	err = reg.Put(id, registry.Record{
		Name:       name,
		Address:    addr,
		DeployedAt: time.Now().UTC(),
	})
	if err != nil {
		return cli.NewExitError(fmt.Errorf("recording %s: %w", name, err), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%s attached at %s\n", name, addr.Hex())
	return nil
}

func getFeatures(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" {
		return errNoContract
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	addr, err := resolveArg(gctx, c, cfg, arg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	mask, err := token.NewRBACReader(inv, addr).Features(gctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, mask.String())
	return nil
}

func setFeatures(ctx *cli.Context) error {
	args := ctx.Args()
	if args.First() == "" {
		return errNoContract
	}
	if args.Get(1) == "" {
		return errNoMask
	}
	mask, err := access.ParseMask(args.Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	c, acc, exitErr := options.GetRPCWithActor(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	addr, err := resolveArg(gctx, c, cfg, args.First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tx, err := token.NewRBAC(acc, addr).UpdateFeatures(gctx, mask)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	r, err := acc.Wait(gctx, tx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "features set to %s, tx %s, block %d\n", mask, r.TxHash, r.BlockNumber)
	return nil
}

func getRole(ctx *cli.Context) error {
	args := ctx.Args()
	if args.First() == "" {
		return errNoContract
	}
	if args.Get(1) == "" {
		return errNoOperator
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	addr, err := resolveArg(gctx, c, cfg, args.First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	operator, err := resolveArg(gctx, c, cfg, args.Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	mask, err := token.NewRBACReader(inv, addr).RoleOf(gctx, operator)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, mask.String())
	return nil
}

func grantRole(ctx *cli.Context) error {
	if ctx.Args().Get(2) == "" {
		return errNoMask
	}
	return changeRole(ctx, func(current, mask access.Mask) access.Mask {
		return current.Union(mask)
	})
}

func revokeRole(ctx *cli.Context) error {
	return changeRole(ctx, func(current, mask access.Mask) access.Mask {
		if mask.IsZero() {
			return access.Mask{}
		}
		return current.Without(mask)
	})
}

// changeRole reads the current role of the operator, applies change to it
// and sends the update.
func changeRole(ctx *cli.Context, change func(current, mask access.Mask) access.Mask) error {
	args := ctx.Args()
	if args.First() == "" {
		return errNoContract
	}
	if args.Get(1) == "" {
		return errNoOperator
	}
	var mask access.Mask
	if s := args.Get(2); s != "" {
		var err error
		if mask, err = access.ParseMask(s); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	c, acc, exitErr := options.GetRPCWithActor(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	addr, err := resolveArg(gctx, c, cfg, args.First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	operator, err := resolveArg(gctx, c, cfg, args.Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	rbac := token.NewRBAC(acc, addr)
	current, err := rbac.RoleOf(gctx, operator)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	updated := change(current, mask)
	tx, err := rbac.UpdateRole(gctx, operator, updated)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	r, err := acc.Wait(gctx, tx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "role of %s set to %s, tx %s, block %d\n",
		operator.Hex(), updated, r.TxHash, r.BlockNumber)
	return nil
}

// resolveArg resolves a contract or operator argument: a hex address is used
// as is, anything else is a registry lookup keyed by the chain ID of the
// connected node.
func resolveArg(gctx context.Context, c *ethclient.Client, cfg config.Config, arg string) (common.Address, error) {
	if common.IsHexAddress(arg) {
		return common.HexToAddress(arg), nil
	}
	id, err := c.ChainID(gctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("requesting chain ID: %w", err)
	}
	return options.ResolveContract(cfg, id, arg)
}

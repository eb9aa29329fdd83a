// Package staking implements CLI commands for the NFT staking contract
// test clock.
package staking

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/personae-labs/inft-go/cli/options"
	"github.com/personae-labs/inft-go/config"
	"github.com/personae-labs/inft-go/pkg/token"
	"github.com/urfave/cli"
)

// contractFlag overrides the registry lookup of the staking contract.
var contractFlag = cli.StringFlag{
	Name:  "contract, c",
	Usage: "staking contract name or address (registry lookup by default)",
}

// NewCommands returns the 'staking' command.
func NewCommands() []cli.Command {
	readFlags := append([]cli.Flag{options.Config, options.Network, contractFlag}, options.RPC...)
	writeFlags := append([]cli.Flag{options.Config, options.Network, contractFlag}, options.Signing...)
	writeFlags = append(writeFlags, options.RPC...)
	return []cli.Command{{
		Name:  "staking",
		Usage: "control the staking contract test clock",
		Subcommands: []cli.Command{
			{
				Name:   "now",
				Usage:  "print the current staking contract time",
				Action: stakingNow,
				Flags:  readFlags,
			},
			{
				Name:      "set-now",
				Usage:     "override the staking contract time (zero restores block time)",
				ArgsUsage: "<unix32>",
				Action:    stakingSetNow,
				Flags:     writeFlags,
			},
		},
	}}
}

func stakingNow(ctx *cli.Context) error {
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

	id, err := c.ChainID(gctx)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("requesting chain ID: %w", err), 1)
	}
	addr, err := resolveStaking(ctx, cfg, id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	now, err := token.NewStakingReader(inv, addr).Now32(gctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%d (%s)\n", now, time.Unix(int64(now), 0).UTC().Format(time.RFC3339))
	return nil
}

func stakingSetNow(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" {
		return cli.NewExitError("timestamp is missing", 1)
	}
	now, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid timestamp %q: %w", arg, err), 1)
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

	id, err := c.ChainID(gctx)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("requesting chain ID: %w", err), 1)
	}
	addr, err := resolveStaking(ctx, cfg, id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tx, err := token.NewStaking(acc, addr).SetNow32(gctx, uint32(now))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	r, err := acc.Wait(gctx, tx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "now32 set to %d, tx %s, block %d\n", now, r.TxHash, r.BlockNumber)
	return nil
}

func resolveStaking(ctx *cli.Context, cfg config.Config, id *big.Int) (common.Address, error) {
	arg := ctx.String("contract")
	if arg == "" {
		arg = token.StakingContract
	}
	return options.ResolveContract(cfg, id, arg)
}

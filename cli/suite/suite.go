// Package suite implements CLI commands deploying and inspecting the whole
// contract suite.
package suite

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/personae-labs/inft-go/cli/flags"
	"github.com/personae-labs/inft-go/cli/options"
	"github.com/personae-labs/inft-go/pkg/artifact"
	"github.com/personae-labs/inft-go/pkg/registry"
	"github.com/personae-labs/inft-go/pkg/suite"
	"github.com/personae-labs/inft-go/pkg/token"
	"github.com/urfave/cli"
)

// NewCommands returns the 'suite' command.
func NewCommands() []cli.Command {
	deployFlags := append([]cli.Flag{options.Config, options.Network, options.Debug}, options.Signing...)
	deployFlags = append(deployFlags, options.RPC...)
	showFlags := append([]cli.Flag{
		options.Config,
		options.Network,
		flags.AddressFlag{
			Name:  "operator, o",
			Usage: "also print the role mask of the given operator for every contract",
		},
	}, options.RPC...)
	return []cli.Command{{
		Name:  "suite",
		Usage: "deploy and inspect the iNFT contract suite",
		Subcommands: []cli.Command{
			{
				Name:   "deploy",
				Usage:  "deploy or attach the whole contract suite per network configuration",
				Action: deploySuite,
				Flags:  deployFlags,
			},
			{
				Name:   "show",
				Usage:  "print addresses and permission state of the registered contracts",
				Action: showSuite,
				Flags:  showFlags,
			},
		},
	}}
}

func deploySuite(ctx *cli.Context) error {
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
	s, err := d.Deploy(gctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	printAddresses(ctx, s.Addresses())
	return nil
}

func showSuite(ctx *cli.Context) error {
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
	reg, err := registry.Open(cfg.Deploy.RegistryPath)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer reg.Close()

	recs, err := reg.List(id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if len(recs) == 0 {
		fmt.Fprintf(ctx.App.Writer, "no contracts registered for chain %s\n", id)
		return nil
	}

	var operator *common.Address
	if opFlag, ok := ctx.Generic("operator").(*flags.Address); ok && opFlag.IsSet {
		addr := opFlag.Address()
		operator = &addr
	}

	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	header := "NAME\tADDRESS\tBLOCK\tFEATURES\tDEPLOYED"
	if operator != nil {
		header += "\tROLE"
	}
	_, _ = tw.Write([]byte(header + "\n"))
	for _, rec := range recs {
		r := token.NewRBACReader(inv, rec.Address)
		features := "-"
		if m, err := r.Features(gctx); err == nil {
			features = m.String()
		}
		line := rec.Name + "\t" + rec.Address.Hex() + "\t" +
			strconv.FormatUint(rec.Block, 10) + "\t" + features + "\t" +
			rec.DeployedAt.Format(time.RFC3339)
		if operator != nil {
			role := "-"
			if m, err := r.RoleOf(gctx, *operator); err == nil {
				role = m.String()
			}
			line += "\t" + role
		}
		_, _ = tw.Write([]byte(line + "\n"))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

func printAddresses(ctx *cli.Context, addrs map[string]common.Address) {
	names := make([]string, 0, len(addrs))
	for name := range addrs {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	for _, name := range names {
		_, _ = tw.Write([]byte(name + ":\t" + addrs[name].Hex() + "\n"))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
}

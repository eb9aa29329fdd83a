// Package registry implements CLI commands inspecting and pruning the
// deployment registry.
package registry

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/personae-labs/inft-go/cli/options"
	"github.com/personae-labs/inft-go/pkg/registry"
	"github.com/urfave/cli"
)

// NewCommands returns the 'registry' command.
func NewCommands() []cli.Command {
	flags := append([]cli.Flag{options.Config, options.Network}, options.RPC...)
	return []cli.Command{{
		Name:  "registry",
		Usage: "inspect and prune deployment records",
		Subcommands: []cli.Command{
			{
				Name:   "list",
				Usage:  "print deployment records of the selected network",
				Action: listRecords,
				Flags:  flags,
			},
			{
				Name:      "remove",
				Usage:     "drop the deployment record of a contract",
				ArgsUsage: "<name>",
				Action:    removeRecord,
				Flags:     flags,
			},
		},
	}}
}

func listRecords(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	id, exitErr := options.GetChainID(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
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

	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("NAME\tADDRESS\tBLOCK\tTX\tDEPLOYED\n"))
	for _, rec := range recs {
		_, _ = tw.Write([]byte(rec.Name + "\t" + rec.Address.Hex() + "\t" +
			strconv.FormatUint(rec.Block, 10) + "\t" + rec.TxHash.Hex() + "\t" +
			rec.DeployedAt.Format(time.RFC3339) + "\n"))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

func removeRecord(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		return cli.NewExitError("contract name is missing", 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx, cfg)
	defer cancel()

	id, exitErr := options.GetChainID(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	reg, err := registry.Open(cfg.Deploy.RegistryPath)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer reg.Close()

	if err := reg.Delete(id, name); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%s removed\n", name)
	return nil
}

package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/personae-labs/inft-go/cli/contract"
	"github.com/personae-labs/inft-go/cli/registry"
	"github.com/personae-labs/inft-go/cli/staking"
	"github.com/personae-labs/inft-go/cli/suite"
	"github.com/personae-labs/inft-go/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "inft-suite\nVersion: %s\nBuildTime: %s\nGoVersion: %s\n",
		config.Version,
		config.BuildTime,
		runtime.Version(),
	)
}

// New creates an inft-suite instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "inft-suite"
	ctl.Version = config.Version
	ctl.Usage = "iNFT protocol contract suite deployment tool"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, suite.NewCommands()...)
	ctl.Commands = append(ctl.Commands, contract.NewCommands()...)
	ctl.Commands = append(ctl.Commands, staking.NewCommands()...)
	ctl.Commands = append(ctl.Commands, registry.NewCommands()...)
	return ctl
}

package commands

import (
	"fmt"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if err := RunInit(root.Config, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Wrote example configuration to %s\n", root.Config)
	return nil
}

// RunInit writes an example configuration file.
func RunInit(configPath string, force bool) error {
	return config.Init(configPath, force)
}

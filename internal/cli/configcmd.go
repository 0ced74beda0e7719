package cli

import (
	"github.com/spf13/cobra"

	"github.com/skelly-dev/srcweb/internal/config"
)

// RunConfigInit writes the effective configuration, by default to the user
// config directory.
func RunConfigInit(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	force, err := OptionalBoolFlag(cmd, "force", false)
	if err != nil {
		return err
	}
	p := ""
	if len(args) > 0 {
		p = args[0]
	} else if p, err = config.DefaultFile(); err != nil {
		return err
	}

	logger := loggerFromContext(cmd.Context())
	wrote, err := config.Write(p, a.cfg, force)
	if err != nil {
		return err
	}
	if !wrote {
		logger.Warn("config file exists; use --force to overwrite", "path", p)
		return nil
	}
	logger.Info("wrote config", "path", p)
	return nil
}

// RunConfigShow prints the effective configuration as YAML.
func RunConfigShow(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	data, err := config.Marshal(a.cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

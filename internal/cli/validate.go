package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"resale/internal/config"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		Long: `Load the configuration from defaults, the config file, RESALE_* environment
variables and flags, and print every issue found. Exits non-zero when any
issue is an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issues := config.ValidatePipeline(*a.cfg)
			out := cmd.OutOrStdout()
			for _, iss := range issues {
				_, _ = fmt.Fprintln(out, iss.String())
			}
			if config.HasErrors(issues) {
				return errors.New("configuration is invalid")
			}
			_, _ = fmt.Fprintln(out, "configuration is valid")
			return nil
		},
	}
}

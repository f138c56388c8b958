package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/oms-authenticator/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config <providers-file>",
	Short: "Validate a providers file",
	Long: `Load a providers file (yaml, json or jsonc) the way oms-authenticator does at startup,
list the providers that would be served and report the ones that would be skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateProvidersFile(cmd.OutOrStdout(), args[0])
	},
}

// validateProvidersFile reports the providers of path. It fails if any provider is invalid.
func validateProvidersFile(w io.Writer, path string) error {
	set, err := config.LoadProviders(path)
	if err != nil {
		return err
	}

	for _, p := range set.Providers {
		fmt.Fprintf(w, "ok       %-16s %-10s %s (expiration %s)\n", p.Name, p.Adapter, p.URL, p.Expiration)
	}
	for _, problem := range set.Problems {
		fmt.Fprintf(w, "skipped  %s\n", problem)
	}

	if len(set.Problems) > 0 {
		return fmt.Errorf("%d of %d providers are invalid", len(set.Problems), len(set.Problems)+len(set.Providers))
	}
	return nil
}

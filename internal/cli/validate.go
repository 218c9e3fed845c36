package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typo3nix/typo3nix/internal/config"
	"github.com/typo3nix/typo3nix/internal/manifest"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a manifest file against the manifest schema",
		Long: `Validate a manifest against the embedded JSON schema. Without an argument
the configured manifest (default extensions.json) is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Get(config.KeyManifest)
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.DefaultManifestPath
			}

			result, err := manifest.ValidateFile(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Valid {
				fmt.Fprintf(out, "%s is valid.\n", path)
				return nil
			}

			for _, issue := range result.Issues {
				loc := issue.Path
				if loc == "" {
					loc = "(root)"
				}
				fmt.Fprintf(out, "  %s: %s\n", loc, issue.Message)
			}
			return fmt.Errorf("%s: %d schema violations", path, len(result.Issues))
		},
	}
}

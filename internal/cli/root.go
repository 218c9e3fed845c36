package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/typo3nix/typo3nix/internal/branding"
	"github.com/typo3nix/typo3nix/internal/config"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: branding.DisplayName() + ` pages through the TYPO3 extension repository, hashes every
extension's current release and writes a key-sorted manifest that Nix
expressions can build packages from. Hashes from the previous manifest are
reused for releases that did not change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.Load()
			if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
				viper.Set(config.KeyLogLevel, f.Value.String())
			}
			setupLogging(cmd.ErrOrStderr(), config.Get(config.KeyLogLevel))
			return nil
		},
	}
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

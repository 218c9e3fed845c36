package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/typo3nix/typo3nix/internal/branding"
	"github.com/typo3nix/typo3nix/internal/config"
	"github.com/typo3nix/typo3nix/internal/manifest"
	"github.com/typo3nix/typo3nix/internal/pipeline"
	"github.com/typo3nix/typo3nix/internal/registry"
)

var printer = message.NewPrinter(language.English)

// updateFlags maps command flags onto the config keys they override.
var updateFlags = map[string]string{
	"manifest":     config.KeyManifest,
	"per-page":     config.KeyPerPage,
	"registry-url": config.KeyRegistryURL,
	"download-url": config.KeyDownloadURL,
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the extension manifest from the registry",
		Long: `Page through the extension catalog, hash the current release of every
extension and rewrite the manifest.

Hashes are reused for extensions whose version is unchanged and whose
previous record has a hash. Credentials come from TYPO3NIX_USER and
TYPO3NIX_PASSWORD. With TYPO3NIX_TEST_MODE=1 only the first page (of one
entry) is requested and nothing is written.

Interrupting the run (Ctrl-C) finishes the downloads already scheduled and
writes what was collected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlagOverrides(cmd, updateFlags)

			cfg, err := config.Resolve()
			if err != nil {
				return err
			}

			client := newRegistryClient(cfg)

			var stop pipeline.StopFlag
			unregister := pipeline.NotifyOnSignal(&stop, cmd.ErrOrStderr(), os.Interrupt, syscall.SIGTERM)
			defer unregister()

			result, err := pipeline.Run(cmd.Context(), client, &stop, pipeline.Options{
				ManifestPath: cfg.ManifestPath,
				PerPage:      cfg.PerPage,
				TestMode:     cfg.TestMode,
				Logger:       slog.Default(),
			})
			if err != nil {
				return err
			}

			printUpdateSummary(cmd.OutOrStdout(), cfg.ManifestPath, result)
			return nil
		},
	}

	cmd.Flags().String("manifest", "", "Manifest file to read and write (default extensions.json)")
	cmd.Flags().Int("per-page", 0, "Catalog page size (default 50)")
	cmd.Flags().String("registry-url", "", "Registry API base URL")
	cmd.Flags().String("download-url", "", "Base URL extension archives are downloaded from")
	return cmd
}

// applyFlagOverrides copies explicitly set flags into viper so they take
// precedence over the environment and the config file.
func applyFlagOverrides(cmd *cobra.Command, flags map[string]string) {
	for name, key := range flags {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Changed {
			viper.Set(key, f.Value.String())
		}
	}
}

func newRegistryClient(cfg *config.Config) *registry.Client {
	return registry.New(
		registry.WithBaseURL(cfg.RegistryURL),
		registry.WithDownloadURL(cfg.DownloadURL),
		registry.WithCredentials(cfg.User, cfg.Password),
		registry.WithUserAgent(branding.CLIName()+"/"+buildVersion),
	)
}

func printUpdateSummary(w io.Writer, path string, result *pipeline.Result) {
	if result.TestMode {
		fmt.Fprintln(w, "Test mode - success")
		return
	}
	if !result.Written {
		fmt.Fprintf(w, "Manifest %s left unchanged: no catalog page was fetched\n", path)
		return
	}

	if result.Cancelled {
		printer.Fprintf(w, "Stopped early after %d of %d pages\n", result.PagesFetched, result.Pages)
	}
	printer.Fprintf(w, "Wrote %d extensions to %s (%d hashed, %d reused)\n",
		len(result.Manifest), path, result.Hashed, result.Reused)

	counts := manifest.Summarize(manifest.Diff(result.Prior, result.Manifest))
	printer.Fprintf(w, "Changes: %d added, %d removed, %d upgraded, %d downgraded, %d changed\n",
		counts[manifest.Added], counts[manifest.Removed], counts[manifest.Upgraded],
		counts[manifest.Downgraded], counts[manifest.Changed])
}

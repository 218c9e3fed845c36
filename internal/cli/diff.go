package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/typo3nix/typo3nix/internal/manifest"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show what changed between two manifests",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			after, err := manifest.Load(args[1])
			if err != nil {
				return err
			}

			printDiff(cmd.OutOrStdout(), manifest.Diff(before, after))
			return nil
		},
	}
}

func printDiff(out io.Writer, changes []manifest.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(out, "No changes.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tCHANGE\tOLD\tNEW")
	for _, c := range changes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Key, c.Kind, dash(c.OldVersion), dash(c.NewVersion))
	}
	w.Flush()

	counts := manifest.Summarize(changes)
	printer.Fprintf(out, "\n%d added, %d removed, %d upgraded, %d downgraded, %d changed\n",
		counts[manifest.Added], counts[manifest.Removed], counts[manifest.Upgraded],
		counts[manifest.Downgraded], counts[manifest.Changed])
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

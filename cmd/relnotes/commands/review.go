package commands

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcin-skalski/relnotes/internal/tui"
	"github.com/marcin-skalski/relnotes/internal/workspace"
)

var _ tui.Session = (*workspace.Workspace)(nil)

func reviewCmd() *cobra.Command {
	var draftID string
	cmd := &cobra.Command{
		Use:   "review <owner/repo>",
		Short: "Review items interactively",
		Long: `Review items interactively.

Keys: tab/1-3 switch kind, j/k move, space toggles, a/n include or exclude
every shown item, e edits the note, / searches, q quits. Every change is
saved immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("review needs an interactive terminal; use items, include, exclude, and note instead")
			}
			ctx := cmd.Context()
			w, err := appCtx.openWorkspace(ctx, args[0], draftID)
			if err != nil {
				return err
			}
			if _, err := requireDraft(w); err != nil {
				return err
			}
			return tui.Run(ctx, w)
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "draft id (default latest)")
	return cmd
}

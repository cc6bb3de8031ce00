package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/release"
)

func draftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drafts [owner/repo]",
		Short: "List stored drafts, most recently updated first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var drafts []draft.Draft
			if len(args) == 1 {
				owner, name, err := parseRepo(args[0])
				if err != nil {
					return err
				}
				drafts = appCtx.drafts.ListForRepo(ctx, owner, name)
			} else {
				drafts = appCtx.drafts.List(ctx)
			}

			out := cmd.OutOrStdout()
			if len(drafts) == 0 {
				fmt.Fprintln(out, "no drafts")
				return nil
			}
			sort.SliceStable(drafts, func(i, j int) bool {
				return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
			})

			rows := make([][]string, 0, len(drafts))
			for _, d := range drafts {
				filter := "-"
				if d.Filter != nil {
					filter = d.Filter.String()
				}
				rows = append(rows, []string{
					d.ID,
					d.Version,
					filter,
					fmt.Sprintf("%d/%d", release.CountIncluded(d.Items), len(d.Items)),
					d.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			printTable(out, []string{"ID", "VERSION", "RANGE", "INCLUDED", "UPDATED"}, rows)
			fmt.Fprintf(out, "%d drafts\n", len(drafts))
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <draft-id>",
		Short: "Delete a stored draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, ok := appCtx.drafts.Get(ctx, args[0]); !ok {
				return fmt.Errorf("draft %q not found", args[0])
			}
			appCtx.drafts.Delete(ctx, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("this removes all drafts; rerun with --yes to confirm")
			}
			appCtx.drafts.Clear(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "cleared all drafts")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal")
	return cmd
}

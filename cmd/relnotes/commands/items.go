package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/release"
	"github.com/marcin-skalski/relnotes/internal/workspace"
)

func parseKind(s string) (release.ItemKind, error) {
	switch strings.ToLower(s) {
	case "pr", "prs", "pull", "pulls":
		return release.KindPullRequest, nil
	case "issue", "issues":
		return release.KindIssue, nil
	case "commit", "commits":
		return release.KindCommit, nil
	}
	return "", fmt.Errorf("unknown kind %q (pr|issue|commit)", s)
}

func itemsCmd() *cobra.Command {
	var (
		search   string
		kindFlag string
		draftID  string
		included bool
	)
	cmd := &cobra.Command{
		Use:   "items <owner/repo>",
		Short: "Show the items of the current draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appCtx.openWorkspace(cmd.Context(), args[0], draftID)
			if err != nil {
				return err
			}
			if _, err := requireDraft(w); err != nil {
				return err
			}

			kinds := release.Kinds
			if kindFlag != "" {
				k, err := parseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = []release.ItemKind{k}
			}
			w.Search(search)

			out := cmd.OutOrStdout()
			for _, kind := range kinds {
				items := w.Items(kind)
				if included {
					items = onlyIncluded(items)
				}
				fmt.Fprintf(out, "%s (%d/%d included)\n", kind.Label(), release.CountIncluded(items), len(items))
				if len(items) == 0 {
					fmt.Fprintln(out)
					continue
				}
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, []string{
						check(it.Included),
						it.ID,
						truncate(it.Title(), titleWidth),
						it.Author(),
						strings.Join(it.Labels(), ","),
						truncate(it.Note, 40),
					})
				}
				printTable(out, []string{"", "ID", "TITLE", "AUTHOR", "LABELS", "NOTE"}, rows)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "show items matching title, author, number, or sha")
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "show one kind: pr, issue, or commit")
	cmd.Flags().BoolVar(&included, "included", false, "show included items only")
	cmd.Flags().StringVar(&draftID, "draft", "", "draft id (default latest)")
	return cmd
}

func onlyIncluded(items []release.Item) []release.Item {
	var out []release.Item
	for _, it := range items {
		if it.Included {
			out = append(out, it)
		}
	}
	return out
}

func includeCmd(include bool) *cobra.Command {
	var (
		allKind string
		draftID string
	)
	use, short, verb := "include", "Include items in the release", "included"
	if !include {
		use, short, verb = "exclude", "Exclude items from the release", "excluded"
	}
	cmd := &cobra.Command{
		Use:     use + " <owner/repo> [item-id...]",
		Short:   short,
		Example: fmt.Sprintf("  relnotes %s acme/widgets pr-42 issue-7\n  relnotes %s acme/widgets --all-kind commit", use, use),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if allKind == "" && len(args) < 2 {
				return fmt.Errorf("give item ids or --all-kind")
			}
			w, err := appCtx.openWorkspace(ctx, args[0], draftID)
			if err != nil {
				return err
			}
			if _, err := requireDraft(w); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if allKind != "" {
				kind, err := parseKind(allKind)
				if err != nil {
					return err
				}
				n, err := w.SetAll(ctx, kind, include)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %d %s\n", verb, n, strings.ToLower(kind.Label()))
			}
			for _, id := range args[1:] {
				it, err := w.UpdateItem(ctx, id, draft.ItemUpdate{Included: &include})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s %s\n", verb, it.ID, truncate(it.Title(), titleWidth))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&allKind, "all-kind", "", "apply to every item of a kind: pr, issue, or commit")
	cmd.Flags().StringVar(&draftID, "draft", "", "draft id (default latest)")
	return cmd
}

func noteCmd() *cobra.Command {
	var draftID string
	cmd := &cobra.Command{
		Use:   "note <owner/repo> <item-id> <text>",
		Short: "Attach a release note to an item; empty text clears it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := appCtx.openWorkspace(ctx, args[0], draftID)
			if err != nil {
				return err
			}
			if _, err := requireDraft(w); err != nil {
				return err
			}
			note := strings.TrimSpace(args[2])
			it, err := w.UpdateItem(ctx, args[1], draft.ItemUpdate{Note: &note})
			if err != nil {
				return err
			}
			if note == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "cleared note on %s\n", it.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "noted %s\n", it.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "draft id (default latest)")
	return cmd
}

func metaCmd() *cobra.Command {
	var (
		version     string
		title       string
		description string
		draftID     string
	)
	cmd := &cobra.Command{
		Use:   "meta <owner/repo>",
		Short: "Edit draft version, title, and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := appCtx.openWorkspace(ctx, args[0], draftID)
			if err != nil {
				return err
			}
			if _, err := requireDraft(w); err != nil {
				return err
			}

			var m workspace.Meta
			if cmd.Flags().Changed("version") {
				m.Version = &version
			}
			if cmd.Flags().Changed("title") {
				m.Title = &title
			}
			if cmd.Flags().Changed("description") {
				m.Description = &description
			}
			d, err := w.UpdateMeta(ctx, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "draft:       %s\n", d.ID)
			fmt.Fprintf(out, "version:     %s\n", d.Version)
			fmt.Fprintf(out, "title:       %s\n", d.Title)
			fmt.Fprintf(out, "description: %s\n", truncate(d.Description, titleWidth))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "release version")
	cmd.Flags().StringVar(&title, "title", "", "release title (default \"Release <version>\")")
	cmd.Flags().StringVar(&description, "description", "", "release description")
	cmd.Flags().StringVar(&draftID, "draft", "", "draft id (default latest)")
	return cmd
}

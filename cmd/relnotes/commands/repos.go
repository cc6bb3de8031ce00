package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/release"
)

func reposCmd() *cobra.Command {
	var (
		search  string
		page    int
		perPage int
	)
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "List or search repositories you can access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1")
			}
			var (
				repos   []github.Repository
				hasMore bool
				err     error
			)
			if search != "" {
				repos, err = appCtx.gh.SearchRepositories(cmd.Context(), search, page)
			} else {
				repos, hasMore, err = appCtx.gh.ListRepositories(cmd.Context(), page, perPage)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if user, err := appCtx.gh.CurrentUser(cmd.Context()); err == nil {
				fmt.Fprintf(out, "signed in as @%s\n\n", user.Login)
			} else {
				appCtx.logger.Debug("current user lookup failed", "err", err)
			}
			if len(repos) == 0 {
				fmt.Fprintln(out, "no repositories found")
				return nil
			}
			rows := make([][]string, 0, len(repos))
			for _, r := range repos {
				visibility := "public"
				if r.Private {
					visibility = "private"
				}
				rows = append(rows, []string{
					r.FullName,
					visibility,
					r.Language,
					strconv.Itoa(r.Stars),
					r.UpdatedAt.Format("2006-01-02"),
					truncate(r.Description, 50),
				})
			}
			printTable(out, []string{"REPOSITORY", "VISIBILITY", "LANGUAGE", "STARS", "UPDATED", "DESCRIPTION"}, rows)
			if hasMore {
				fmt.Fprintf(out, "more results: relnotes repos --page %d\n", page+1)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "search repositories by name")
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	cmd.Flags().IntVar(&perPage, "per-page", 30, "results per page")
	return cmd
}

func refsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refs <owner/repo>",
		Short: "Show milestones, tags, and branches of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appCtx.openWorkspace(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s (default branch %s)\n\n", w.Repository.FullName, w.Repository.DefaultBranch)

			fmt.Fprintln(out, "Milestones")
			var rows [][]string
			for _, m := range w.Milestones {
				due := "-"
				if m.DueOn != nil {
					due = m.DueOn.Format("2006-01-02")
				}
				rows = append(rows, []string{strconv.Itoa(m.Number), truncate(m.Title, titleWidth), m.State, due,
					fmt.Sprintf("%d/%d", m.ClosedIssues, m.OpenIssues+m.ClosedIssues)})
			}
			printTable(out, []string{"NUMBER", "TITLE", "STATE", "DUE", "CLOSED"}, rows)

			fmt.Fprintln(out, "Tags (newest first)")
			rows = rows[:0]
			for _, t := range w.Tags {
				rows = append(rows, []string{t.Name, release.ShortSHA(t.Commit.SHA)})
			}
			printTable(out, []string{"TAG", "COMMIT"}, rows)
			if w.SuggestedVersion != "" {
				fmt.Fprintf(out, "suggested next version: %s\n", w.SuggestedVersion)
			}

			fmt.Fprintln(out, "Branches")
			rows = rows[:0]
			for _, b := range w.Branches {
				protected := ""
				if b.Protected {
					protected = "protected"
				}
				rows = append(rows, []string{b.Name, release.ShortSHA(b.Commit.SHA), protected})
			}
			printTable(out, []string{"BRANCH", "COMMIT", ""}, rows)
			return nil
		},
	}
}

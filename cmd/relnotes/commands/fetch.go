package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/release"
	"github.com/marcin-skalski/relnotes/internal/workspace"
)

// filterFlags are the mutually exclusive range selectors of fetch.
type filterFlags struct {
	milestone int
	fromTag   string
	toTag     string
	since     string
	until     string
	base      string
	compare   string
}

// build turns the flags into a filter. lookup resolves a milestone number.
func (f filterFlags) build(lookup func(int) (github.Milestone, bool), loc *time.Location) (release.Filter, error) {
	var chosen []string
	if f.milestone != 0 {
		chosen = append(chosen, "--milestone")
	}
	if f.fromTag != "" || f.toTag != "" {
		chosen = append(chosen, "--from-tag/--to-tag")
	}
	if f.since != "" || f.until != "" {
		chosen = append(chosen, "--since/--until")
	}
	if f.base != "" || f.compare != "" {
		chosen = append(chosen, "--base/--compare")
	}
	switch len(chosen) {
	case 0:
		return release.Filter{}, fmt.Errorf("choose a range: --milestone, --from-tag, --since, or --base with --compare")
	case 1:
	default:
		return release.Filter{}, fmt.Errorf("choose one range, got %s", strings.Join(chosen, " and "))
	}

	var filter release.Filter
	switch {
	case f.milestone != 0:
		m, ok := lookup(f.milestone)
		if !ok {
			return release.Filter{}, fmt.Errorf("milestone %d not found", f.milestone)
		}
		mf := release.MilestoneFilter{ID: m.ID, Number: m.Number, Title: m.Title, DueOn: m.DueOn}
		if !m.CreatedAt.IsZero() {
			created := m.CreatedAt
			mf.CreatedAt = &created
		}
		filter = release.MilestoneOf(mf)
	case f.fromTag != "" || f.toTag != "":
		filter = release.TagsOf(f.fromTag, f.toTag)
	case f.since != "" || f.until != "":
		if f.since == "" {
			return release.Filter{}, fmt.Errorf("--until needs --since")
		}
		from, err := parseDate(f.since, loc, false)
		if err != nil {
			return release.Filter{}, fmt.Errorf("--since: %w", err)
		}
		var to *time.Time
		if f.until != "" {
			t, err := parseDate(f.until, loc, true)
			if err != nil {
				return release.Filter{}, fmt.Errorf("--until: %w", err)
			}
			if t.Before(from) {
				return release.Filter{}, fmt.Errorf("--until is before --since")
			}
			to = &t
		}
		filter = release.DatesOf(from, to)
	default:
		filter = release.BranchesOf(f.base, f.compare)
	}

	if err := filter.Validate(); err != nil {
		return release.Filter{}, err
	}
	return filter, nil
}

// parseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates in loc. A bare
// date used as an upper bound means the end of that day.
func parseDate(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339 time, got %q", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

func fetchCmd() *cobra.Command {
	var (
		flags    filterFlags
		version  string
		newDraft bool
		draftID  string
	)
	cmd := &cobra.Command{
		Use:   "fetch <owner/repo>",
		Short: "Collect pull requests, issues, and commits for a range into a draft",
		Long: `Collect merged pull requests, closed issues, and commits for one range:

  --milestone N               issues of milestone N, changes between its creation and due date
  --from-tag A [--to-tag B]   changes since tag A, up to tag B or the latest commit
  --since D [--until D]       changes in a date window (YYYY-MM-DD or RFC 3339)
  --base X --compare Y        commits on branch Y that are not on X

Pull requests and issues are included by default, commits are not. Items
already in the draft keep their notes and inclusion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := appCtx.openWorkspace(ctx, args[0], draftID)
			if err != nil {
				return err
			}

			filter, err := flags.build(w.Milestone, time.Local)
			if err != nil {
				return err
			}

			if _, ok := w.Draft(); newDraft || !ok {
				w.StartNew(version)
			}
			summary, err := w.Fetch(ctx, filter)
			if err != nil {
				return fmt.Errorf("%w\nnothing was changed; check `gh auth status` and retry", err)
			}
			if d, _ := w.Draft(); version != "" && d.Version != version {
				if _, err := w.UpdateMeta(ctx, workspace.Meta{Version: &version}); err != nil {
					return err
				}
			}

			d, _ := w.Draft()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fetched %s for %s\n", summary, filter)
			fmt.Fprintf(out, "draft %s: %d of %d items included\n", d.ID, release.CountIncluded(d.Items), len(d.Items))
			if d.Version == "" && w.SuggestedVersion != "" {
				fmt.Fprintf(out, "set a version with: relnotes meta %s --version %s\n", d.FullName(), w.SuggestedVersion)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flags.milestone, "milestone", 0, "milestone number")
	cmd.Flags().StringVar(&flags.fromTag, "from-tag", "", "start tag")
	cmd.Flags().StringVar(&flags.toTag, "to-tag", "", "end tag (default latest commit)")
	cmd.Flags().StringVar(&flags.since, "since", "", "window start date")
	cmd.Flags().StringVar(&flags.until, "until", "", "window end date (default now)")
	cmd.Flags().StringVar(&flags.base, "base", "", "base branch")
	cmd.Flags().StringVar(&flags.compare, "compare", "", "branch compared against --base")
	cmd.Flags().StringVar(&version, "version", "", "release version for the draft")
	cmd.Flags().BoolVar(&newDraft, "new", false, "start a new draft instead of updating the latest one")
	cmd.Flags().StringVar(&draftID, "draft", "", "draft id to update (default latest)")
	return cmd
}

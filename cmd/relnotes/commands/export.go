package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/relnotes/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		format  string
		outPath string
		write   bool
		copyOut bool
		draftID string
	)
	cmd := &cobra.Command{
		Use:   "export <owner/repo>",
		Short: "Render the draft's included items as Markdown or JSON",
		Long: `Render the draft's included items as Markdown, JSON, or a plain summary.

Output goes to stdout unless --out names a file or --write stores it as
release-notes-<version>.<md|json|txt> in the configured export directory. --copy also
places the result on the clipboard.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := appCtx.openWorkspace(ctx, args[0], draftID)
			if err != nil {
				return err
			}
			if _, err := requireDraft(w); err != nil {
				return err
			}
			if err := w.Proceed(ctx); err != nil {
				return err
			}
			e, err := w.Export(time.Now())
			if err != nil {
				return err
			}

			var (
				data []byte
				ext  string
			)
			switch format {
			case "md", "markdown":
				data, ext = []byte(export.ToMarkdown(e)), "md"
			case "json":
				if data, err = export.JSON(e); err != nil {
					return err
				}
				ext = "json"
			case "summary", "txt":
				data, ext = []byte(export.Summary(e)), "txt"
			default:
				return fmt.Errorf("unknown format %q (md|json|summary)", format)
			}

			out := cmd.OutOrStdout()
			switch {
			case outPath != "":
				path, err := export.WriteFile(filepath.Dir(outPath), filepath.Base(outPath), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", path)
			case write:
				path, err := export.WriteFile(appCtx.cfg.Export.Dir, export.Filename(e, ext), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", path)
			case !copyOut:
				if _, err := out.Write(data); err != nil {
					return err
				}
			}

			if copyOut {
				if err := export.Copy(string(data)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "copied to clipboard")
			}
			appCtx.logger.Info("exported release notes", "repo", args[0], "format", ext,
				"pull_requests", len(e.PullRequests), "issues", len(e.Issues), "commits", len(e.Commits))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md, json, or summary")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write release-notes-<version>.<ext> to the export directory")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the output to the clipboard")
	cmd.Flags().StringVar(&draftID, "draft", "", "draft id (default latest)")
	cmd.MarkFlagsMutuallyExclusive("out", "write")
	return cmd
}

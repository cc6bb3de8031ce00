package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/relnotes/internal/config"
	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/github"
	"github.com/marcin-skalski/relnotes/internal/logging"
	"github.com/marcin-skalski/relnotes/internal/release"
	"github.com/marcin-skalski/relnotes/internal/storage"
	"github.com/marcin-skalski/relnotes/internal/storage/bbolt"
	"github.com/marcin-skalski/relnotes/internal/storage/sqlite"
	"github.com/marcin-skalski/relnotes/internal/workspace"
)

// app holds the dependencies shared by subcommands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	gh         *github.Client
	backend    storage.Backend
	drafts     *draft.Store
	workspaces *workspace.Controller
	closers    []io.Closer
}

var (
	configPath string
	quiet      bool
	appCtx     *app
)

// commands that own the terminal and must not get log lines on stderr.
var interactive = map[string]bool{"review": true}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	err := root.ExecuteContext(ctx)
	if appCtx != nil {
		appCtx.close()
	}
	return err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "relnotes",
		Short:        "Draft release notes from GitHub pull requests, issues, and commits",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, quiet || interactive[cmd.Name()])
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "write logs to the log file only")

	root.AddCommand(
		reposCmd(),
		refsCmd(),
		fetchCmd(),
		draftsCmd(),
		itemsCmd(),
		includeCmd(true),
		includeCmd(false),
		noteCmd(),
		metaCmd(),
		reviewCmd(),
		exportCmd(),
		deleteCmd(),
		clearCmd(),
	)
	return root
}

func newApp(path string, quiet bool) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.Setup(logging.Options{
		File:  cfg.LogFile,
		Level: cfg.Log.Level,
		Quiet: quiet,
	})
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	backend, err := openBackend(cfg.Storage)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	gh := github.NewClient(logger, github.WithHost(cfg.GitHub.Host), github.WithToken(cfg.GitHub.Token))
	agg := release.NewAggregator(logger,
		release.WithPageSize(cfg.GitHub.PageSize),
		release.WithMaxPages(cfg.GitHub.MaxPages),
		release.WithCommitPageSize(cfg.GitHub.CommitPageSize),
	)
	drafts := draft.NewStore(backend, logger)
	sources := func(owner, name string) release.Source { return gh.Repo(owner, name) }

	logger.Debug("relnotes starting", "config", path, "storage", cfg.Storage.Driver, "host", cfg.GitHub.Host)
	return &app{
		cfg:        cfg,
		logger:     logger,
		gh:         gh,
		backend:    backend,
		drafts:     drafts,
		workspaces: workspace.New(gh, sources, agg, drafts, logger),
		closers:    []io.Closer{backend, logCloser},
	}, nil
}

func openBackend(cfg config.StorageConfig) (storage.Backend, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if cfg.Driver == "sqlite" {
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := bbolt.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
}

// openWorkspace parses "owner/repo" and opens its workspace, switching to
// draftID when given.
func (a *app) openWorkspace(ctx context.Context, fullName, draftID string) (*workspace.Workspace, error) {
	owner, name, err := parseRepo(fullName)
	if err != nil {
		return nil, err
	}
	w, err := a.workspaces.Open(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if draftID != "" {
		if err := w.Select(ctx, draftID); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// requireDraft returns the workspace draft or an actionable error.
func requireDraft(w *workspace.Workspace) (draft.Draft, error) {
	d, ok := w.Draft()
	if !ok {
		return draft.Draft{}, fmt.Errorf("%w %s/%s: run `relnotes fetch %s/%s` first",
			workspace.ErrNoDraft, w.Owner(), w.Name(), w.Owner(), w.Name())
	}
	return d, nil
}

var errRepoFormat = errors.New("repository must be given as owner/repo")

func parseRepo(s string) (string, string, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "https://github.com/"), ".git")
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w, got %q", errRepoFormat, s)
	}
	return owner, name, nil
}

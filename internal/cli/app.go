package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skelly-dev/srcweb/internal/config"
	"github.com/skelly-dev/srcweb/internal/languages"
	"github.com/skelly-dev/srcweb/internal/render"
	"github.com/skelly-dev/srcweb/internal/tagdb"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// app is the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfg     config.Config
	rt      config.Runtime
	logger  *log.Logger
	closers []io.Closer
}

func newApp() *app {
	return &app{v: viper.New()}
}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey, a)
}

func appFromContext(ctx context.Context) (*app, error) {
	if a, ok := ctx.Value(appKey).(*app); ok {
		return a, nil
	}
	return nil, errors.New("command run without configuration")
}

// setup loads the configuration and the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	file, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.v, file, rt)
	if err != nil {
		return err
	}
	verbose, err := OptionalBoolFlag(cmd, "verbose", false)
	if err != nil {
		return err
	}
	quiet, err := OptionalBoolFlag(cmd, "quiet", false)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.ErrOrStderr()
	plain := rt.NoColor
	if rt.LogFile != "" {
		f, err := os.OpenFile(rt.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		w = f
		plain = true
	}

	a.cfg = cfg
	a.rt = rt
	a.logger = newLogger(w, logLevel(verbose, quiet), plain)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded config", "file", used)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withApp(withLogger(ctx, a.logger), a))
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openDB opens the existing tag database.
func (a *app) openDB() (*tagdb.DB, error) {
	if _, err := os.Stat(a.cfg.DB); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tag database %s not found; run srcweb load first", a.cfg.DB)
		}
		return nil, fmt.Errorf("failed to inspect tag database: %w", err)
	}
	db, err := tagdb.Open(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag database: %w", err)
	}
	return db, nil
}

// createDB opens the tag database, creating it and its directory if needed.
func (a *app) createDB() (*tagdb.DB, error) {
	if dir := filepath.Dir(a.cfg.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := tagdb.Open(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag database: %w", err)
	}
	return db, nil
}

// rendererFactory builds renderers that share options, store and cache.
// Each goroutine needs its own Renderer.
type rendererFactory struct {
	base    render.Config
	warner  *logWarner
	records *tags.CachedStore
}

// tagSource is a tag store that also encodes paths, like *tagdb.DB.
type tagSource interface {
	tags.Store
	tags.Paths
}

func (a *app) rendererFactory(store tagSource) (*rendererFactory, error) {
	opts, err := a.cfg.RenderOptions()
	if err != nil {
		return nil, err
	}
	records := tags.NewCachedStore(store, a.rt.CacheTTL)
	warner := newLogWarner(a.logger)
	return &rendererFactory{
		base: render.Config{
			Options:    opts,
			Vocabulary: a.cfg.MarkupVocabulary(),
			Store:      store,
			Records:    records,
			Paths:      store,
			Warner:     warner,
		},
		warner:  warner,
		records: records,
	}, nil
}

func (f *rendererFactory) build() (*render.Renderer, error) {
	cfg := f.base
	cfg.Registry = languages.NewDefaultRegistry()
	return render.New(cfg)
}

// pagePath returns the page of src relative to the output directory.
func pagePath(paths tags.Paths, src, suffix string) (string, error) {
	id, ok := paths.PathToID(src)
	if !ok {
		return "", fmt.Errorf("%s is not in the tag database", tags.DisplayPath(tags.NormalizePath(src)))
	}
	return path.Join("S", id+"."+suffix), nil
}

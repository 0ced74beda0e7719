package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skelly-dev/srcweb/internal/config"
	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/ignore"
	"github.com/skelly-dev/srcweb/internal/languages"
	"github.com/skelly-dev/srcweb/internal/parser"
	"github.com/skelly-dev/srcweb/internal/render"
	"github.com/skelly-dev/srcweb/internal/state"
	"github.com/skelly-dev/srcweb/internal/tagdb"
)

// treeOptions are the knobs of one tree render.
type treeOptions struct {
	root     string
	outDir   string
	jobs     int
	force    bool
	all      bool
	asJSON   bool
	quiet    bool
	progress io.Writer
}

func RunRenderTree(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	opts := treeOptions{root: root, jobs: a.cfg.Jobs, progress: cmd.ErrOrStderr()}
	if opts.outDir, err = outputDir(cmd, a.cfg.Output); err != nil {
		return err
	}
	if !filepath.IsAbs(opts.outDir) {
		opts.outDir = filepath.Join(root, opts.outDir)
	}
	for name, dst := range map[string]*bool{"force": &opts.force, "all": &opts.all, "json": &opts.asJSON, "quiet": &opts.quiet} {
		if *dst, err = OptionalBoolFlag(cmd, name, false); err != nil {
			return err
		}
	}

	summary, err := renderTree(cmd, a, opts)
	if err != nil {
		return err
	}
	return PrintRunSummary(cmd.OutOrStdout(), summary, opts.asJSON)
}

// walkTree lists the files to render, skipping the output directory when it
// lies inside the tree.
func walkTree(opts treeOptions) (*parser.WalkResult, error) {
	rules, err := ignore.LoadRules(opts.root)
	if err != nil {
		return nil, err
	}
	if rel, err := filepath.Rel(opts.root, opts.outDir); err == nil && rel != "." && !strings.HasPrefix(filepath.ToSlash(rel), "../") {
		rules = append(rules, "/"+filepath.ToSlash(rel)+"/")
	}
	registry := languages.NewDefaultRegistry()
	walk, err := registry.WalkDirectory(opts.root, rules, opts.all)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", opts.root, err)
	}
	return walk, nil
}

// fingerprint identifies everything besides the sources that shapes a page.
func fingerprint(ctx context.Context, cfg config.Config, ropts render.Options, db *tagdb.DB) (string, error) {
	// where and how fast pages are written does not change them
	cfg.DB, cfg.Output, cfg.Jobs = "", "", 0
	data, err := config.Marshal(cfg)
	if err != nil {
		return "", err
	}
	gen, err := db.Generation(ctx)
	if err != nil {
		return "", err
	}
	parts := []string{string(data), ropts.HeaderHTML, ropts.FooterHTML, gen.ID}
	return fileutil.HashBytes([]byte(strings.Join(parts, "\x00"))), nil
}

func renderTree(cmd *cobra.Command, a *app, opts treeOptions) (RunSummary, error) {
	start := time.Now()
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	runID := uuid.NewString()
	logger.Debug("render-tree", "run", runID, "root", opts.root, "output", opts.outDir, "jobs", opts.jobs)

	walk, err := walkTree(opts)
	if err != nil {
		return RunSummary{}, err
	}
	for _, issue := range walk.Issues {
		logger.Warn("skipped", "file", issue.File, "reason", issue.Message)
	}

	db, err := a.openDB()
	if err != nil {
		return RunSummary{}, err
	}
	defer db.Close()
	factory, err := a.rendererFactory(db)
	if err != nil {
		return RunSummary{}, err
	}
	fp, err := fingerprint(ctx, a.cfg, factory.base.Options, db)
	if err != nil {
		return RunSummary{}, err
	}

	st, err := state.Load(opts.outDir)
	if err != nil {
		if !state.IsCorrupt(err) {
			return RunSummary{}, fmt.Errorf("failed to load state: %w", err)
		}
		logger.Warn("corrupt state file; rendering every file", "err", err)
		st = state.NewState()
	}
	if opts.force || st.Fingerprint != fp {
		if st.Fingerprint != "" && st.Fingerprint != fp {
			logger.Info("configuration or tag database changed; rendering every file")
		}
		st.Reset(fp)
	}

	summary := RunSummary{
		RunID:     runID,
		Mode:      "render-tree",
		RootPath:  opts.root,
		OutputDir: opts.outDir,
		Scanned:   len(walk.Files),
	}

	indexed := make([]string, 0, len(walk.Files))
	todo := make([]parser.SourceFile, 0)
	for _, sf := range walk.Files {
		if _, ok := db.PathToID(sf.Path); !ok {
			summary.SkippedFiles = append(summary.SkippedFiles, sf.Path)
			continue
		}
		indexed = append(indexed, sf.Path)
		if st.HasChanged(sf.Path, sf.Hash) {
			todo = append(todo, sf)
		}
	}
	if len(summary.SkippedFiles) > 0 {
		logger.Debug("files missing from the tag database", "count", len(summary.SkippedFiles))
	}

	for _, file := range st.DeletedFiles(fileutil.ToSet(indexed)) {
		if page := st.Files[file].Page; page != "" {
			err := os.Remove(filepath.Join(opts.outDir, filepath.FromSlash(page)))
			if err != nil && !os.IsNotExist(err) {
				return RunSummary{}, fmt.Errorf("failed to remove page of %s: %w", file, err)
			}
		}
		st.RemoveFile(file)
		summary.DeletedFiles = append(summary.DeletedFiles, file)
	}

	results, renderErr := renderFiles(ctx, factory, db, todo, opts, a.cfg.MarkupVocabulary().Suffix)
	for i, res := range results {
		if res.Page == "" {
			continue
		}
		sf := todo[i]
		st.SetFile(sf.Path, state.FileState{
			Hash:     sf.Hash,
			Language: res.Language,
			Page:     res.Page,
			Lines:    res.Lines,
			Links:    res.Links,
			Warnings: res.Warnings,
		})
		summary.RenderedFiles = append(summary.RenderedFiles, sf.Path)
		summary.Lines += res.Lines
		summary.Links += res.Links
		summary.Warnings += res.Warnings
		summary.Bytes += int64(res.Bytes)
		if res.Written {
			summary.Rewritten++
		}
	}
	if err := st.Save(opts.outDir); err != nil {
		return RunSummary{}, fmt.Errorf("failed to persist state: %w", err)
	}
	if renderErr != nil {
		return RunSummary{}, renderErr
	}

	summary.Rendered = len(summary.RenderedFiles)
	summary.Reused = len(indexed) - summary.Rendered
	summary.Skipped = len(summary.SkippedFiles)
	summary.Deleted = len(summary.DeletedFiles)
	summary.CacheHits, summary.CacheMisses = factory.records.Stats()
	summary.DurationMS = time.Since(start).Milliseconds()
	return summary, nil
}

// renderFiles renders todo with opts.jobs workers, each owning a renderer.
// results[i] has an empty Page when todo[i] was not rendered.
func renderFiles(ctx context.Context, factory *rendererFactory, db *tagdb.DB, todo []parser.SourceFile, opts treeOptions, suffix string) ([]pageResult, error) {
	results := make([]pageResult, len(todo))
	if len(todo) == 0 {
		return results, nil
	}
	reporter := newRenderProgressReporter(opts.progress, "render-tree", len(todo), opts.asJSON || opts.quiet)
	defer reporter.Done()

	g, gctx := errgroup.WithContext(ctx)
	work := make(chan int)
	g.Go(func() error {
		defer close(work)
		for i := range todo {
			select {
			case work <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range min(opts.jobs, len(todo)) {
		g.Go(func() error {
			r, err := factory.build()
			if err != nil {
				return err
			}
			for i := range work {
				sf := todo[i]
				abs := filepath.Join(opts.root, filepath.FromSlash(sf.Path))
				res, err := renderPage(gctx, r, db, abs, sf.Path, opts.outDir, suffix, sf.Language == "")
				if err != nil {
					return fmt.Errorf("render %s: %w", sf.Path, err)
				}
				results[i] = res
				reporter.Update(sf.Path)
			}
			return nil
		})
	}
	return results, g.Wait()
}

package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/render"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// pageResult is one rendered page.
type pageResult struct {
	render.Result
	Page    string `json:"page"`
	Written bool   `json:"written"`
	Bytes   int    `json:"bytes"`
}

// renderPage renders the file at abs, known to the tag database as rel, into
// its page under outDir. Unchanged pages are not rewritten.
func renderPage(ctx context.Context, r *render.Renderer, paths tags.Paths, abs, rel, outDir, suffix string, notSource bool) (pageResult, error) {
	page, err := pagePath(paths, rel, suffix)
	if err != nil {
		return pageResult{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return pageResult{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	res, err := r.RenderFile(ctx, rel, f, &buf, notSource)
	if err != nil {
		return pageResult{}, err
	}

	dst := filepath.Join(outDir, filepath.FromSlash(page))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return pageResult{}, fmt.Errorf("failed to create page directory: %w", err)
	}
	written, err := fileutil.WriteIfChangedTracked(dst, buf.Bytes())
	if err != nil {
		return pageResult{}, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return pageResult{Result: res, Page: page, Written: written, Bytes: buf.Len()}, nil
}

func RunRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := appFromContext(ctx)
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
	toStdout, err := OptionalBoolFlag(cmd, "stdout", false)
	if err != nil {
		return err
	}
	notSource, err := OptionalBoolFlag(cmd, "not-source", false)
	if err != nil {
		return err
	}
	outDir, err := outputDir(cmd, a.cfg.Output)
	if err != nil {
		return err
	}
	root, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	factory, err := a.rendererFactory(db)
	if err != nil {
		return err
	}
	r, err := factory.build()
	if err != nil {
		return err
	}
	suffix := a.cfg.MarkupVocabulary().Suffix

	for _, name := range args {
		rel := relativeTo(root, name)
		if toStdout {
			f, err := os.Open(name)
			if err != nil {
				return fmt.Errorf("failed to open source: %w", err)
			}
			res, err := r.RenderFile(ctx, rel, f, cmd.OutOrStdout(), notSource)
			f.Close()
			if err != nil {
				return err
			}
			logger.Debug("rendered", "file", res.Path, "lines", res.Lines, "links", res.Links)
			continue
		}

		res, err := renderPage(ctx, r, db, name, rel, outDir, suffix, notSource)
		if err != nil {
			return err
		}
		logger.Info("rendered", "file", res.Path, "page", filepath.Join(outDir, res.Page),
			"lines", res.Lines, "links", res.Links, "warnings", res.Warnings, "unchanged", !res.Written)
	}
	return nil
}

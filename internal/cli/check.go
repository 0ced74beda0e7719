package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

// ErrPageDiffers is returned by check when the page on disk is stale.
var ErrPageDiffers = errors.New("page differs from a fresh render")

// lineDiff diffs a and b line by line.
func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

// writeLineDiff prints the changed lines of diffs with their line numbers in
// the old and new text. It reports whether anything changed.
func writeLineDiff(w io.Writer, diffs []diffmatchpatch.Diff) bool {
	changed := false
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		lines := strings.SplitAfter(d.Text, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldLine += len(lines)
			newLine += len(lines)
		case diffmatchpatch.DiffDelete:
			changed = true
			fmt.Fprintf(w, "@@ -%d,%d @@\n", oldLine, len(lines))
			for _, l := range lines {
				fmt.Fprintf(w, "-%s\n", strings.TrimSuffix(l, "\n"))
			}
			oldLine += len(lines)
		case diffmatchpatch.DiffInsert:
			changed = true
			fmt.Fprintf(w, "@@ +%d,%d @@\n", newLine, len(lines))
			for _, l := range lines {
				fmt.Fprintf(w, "+%s\n", strings.TrimSuffix(l, "\n"))
			}
			newLine += len(lines)
		}
	}
	return changed
}

// RunCheck renders one file in memory and compares it with its page.
func RunCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := appFromContext(ctx)
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
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

	rel := relativeTo(root, args[0])
	page, err := pagePath(db, rel, a.cfg.MarkupVocabulary().Suffix)
	if err != nil {
		return err
	}
	dst := filepath.Join(outDir, filepath.FromSlash(page))
	existing, err := os.ReadFile(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s has not been rendered: %w", rel, ErrPageDiffers)
		}
		return fmt.Errorf("failed to read page: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()
	var fresh bytes.Buffer
	if _, err := r.RenderFile(ctx, rel, f, &fresh, notSource); err != nil {
		return err
	}

	if !writeLineDiff(cmd.OutOrStdout(), lineDiff(string(existing), fresh.String())) {
		logger.Info("page is current", "file", rel, "page", dst)
		return nil
	}
	return fmt.Errorf("%s: %w", dst, ErrPageDiffers)
}

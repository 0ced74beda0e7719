package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/skelly-dev/srcweb/internal/tagdb"
)

// RunLoad reads indexer facts into the tag database. Without --append the
// database is replaced, atomically across all inputs.
func RunLoad(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	appendFacts, err := OptionalBoolFlag(cmd, "append", false)
	if err != nil {
		return err
	}
	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	// A newline between inputs keeps a missing final newline from joining
	// two records.
	readers := make([]io.Reader, 0, 2*len(args))
	for i, name := range args {
		if i > 0 {
			readers = append(readers, strings.NewReader("\n"))
		}
		if name == "-" {
			readers = append(readers, cmd.InOrStdin())
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open facts: %w", err)
		}
		defer f.Close()
		readers = append(readers, f)
	}

	db, err := a.createDB()
	if err != nil {
		return err
	}
	defer db.Close()

	in := io.MultiReader(readers...)
	var stats tagdb.LoadStats
	if appendFacts {
		stats, err = db.Load(cmd.Context(), in)
	} else {
		stats, err = db.Replace(cmd.Context(), in)
	}
	if err != nil {
		return err
	}

	total, err := db.Stats(cmd.Context())
	if err != nil {
		return err
	}
	logger.Debug("tag database", "paths", total.Paths, "definitions", total.Definitions,
		"references", total.References, "symbols", total.Symbols, "includes", total.Includes)
	prog.done(fmt.Sprintf("Loaded %s facts and %s paths into %s",
		humanize.Comma(int64(stats.Facts)), humanize.Comma(int64(stats.Paths)), db.Path()))
	return nil
}

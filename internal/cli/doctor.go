package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/ignore"
	"github.com/skelly-dev/srcweb/internal/languages"
	"github.com/skelly-dev/srcweb/internal/state"
)

func RunDoctor(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	rootPath, err := resolveRoot(args)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	outDir := a.cfg.Output
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(rootPath, outDir)
	}

	summary := DoctorSummary{
		Mode:       "doctor",
		RootPath:   rootPath,
		ConfigFile: a.v.ConfigFileUsed(),
		Database:   a.cfg.DB,
		OutputDir:  outDir,
		Extensions: languages.NewDefaultRegistry().SupportedExtensions(),
	}
	if summary.ConfigFile == "" {
		summary.Suggestions = append(summary.Suggestions, "run srcweb config init")
	}

	hasDB := false
	if _, err := os.Stat(a.cfg.DB); err != nil {
		summary.Missing = append(summary.Missing, "tag database")
		summary.Suggestions = append(summary.Suggestions, "run srcweb load <facts.jsonl>")
	} else {
		hasDB = true
	}

	if _, err := os.Stat(filepath.Join(outDir, state.StateFile)); err != nil {
		summary.Missing = append(summary.Missing, state.StateFile)
		summary.Suggestions = append(summary.Suggestions, "run srcweb render-tree")
	}

	if hasDB {
		db, err := a.openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if stats.Paths == 0 {
			summary.Missing = append(summary.Missing, "tagged files")
			summary.Suggestions = append(summary.Suggestions, "run srcweb load <facts.jsonl>")
		}

		tc, err := inspectTree(cmd, a, db, treeOptions{root: rootPath, outDir: outDir})
		if err != nil {
			return err
		}
		summary.Changed = len(tc.changed)
		summary.Deleted = len(tc.deleted)
		summary.Unindexed = len(tc.unindexed)
		summary.Clean = summary.Changed == 0 && summary.Deleted == 0
		if !summary.Clean {
			summary.Suggestions = append(summary.Suggestions, "run srcweb render-tree")
		}
		if summary.Unindexed > 0 {
			summary.Suggestions = append(summary.Suggestions,
				fmt.Sprintf("re-run the indexer or list untagged files in %s (%s)", ignore.FileName, SummarizePaths(tc.unindexed, 3)))
		}
	}

	summary.Missing = fileutil.DedupeStrings(summary.Missing)
	sort.Strings(summary.Missing)
	summary.Suggestions = fileutil.DedupeStrings(summary.Suggestions)
	sort.Strings(summary.Suggestions)
	summary.Healthy = hasDB && summary.Clean && len(summary.Missing) == 0

	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Fprintf(out, "doctor: %s\n", status)
	config := summary.ConfigFile
	if config == "" {
		config = "(defaults)"
	}
	fmt.Fprintf(out, "config: %s\n", config)
	fmt.Fprintf(out, "sources: %d extensions (%s)\n", len(summary.Extensions), SummarizePaths(summary.Extensions, 6))
	fmt.Fprintf(out, "pages: output=%s clean=%t changed=%d deleted=%d unindexed=%d\n",
		summary.OutputDir, summary.Clean, summary.Changed, summary.Deleted, summary.Unindexed)
	if len(summary.Missing) > 0 {
		fmt.Fprintf(out, "missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Fprintf(out, "next: %s\n", suggestion)
	}
	return nil
}

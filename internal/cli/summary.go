package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/tagdb"
)

type RunSummary struct {
	RunID         string   `json:"run_id"`
	Mode          string   `json:"mode"`
	RootPath      string   `json:"root_path"`
	OutputDir     string   `json:"output_dir,omitempty"`
	Scanned       int      `json:"scanned"`
	Rendered      int      `json:"rendered"`
	Reused        int      `json:"reused"`
	Rewritten     int      `json:"rewritten"`
	Skipped       int      `json:"skipped"`
	Deleted       int      `json:"deleted"`
	Lines         int      `json:"lines"`
	Links         int      `json:"links"`
	Warnings      int      `json:"warnings"`
	Bytes         int64    `json:"bytes"`
	CacheHits     int64    `json:"cache_hits"`
	CacheMisses   int64    `json:"cache_misses"`
	DurationMS    int64    `json:"duration_ms"`
	RenderedFiles []string `json:"rendered_files,omitempty"`
	SkippedFiles  []string `json:"skipped_files,omitempty"`
	DeletedFiles  []string `json:"deleted_files,omitempty"`
}

type StatusSummary struct {
	Mode         string      `json:"mode"`
	RootPath     string      `json:"root_path"`
	Database     string      `json:"database"`
	DatabaseSize int64       `json:"database_size"`
	LoadedAt     time.Time   `json:"loaded_at"`
	Tags         tagdb.Stats `json:"tags"`
	OutputDir    string      `json:"output_dir"`
	Tracked      int         `json:"tracked"`
	Changed      int         `json:"changed"`
	Deleted      int         `json:"deleted"`
	ChangedFiles []string    `json:"changed_files,omitempty"`
	DeletedFiles []string    `json:"deleted_files,omitempty"`
}

type DoctorSummary struct {
	Mode        string   `json:"mode"`
	RootPath    string   `json:"root_path"`
	ConfigFile  string   `json:"config_file,omitempty"`
	Database    string   `json:"database"`
	OutputDir   string   `json:"output_dir"`
	Healthy     bool     `json:"healthy"`
	Clean       bool     `json:"clean"`
	Changed     int      `json:"changed"`
	Deleted     int      `json:"deleted"`
	Unindexed   int      `json:"unindexed"`
	Extensions  []string `json:"extensions"`
	Missing     []string `json:"missing,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func PrintRunSummary(w io.Writer, summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	elapsed := time.Duration(summary.DurationMS) * time.Millisecond
	fmt.Fprintf(w, "%s complete in %s (run %s)\n", summary.Mode, elapsed, summary.RunID)
	if summary.OutputDir != "" {
		fmt.Fprintf(w, "output: %s (%s written)\n", summary.OutputDir, humanize.Bytes(uint64(summary.Bytes)))
	}
	fmt.Fprintf(w, "files: scanned=%s rendered=%s reused=%s skipped=%s deleted=%s\n",
		humanize.Comma(int64(summary.Scanned)),
		humanize.Comma(int64(summary.Rendered)),
		humanize.Comma(int64(summary.Reused)),
		humanize.Comma(int64(summary.Skipped)),
		humanize.Comma(int64(summary.Deleted)),
	)
	fmt.Fprintf(w, "pages: rewritten=%s lines=%s links=%s warnings=%s\n",
		humanize.Comma(int64(summary.Rewritten)),
		humanize.Comma(int64(summary.Lines)),
		humanize.Comma(int64(summary.Links)),
		humanize.Comma(int64(summary.Warnings)),
	)
	if lookups := summary.CacheHits + summary.CacheMisses; lookups > 0 {
		fmt.Fprintf(w, "tag cache: %s lookups, %s hit\n",
			humanize.Comma(lookups),
			humanize.FtoaWithDigits(100*float64(summary.CacheHits)/float64(lookups), 1)+"%",
		)
	}
	if len(summary.RenderedFiles) > 0 {
		fmt.Fprintf(w, "rendered files (%d): %s\n", len(summary.RenderedFiles), SummarizePaths(summary.RenderedFiles, 8))
	}
	if len(summary.SkippedFiles) > 0 {
		fmt.Fprintf(w, "skipped files (%d): %s\n", len(summary.SkippedFiles), SummarizePaths(summary.SkippedFiles, 8))
	}
	if len(summary.DeletedFiles) > 0 {
		fmt.Fprintf(w, "deleted files (%d): %s\n", len(summary.DeletedFiles), SummarizePaths(summary.DeletedFiles, 8))
	}
	return nil
}

func PrintStatusSummary(w io.Writer, summary StatusSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	fmt.Fprintf(w, "database: %s (%s, loaded %s)\n",
		summary.Database,
		humanize.Bytes(uint64(summary.DatabaseSize)),
		humanize.Time(summary.LoadedAt),
	)
	fmt.Fprintf(w, "tags: paths=%s definitions=%s references=%s symbols=%s includes=%s\n",
		humanize.Comma(int64(summary.Tags.Paths)),
		humanize.Comma(int64(summary.Tags.Definitions)),
		humanize.Comma(int64(summary.Tags.References)),
		humanize.Comma(int64(summary.Tags.Symbols)),
		humanize.Comma(int64(summary.Tags.Includes)),
	)
	fmt.Fprintf(w, "output: %s tracked=%d changed=%d deleted=%d\n",
		summary.OutputDir, summary.Tracked, summary.Changed, summary.Deleted)
	if len(summary.ChangedFiles) > 0 {
		fmt.Fprintf(w, "changed files (%d): %s\n", len(summary.ChangedFiles), SummarizePaths(summary.ChangedFiles, 8))
	}
	if len(summary.DeletedFiles) > 0 {
		fmt.Fprintf(w, "deleted files (%d): %s\n", len(summary.DeletedFiles), SummarizePaths(summary.DeletedFiles, 8))
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}

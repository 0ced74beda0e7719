package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/state"
	"github.com/skelly-dev/srcweb/internal/tagdb"
)

// treeChanges is what a render-tree run would do, without doing it.
type treeChanges struct {
	tracked   int
	stale     bool
	indexed   []string
	unindexed []string
	changed   []string
	deleted   []string
}

func inspectTree(cmd *cobra.Command, a *app, db *tagdb.DB, opts treeOptions) (treeChanges, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	walk, err := walkTree(opts)
	if err != nil {
		return treeChanges{}, err
	}
	ropts, err := a.cfg.RenderOptions()
	if err != nil {
		return treeChanges{}, err
	}
	fp, err := fingerprint(ctx, a.cfg, ropts, db)
	if err != nil {
		return treeChanges{}, err
	}
	st, err := state.Load(opts.outDir)
	if err != nil {
		if !state.IsCorrupt(err) {
			return treeChanges{}, fmt.Errorf("failed to load state: %w", err)
		}
		logger.Warn("corrupt state file; treating all files as changed", "err", err)
		st = state.NewState()
	}

	var tc treeChanges
	tc.tracked = len(st.Files)
	if st.Fingerprint != fp {
		tc.stale = len(st.Files) > 0
		st.Reset(fp)
	}
	hashes := make(map[string]string, len(walk.Files))
	for _, sf := range walk.Files {
		if _, ok := db.PathToID(sf.Path); !ok {
			tc.unindexed = append(tc.unindexed, sf.Path)
			continue
		}
		tc.indexed = append(tc.indexed, sf.Path)
		hashes[sf.Path] = sf.Hash
	}
	tc.changed = st.ChangedFiles(hashes)
	tc.deleted = st.DeletedFiles(fileutil.ToSet(tc.indexed))
	return tc, nil
}

func RunStatus(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	all, err := OptionalBoolFlag(cmd, "all", false)
	if err != nil {
		return err
	}
	opts := treeOptions{root: root, all: all}
	if opts.outDir, err = outputDir(cmd, a.cfg.Output); err != nil {
		return err
	}
	if !filepath.IsAbs(opts.outDir) {
		opts.outDir = filepath.Join(root, opts.outDir)
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	stats, err := db.Stats(cmd.Context())
	if err != nil {
		return err
	}
	gen, err := db.Generation(cmd.Context())
	if err != nil {
		return err
	}
	info, err := os.Stat(a.cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to inspect tag database: %w", err)
	}

	tc, err := inspectTree(cmd, a, db, opts)
	if err != nil {
		return err
	}
	if tc.stale {
		loggerFromContext(cmd.Context()).Info("configuration or tag database changed since the last render")
	}

	summary := StatusSummary{
		Mode:         "status",
		RootPath:     root,
		Database:     a.cfg.DB,
		DatabaseSize: info.Size(),
		LoadedAt:     gen.LoadedAt,
		Tags:         stats,
		OutputDir:    opts.outDir,
		Tracked:      tc.tracked,
		Changed:      len(tc.changed),
		Deleted:      len(tc.deleted),
		ChangedFiles: tc.changed,
		DeletedFiles: tc.deleted,
	}
	return PrintStatusSummary(cmd.OutOrStdout(), summary, asJSON)
}

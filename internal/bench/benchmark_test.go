package bench

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/languages"
	"github.com/skelly-dev/srcweb/internal/markup"
	"github.com/skelly-dev/srcweb/internal/render"
	"github.com/skelly-dev/srcweb/internal/tagdb"
	"github.com/skelly-dev/srcweb/internal/tags"
)

func BenchmarkWalkAndRender_MediumRepo(b *testing.B) {
	root := b.TempDir()
	facts := createSyntheticGoRepo(b, root, 250)
	db := loadFacts(b, facts)

	registry := languages.NewDefaultRegistry()
	r := newRenderer(b, db, tags.NewCachedStore(db, 0))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		walk, err := registry.WalkDirectory(root, nil, false)
		if err != nil {
			b.Fatalf("walk failed: %v", err)
		}
		for _, sf := range walk.Files {
			f, err := os.Open(filepath.Join(root, sf.Path))
			if err != nil {
				b.Fatalf("open failed: %v", err)
			}
			if _, err := r.RenderFile(ctx, sf.Path, f, io.Discard, false); err != nil {
				b.Fatalf("render %s failed: %v", sf.Path, err)
			}
			f.Close()
		}
	}
}

func BenchmarkRenderFile_Uncached(b *testing.B) {
	root := b.TempDir()
	facts := createSyntheticGoRepo(b, root, 10)
	db := loadFacts(b, facts)
	src, err := os.ReadFile(filepath.Join(root, "pkg0", "file_000.go"))
	if err != nil {
		b.Fatalf("read failed: %v", err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// a fresh cache per iteration measures the database lookups
		r := newRenderer(b, db, tags.NewCachedStore(db, 0))
		if _, err := r.RenderFile(ctx, "pkg0/file_000.go", bytes.NewReader(src), io.Discard, false); err != nil {
			b.Fatalf("render failed: %v", err)
		}
	}
}

func newRenderer(tb testing.TB, db *tagdb.DB, records tags.Records) *render.Renderer {
	tb.Helper()
	r, err := render.New(render.Config{
		Options:    render.DefaultOptions(),
		Vocabulary: markup.Default(),
		Store:      db,
		Records:    records,
		Paths:      db,
		Registry:   languages.NewDefaultRegistry(),
	})
	if err != nil {
		tb.Fatalf("renderer: %v", err)
	}
	return r
}

func loadFacts(tb testing.TB, facts []tags.Fact) *tagdb.DB {
	tb.Helper()
	db, err := tagdb.OpenMemory()
	if err != nil {
		tb.Fatalf("open failed: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	data, err := fileutil.EncodeJSONL(facts)
	if err != nil {
		tb.Fatalf("encode failed: %v", err)
	}
	if _, err := db.Load(context.Background(), bytes.NewReader(data)); err != nil {
		tb.Fatalf("load failed: %v", err)
	}
	return db
}

// createSyntheticGoRepo writes files that call each other and returns the
// facts an indexer would report for them.
func createSyntheticGoRepo(tb testing.TB, root string, files int) []tags.Fact {
	tb.Helper()

	facts := make([]tags.Fact, 0, 5*files)
	for i := 0; i < files; i++ {
		dir := fmt.Sprintf("pkg%d", i%10)
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			tb.Fatalf("mkdir failed: %v", err)
		}

		rel := filepath.ToSlash(filepath.Join(dir, fmt.Sprintf("file_%03d.go", i)))
		src := fmt.Sprintf(`package pkg%d

func Func%d() int {
	return helper%d() + shared()
}

func helper%d() int {
	return %d
}
`, i%10, i, i, i, i)

		if err := os.WriteFile(filepath.Join(root, rel), []byte(src), 0o644); err != nil {
			tb.Fatalf("write failed: %v", err)
		}
		facts = append(facts,
			tags.Fact{Kind: tags.FactDefinition, Name: fmt.Sprintf("Func%d", i), Path: rel, Line: 3},
			tags.Fact{Kind: tags.FactReference, Name: fmt.Sprintf("helper%d", i), Path: rel, Line: 4},
			tags.Fact{Kind: tags.FactReference, Name: "shared", Path: rel, Line: 4},
			tags.Fact{Kind: tags.FactDefinition, Name: fmt.Sprintf("helper%d", i), Path: rel, Line: 7},
		)
	}
	return facts
}

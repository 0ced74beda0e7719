package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/state"
	"github.com/skelly-dev/srcweb/internal/tagdb"
	"github.com/skelly-dev/srcweb/internal/tags"
)

var treeFacts = []tags.Fact{
	{Kind: tags.FactDefinition, Name: "main", Path: "src/main.c", Line: 2},
	{Kind: tags.FactReference, Name: "helper", Path: "src/main.c", Line: 3},
	{Kind: tags.FactInclude, Target: "lib.h", Path: "src/main.c", Line: 1},
	{Kind: tags.FactDefinition, Name: "helper", Path: "src/lib.c", Line: 1},
	{Kind: tags.FactSymbol, Name: "helper", Path: "src/lib.h", Line: 1},
	{Kind: tags.FactSymbol, Name: "todo", Path: "notes.txt", Line: 1},
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupTree writes a small C tree with its facts and makes it the working
// directory. Config lookups never leave the test's temp dirs.
func setupTree(t *testing.T) string {
	t.Helper()
	t.Setenv("SRCWEB_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src/main.c"), "#include \"lib.h\"\nint main(void) {\n\treturn helper();\n}\n")
	mustWriteFile(t, filepath.Join(root, "src/lib.c"), "int helper(void) {\n\treturn 1;\n}\n")
	mustWriteFile(t, filepath.Join(root, "src/lib.h"), "int helper(void);\n")
	mustWriteFile(t, filepath.Join(root, "notes.txt"), "todo: more <tests>\n")

	data, err := fileutil.EncodeJSONL(treeFacts)
	require.NoError(t, err)
	mustWriteFile(t, filepath.Join(root, "facts.jsonl"), string(data))

	t.Chdir(root)
	return root
}

// runCLI executes one command line and returns stdout and the log output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), logs.String(), err
}

func runTree(t *testing.T, args ...string) RunSummary {
	t.Helper()
	out, logs, err := runCLI(t, append([]string{"render-tree", "--json"}, args...)...)
	require.NoError(t, err, logs)
	var summary RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	return summary
}

func fileID(t *testing.T, root, p string) string {
	t.Helper()
	db, err := tagdb.Open(filepath.Join(root, ".srcweb", "tags.db"))
	require.NoError(t, err)
	defer db.Close()
	id, ok := db.PathToID(p)
	require.True(t, ok, p)
	return id
}

func TestLoadRenderTreeIncremental(t *testing.T) {
	root := setupTree(t)

	_, logs, err := runCLI(t, "load", "facts.jsonl")
	require.NoError(t, err, logs)
	assert.Contains(t, logs, "Loaded 6 facts")
	assert.FileExists(t, filepath.Join(root, ".srcweb", "tags.db"))

	first := runTree(t)
	_, err = uuid.Parse(first.RunID)
	require.NoError(t, err)
	assert.Equal(t, "render-tree", first.Mode)
	assert.Equal(t, 3, first.Scanned)
	assert.Equal(t, []string{"src/lib.c", "src/lib.h", "src/main.c"}, first.RenderedFiles)
	assert.Equal(t, 3, first.Rewritten)
	assert.Zero(t, first.Skipped)
	assert.Positive(t, first.Bytes)

	mainPage := filepath.Join(root, "HTML", "S", fileID(t, root, "src/main.c")+".html")
	page, err := os.ReadFile(mainPage)
	require.NoError(t, err)
	assert.Contains(t, string(page), "href='../S/"+fileID(t, root, "src/lib.c")+".html#L1'")
	assert.FileExists(t, filepath.Join(root, "HTML", state.StateFile))

	second := runTree(t)
	assert.Empty(t, second.RenderedFiles)
	assert.Equal(t, 3, second.Reused)

	mustWriteFile(t, filepath.Join(root, "src/lib.c"), "int helper(void) {\n\treturn 2;\n}\n")
	third := runTree(t)
	assert.Equal(t, []string{"src/lib.c"}, third.RenderedFiles)

	libh := filepath.Join(root, "HTML", "S", fileID(t, root, "src/lib.h")+".html")
	assert.FileExists(t, libh)
	require.NoError(t, os.Remove(filepath.Join(root, "src/lib.h")))
	fourth := runTree(t)
	assert.Equal(t, []string{"src/lib.h"}, fourth.DeletedFiles)
	assert.NoFileExists(t, libh)

	forced := runTree(t, "--force")
	assert.Equal(t, []string{"src/lib.c", "src/main.c"}, forced.RenderedFiles)
	assert.Zero(t, forced.Rewritten)
}

func TestRenderTreeAllRendersPlainText(t *testing.T) {
	root := setupTree(t)
	_, logs, err := runCLI(t, "load", "facts.jsonl")
	require.NoError(t, err, logs)

	summary := runTree(t, "--all", "-j", "2")
	assert.Contains(t, summary.RenderedFiles, "notes.txt")
	// on disk but never tagged
	assert.Equal(t, []string{"facts.jsonl"}, summary.SkippedFiles)

	page, err := os.ReadFile(filepath.Join(root, "HTML", "S", fileID(t, root, "notes.txt")+".html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "todo: more &lt;tests&gt;")
}

func TestRenderTreeRerendersWhenTagsChange(t *testing.T) {
	root := setupTree(t)
	_, logs, err := runCLI(t, "load", "facts.jsonl")
	require.NoError(t, err, logs)
	runTree(t)

	mustWriteFile(t, filepath.Join(root, "more.jsonl"), `{"kind":"sym","name":"x","path":"src/lib.c","line":2}`)
	_, logs, err = runCLI(t, "load", "--append", "more.jsonl")
	require.NoError(t, err, logs)

	summary := runTree(t)
	assert.Len(t, summary.RenderedFiles, 3)
}

func TestRenderWithoutDatabase(t *testing.T) {
	setupTree(t)
	_, _, err := runCLI(t, "render", "src/main.c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run srcweb load first")
}

func TestRenderStdoutAndCheck(t *testing.T) {
	root := setupTree(t)
	_, logs, err := runCLI(t, "load", "facts.jsonl")
	require.NoError(t, err, logs)

	out, logs, err := runCLI(t, "render", "--stdout", "src/lib.c")
	require.NoError(t, err, logs)
	assert.Contains(t, out, "<strong class='reserved'>int</strong>")
	assert.NoDirExists(t, filepath.Join(root, "HTML"))

	_, _, err = runCLI(t, "check", "src/main.c")
	require.ErrorIs(t, err, ErrPageDiffers)

	_, logs, err = runCLI(t, "render", "src/main.c", "-o", "pages")
	require.NoError(t, err, logs)
	page := filepath.Join(root, "pages", "S", fileID(t, root, "src/main.c")+".html")
	assert.FileExists(t, page)

	out, logs, err = runCLI(t, "check", "src/main.c", "-o", "pages")
	require.NoError(t, err, logs)
	assert.Empty(t, out)
	assert.Contains(t, logs, "page is current")

	data, err := os.ReadFile(page)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(page, []byte(strings.Replace(string(data), "helper", "HELPER", 1)), 0o644))
	out, _, err = runCLI(t, "check", "src/main.c", "-o", "pages")
	require.ErrorIs(t, err, ErrPageDiffers)
	assert.Contains(t, out, "@@ -")
	assert.Contains(t, out, "HELPER")

	_, _, err = runCLI(t, "render", "facts.jsonl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the tag database")
}

func TestLoadReplacesUnlessAppending(t *testing.T) {
	root := setupTree(t)
	_, logs, err := runCLI(t, "load", "facts.jsonl")
	require.NoError(t, err, logs)

	mustWriteFile(t, filepath.Join(root, "other.jsonl"), `{"kind":"def","name":"x","path":"x.c","line":1}`)
	_, logs, err = runCLI(t, "load", "--append", "other.jsonl")
	require.NoError(t, err, logs)
	assert.Equal(t, 5, dbStats(t, root).Paths)

	_, logs, err = runCLI(t, "load", "other.jsonl")
	require.NoError(t, err, logs)
	assert.Equal(t, tagdb.Stats{Paths: 1, Definitions: 1}, dbStats(t, root))

	mustWriteFile(t, filepath.Join(root, "bad.jsonl"), `{"kind":"def","name":"y","path":"y.c","line":0}`)
	_, _, err = runCLI(t, "load", "facts.jsonl", "bad.jsonl")
	require.Error(t, err)
	assert.Equal(t, tagdb.Stats{Paths: 1, Definitions: 1}, dbStats(t, root))
}

func dbStats(t *testing.T, root string) tagdb.Stats {
	t.Helper()
	db, err := tagdb.Open(filepath.Join(root, ".srcweb", "tags.db"))
	require.NoError(t, err)
	defer db.Close()
	stats, err := db.Stats(t.Context())
	require.NoError(t, err)
	return stats
}

func TestStatusReportsChanges(t *testing.T) {
	root := setupTree(t)
	_, logs, err := runCLI(t, "load", "facts.jsonl")
	require.NoError(t, err, logs)
	runTree(t)

	mustWriteFile(t, filepath.Join(root, "src/main.c"), "int main(void) { return 0; }\n")
	out, logs, err := runCLI(t, "status", "--json")
	require.NoError(t, err, logs)

	var summary StatusSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 4, summary.Tags.Paths)
	assert.Equal(t, 2, summary.Tags.Definitions)
	assert.Equal(t, 3, summary.Tracked)
	assert.Equal(t, []string{"src/main.c"}, summary.ChangedFiles)
	assert.Positive(t, summary.DatabaseSize)
	assert.False(t, summary.LoadedAt.IsZero())

	out, _, err = runCLI(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "changed=1")
}

func TestDoctor(t *testing.T) {
	setupTree(t)
	out, _, err := runCLI(t, "doctor", "--json")
	require.NoError(t, err)
	var before DoctorSummary
	require.NoError(t, json.Unmarshal([]byte(out), &before))
	assert.False(t, before.Healthy)
	assert.Contains(t, before.Missing, "tag database")
	assert.Contains(t, before.Suggestions, "run srcweb load <facts.jsonl>")
	assert.Contains(t, before.Extensions, ".c")
	assert.Contains(t, before.Extensions, ".y")
	assert.True(t, sort.StringsAreSorted(before.Extensions))

	_, logs, err := runCLI(t, "load", "facts.jsonl")
	require.NoError(t, err, logs)
	runTree(t)

	out, _, err = runCLI(t, "doctor", "--json")
	require.NoError(t, err)
	var after DoctorSummary
	require.NoError(t, json.Unmarshal([]byte(out), &after))
	assert.True(t, after.Healthy, after.Missing)
	assert.True(t, after.Clean)

	out, _, err = runCLI(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "doctor: ok")
	assert.Contains(t, out, "sources: ")
}

func TestConfigInitAndShow(t *testing.T) {
	root := setupTree(t)
	mustWriteFile(t, filepath.Join(root, "srcweb.yaml"), "header: right\nncol: 6\n")

	out, logs, err := runCLI(t, "config", "show")
	require.NoError(t, err, logs)
	assert.Contains(t, out, "header: right")
	assert.Contains(t, out, "ncol: 6")

	dst := filepath.Join(root, "conf", "srcweb.yaml")
	_, logs, err = runCLI(t, "config", "init", dst)
	require.NoError(t, err, logs)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "header: right")

	mustWriteFile(t, dst, "tabs: 2\n")
	_, logs, err = runCLI(t, "config", "init", dst)
	require.NoError(t, err)
	assert.Contains(t, logs, "--force")
	data, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "tabs: 2\n", string(data))

	_, _, err = runCLI(t, "--config", dst, "config", "init", "--force", dst)
	require.NoError(t, err)
	data, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tabs: 2")
	assert.Contains(t, string(data), "header: none")
}

func TestInvalidConfigFails(t *testing.T) {
	root := setupTree(t)
	mustWriteFile(t, filepath.Join(root, "srcweb.yaml"), "header: sideways\n")
	_, _, err := runCLI(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLogWarner(t *testing.T) {
	var buf bytes.Buffer
	w := newLogWarner(newLogger(&buf, log.InfoLevel, true))
	w.Warn("unknown preprocessing directive", 3, "a.c")
	w.Warn("unexpected end of file", 9, "a.c")

	assert.Equal(t, int64(2), w.Count())
	assert.Contains(t, buf.String(), "level=warn")
	assert.Contains(t, buf.String(), "line=3")
	assert.Contains(t, buf.String(), "file=a.c")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, log.InfoLevel, logLevel(false, false))
	assert.Equal(t, log.DebugLevel, logLevel(true, false))
	assert.Equal(t, log.ErrorLevel, logLevel(true, true))
}

func TestWriteLineDiff(t *testing.T) {
	var buf bytes.Buffer
	changed := writeLineDiff(&buf, lineDiff("a\nb\nc\n", "a\nB\nc\nd\n"))
	assert.True(t, changed)
	assert.Equal(t, "@@ -2,1 @@\n-b\n@@ +2,1 @@\n+B\n@@ +4,1 @@\n+d\n", buf.String())

	buf.Reset()
	assert.False(t, writeLineDiff(&buf, lineDiff("same\n", "same\n")))
	assert.Empty(t, buf.String())
}

func TestRelativeTo(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "src/a.c", relativeTo(root, filepath.Join(root, "src", "a.c")))
	assert.Equal(t, "/elsewhere/a.c", relativeTo(root, "/elsewhere/a.c"))
}

func TestCommandsNeedSetup(t *testing.T) {
	cmd := NewRootCommand("test")
	cmd.SetContext(context.Background())
	err := RunStatus(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without configuration")
}

package render

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/markup"
	"github.com/skelly-dev/srcweb/internal/parser"
	"github.com/skelly-dev/srcweb/internal/strbuf"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// wordTokenizer splits each line on spaces: "int" and "return" are reserved,
// names with an anchor are resolved by their site, the rest is escaped text.
type wordTokenizer struct {
	sc   *bufio.Scanner
	sink parser.Sink
	line int
}

func (w *wordTokenizer) Language() string { return "words" }

func (w *wordTokenizer) Init(in io.Reader, sink parser.Sink) error {
	w.sc = bufio.NewScanner(in)
	w.sink = sink
	return nil
}

func (w *wordTokenizer) Step() (bool, error) {
	if !w.sc.Scan() {
		return false, w.sc.Err()
	}
	w.line++
	w.sink.BeginLine(w.line)
	for i, word := range strings.Split(w.sc.Text(), " ") {
		if i > 0 {
			w.sink.PutChar(' ')
		}
		name := strings.TrimRight(word, ";")
		switch {
		case name == "int" || name == "return":
			w.sink.PutReserved(name)
		default:
			if a, ok := w.sink.Anchor(name, w.line); ok && name != "" {
				w.sink.PutAnchor(name, tags.KindForSite(a.Site), w.line)
			} else {
				w.sink.PutString(name)
			}
		}
		if len(name) < len(word) {
			w.sink.PutString(word[len(name):])
		}
	}
	w.sink.EndLine(w.line)
	return true, nil
}

func wordRegistry() *parser.Registry {
	reg := parser.NewRegistry()
	reg.Register(parser.Entry{
		Language:   "words",
		Extensions: []string{".w"},
		New:        func() parser.Tokenizer { return &wordTokenizer{} },
	})
	return reg
}

type warning struct {
	msg  string
	line int
	file string
}

func newTestRenderer(t *testing.T, store *tags.MemoryStore, opts Options) (*Renderer, *[]warning) {
	t.Helper()
	warnings := &[]warning{}
	r, err := New(Config{
		Options:    opts,
		Vocabulary: markup.Default(),
		Store:      store,
		Paths:      store,
		Registry:   wordRegistry(),
		Warner: WarnerFunc(func(msg string, line int, file string) {
			*warnings = append(*warnings, warning{msg, line, file})
		}),
	})
	require.NoError(t, err)
	return r, warnings
}

// startFile puts r in the state RenderFile sets up, for driving the sink
// directly.
func startFile(r *Renderer, anchors []anchor.Anchor) *bytes.Buffer {
	out := &bytes.Buffer{}
	r.ctx = context.Background()
	r.out = bufio.NewWriter(out)
	r.file = &fileState{path: "a.w", state: awaitingLine}
	r.anchors = anchor.New(anchors)
	r.err = nil
	r.outbuf.Clear()
	return out
}

func renderString(t *testing.T, r *Renderer, src, content string) string {
	t.Helper()
	out := &bytes.Buffer{}
	_, err := r.RenderFile(context.Background(), src, strings.NewReader(content), out, false)
	require.NoError(t, err)
	return out.String()
}

func TestUnresolvedNamesRenderUnchanged(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := tags.NewMemoryStore()
		r, _ := newTestRenderer(t, store, DefaultOptions())
		startFile(r, nil)

		name := rapid.StringMatching(`[A-Za-z_][A-Za-z0-9_]{0,20}`).Draw(rt, "name")
		kind := tags.Kind(rapid.IntRange(0, 3).Draw(rt, "kind"))
		r.PutAnchor(name, kind, 1)
		if got := r.outbuf.String(); got != name {
			rt.Fatalf("PutAnchor(%q, %s) = %q", name, kind, got)
		}
	})
}

func TestSymbolsNeverLink(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := tags.NewMemoryStore()
		store.SetPathID("./x.c", "7")
		name := rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "name")
		if rapid.Bool().Draw(rt, "aggregate") {
			store.SetResolution(tags.Symbols, name, tags.Resolution{Shape: tags.Aggregate, FileID: "4", Count: rapid.IntRange(2, 99).Draw(rt, "count")})
		} else {
			store.SetResolution(tags.Symbols, name, tags.Resolution{Shape: tags.Single, Line: rapid.IntRange(1, 999).Draw(rt, "line"), FileID: "7"})
		}
		r, _ := newTestRenderer(t, store, DefaultOptions())
		startFile(r, nil)

		r.PutAnchor(name, tags.Symbol, 3)
		if got := r.outbuf.String(); got != name {
			rt.Fatalf("symbol %q rendered as %q", name, got)
		}
	})
}

func TestLinkFormatAllAbsent(t *testing.T) {
	store := tags.NewMemoryStore()

	r, _ := newTestRenderer(t, store, DefaultOptions())
	b := strbuf.New(0)
	r.linkFormat(b, anchor.Links{})
	got := b.String()
	assert.Equal(t, 2, strings.Count(got, "<a href="))
	assert.NotContains(t, got, "#L")
	assert.NotContains(t, got, "#TOP")
	assert.NotContains(t, got, "#BOTTOM")
	assert.Equal(t, "[&lt;][&gt;][^][v][top][bottom]<a href='../mains.html'>[index]</a><a href='../help.html'>[help]</a>", got)

	opts := DefaultOptions()
	opts.Icons = true
	r, _ = newTestRenderer(t, store, opts)
	b.Clear()
	r.linkFormat(b, anchor.Links{})
	got = b.String()
	assert.Equal(t, 2, strings.Count(got, "<a href="))
	assert.Equal(t, 6, strings.Count(got, "icons/n_"))
	assert.Contains(t, got, "<img class='icon' src='../icons/n_left.png' alt='[previous]' />")
	assert.Contains(t, got, "<a href='../help.html'><img class='icon' src='../icons/help.png' alt='[help]' /></a>")
}

func TestLinkFormatSentinels(t *testing.T) {
	r, _ := newTestRenderer(t, tags.NewMemoryStore(), DefaultOptions())
	b := strbuf.New(0)
	r.linkFormat(b, anchor.Links{anchor.Prev: 3, anchor.First: anchor.PageTop, anchor.Last: 40, anchor.Bottom: anchor.PageBottom})
	got := b.String()
	assert.Contains(t, got, "<a href='#L3'>[&lt;]</a>[&gt;]")
	assert.Contains(t, got, "<a href='#TOP'>[^]</a>")
	assert.Contains(t, got, "<a href='#L40'>[v]</a>[top]")
	assert.Contains(t, got, "<a href='#BOTTOM'>[bottom]</a>")
}

func TestFixedGuide(t *testing.T) {
	r, _ := newTestRenderer(t, tags.NewMemoryStore(), DefaultOptions())
	b := strbuf.New(0)
	require.NoError(t, r.fixedGuideLinkFormat(b, anchor.Links{anchor.Last: 12}, []byte("crumb")))
	got := b.String()

	assert.True(t, strings.HasPrefix(got, "<!-- beginning of fixed guide -->\n<div id='guide'><ul>\n"))
	assert.True(t, strings.HasSuffix(got, "</ul></div>\n<!-- end of fixed guide -->\n"))
	assert.Contains(t, got, "<li><a href='#TOP'>[^]</a></li>\n")
	assert.Contains(t, got, "<li><a href='#L12'>[v]</a></li>\n")
	assert.Contains(t, got, "<li class='standout'><span>crumb</span></li>\n")
	assert.NotContains(t, got, "[&lt;]")
	assert.NotContains(t, got, "[&gt;]")

	err := r.fixedGuideUnit(b, anchor.Slot(9), anchor.Links{})
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestSingleResolution(t *testing.T) {
	store := tags.NewMemoryStore()
	store.SetPathID("./bar.c", "F3")
	store.SetResolution(tags.Definitions, "foo", tags.Resolution{Shape: tags.Single, Line: 42, FileID: "F3", Path: "./bar.c"})

	r, _ := newTestRenderer(t, store, DefaultOptions())
	startFile(r, nil)
	r.PutAnchor("foo", tags.Definition, 7)

	assert.Equal(t, "<a href='../S/F3.html#L42' title='Defined at 42 in bar.c.'>foo</a>", r.outbuf.String())
	assert.Equal(t, 1, r.file.links)
}

func TestSingleResolutionUsesRecordPath(t *testing.T) {
	store := tags.NewMemoryStore()
	store.SetResolution(tags.References, "baz", tags.Resolution{Shape: tags.Single, Line: 5, FileID: "F8", Path: "./lib/baz.c"})

	r, _ := newTestRenderer(t, store, DefaultOptions())
	startFile(r, nil)
	r.PutAnchor("baz", tags.Reference, 2)

	require.NoError(t, r.err)
	assert.Equal(t, "<a href='../S/F8.html#L5' title='Used at 5 in lib/baz.c.'>baz</a>", r.outbuf.String())
}

func TestAggregateResolution(t *testing.T) {
	store := tags.NewMemoryStore()
	store.SetResolution(tags.References, "bar", tags.Resolution{Shape: tags.Aggregate, FileID: "F9", Count: 5})

	tests := []struct {
		name   string
		opts   func(*Options)
		expect string
	}{
		{
			name:   "static",
			opts:   func(*Options) {},
			expect: "<a href='../R/F9.html' title='Multiple used in 5 places.'>bar</a>",
		},
		{
			name:   "dynamic",
			opts:   func(o *Options) { o.Dynamic = true },
			expect: "<a href='../cgi-bin/global.cgi?pattern=bar&amp;type=reference' title='Multiple used in 5 places.'>bar</a>",
		},
		{
			name: "dynamic with key and absolute action",
			opts: func(o *Options) {
				o.Dynamic = true
				o.Action = "/q.cgi"
				o.SiteKey = "k1"
			},
			expect: "<a href='/q.cgi?pattern=bar&amp;id=k1&amp;type=reference' title='Multiple used in 5 places.'>bar</a>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.opts(&opts)
			r, _ := newTestRenderer(t, store, opts)
			startFile(r, nil)
			r.PutAnchor("bar", tags.Reference, 1)
			assert.Equal(t, tt.expect, r.outbuf.String())
		})
	}
}

func TestOtherReferenceVerbs(t *testing.T) {
	store := tags.NewMemoryStore()
	store.Add(tags.References, "N", "m.c", 8)
	store.Add(tags.References, "M", "m.c", 8)
	store.Add(tags.References, "M", "n.c", 9)

	r, warnings := newTestRenderer(t, store, DefaultOptions())
	startFile(r, nil)
	r.PutAnchor("N", tags.OtherReference, 1)
	assert.Contains(t, r.outbuf.String(), "title='Referred from 8 in m.c.'")

	r.outbuf.Clear()
	r.PutAnchor("M", tags.OtherReference, 1)
	assert.Contains(t, r.outbuf.String(), "title='Multiple referred from 2 places.'")

	r.outbuf.Clear()
	r.PutAnchor("missing", tags.OtherReference, 1)
	assert.Equal(t, "missing", r.outbuf.String())
	assert.Empty(t, *warnings)
}

func TestForcedResolutionDoesNotWarn(t *testing.T) {
	store := tags.NewMemoryStore()
	store.Add(tags.Definitions, "main", "main.c", 3)

	r, warnings := newTestRenderer(t, store, DefaultOptions())
	startFile(r, nil)
	span := []byte("main\x00junk")
	r.PutAnchorForce(span[:4], 1)
	assert.Contains(t, r.outbuf.String(), "title='Defined at 3 in main.c.'>main</a>")

	r.outbuf.Clear()
	r.PutAnchorForce([]byte("nothere"), 1)
	assert.Equal(t, "nothere", r.outbuf.String())
	assert.Empty(t, *warnings)
}

func TestUnresolvedWarningMarksLine(t *testing.T) {
	store := tags.NewMemoryStore()
	opts := DefaultOptions()
	opts.ColorizeWarned = true
	r, warnings := newTestRenderer(t, store, opts)
	out := startFile(r, nil)

	r.BeginLine(5)
	r.PutAnchor("foo", tags.Definition, 5)
	r.EndLine(5)
	require.NoError(t, r.out.Flush())

	require.Len(t, *warnings, 1)
	assert.Equal(t, warning{"foo(definition) found but not defined.", 5, "a.w"}, (*warnings)[0])
	assert.Equal(t, "<a id='L5' name='L5'></a><span class='curline'>foo</span>\n", out.String())
	assert.False(t, r.file.warned)
	assert.Equal(t, 5, r.file.lastLine)

	opts.Warnings = false
	r, warnings = newTestRenderer(t, store, opts)
	startFile(r, nil)
	r.PutAnchor("foo", tags.Definition, 5)
	r.UnknownDirective("#pragmax ", 5)
	assert.Empty(t, *warnings)
	assert.False(t, r.file.warned)
}

func TestTokenizerWarnings(t *testing.T) {
	r, warnings := newTestRenderer(t, tags.NewMemoryStore(), DefaultOptions())
	startFile(r, nil)

	r.UnknownDirective(" #frob ", 1)
	r.UnknownYaccDirective("%frob", 2)
	r.UnexpectedEOF(3)
	r.MissingLeft("}", 4)

	msgs := make([]string, 0, len(*warnings))
	for _, w := range *warnings {
		msgs = append(msgs, w.msg)
	}
	assert.Equal(t, []string{
		"unknown preprocessing directive '#frob'.",
		"unknown yacc directive '%frob'.",
		"unexpected eof.",
		"missing left '}'.",
	}, msgs)
	assert.Equal(t, 4, r.file.warnings)
	assert.False(t, r.file.warned, "warned lines are only marked when colorizing")
}

func TestMalformedRecordIsFatal(t *testing.T) {
	store := tags.NewMemoryStore()
	r, err := New(Config{
		Vocabulary: markup.Default(),
		Store:      store,
		Paths:      store,
		Registry:   wordRegistry(),
		Records: recordsFunc(func(tags.Namespace, string) []byte {
			return []byte(" F9\x00")
		}),
	})
	require.NoError(t, err)
	startFile(r, nil)

	r.PutAnchor("bar", tags.Reference, 1)
	assert.ErrorIs(t, r.err, tags.ErrMalformedRecord)

	store.SetResolution(tags.Definitions, "ghost", tags.Resolution{Shape: tags.Single, Line: 2, FileID: "nope"})
	r, _ = newTestRenderer(t, store, DefaultOptions())
	startFile(r, nil)
	r.PutAnchor("ghost", tags.Definition, 1)
	assert.ErrorIs(t, r.err, tags.ErrMalformedRecord)
}

type recordsFunc func(ns tags.Namespace, name string) []byte

func (f recordsFunc) Record(_ context.Context, ns tags.Namespace, name string) ([]byte, error) {
	return f(ns, name), nil
}

func TestLineStateViolations(t *testing.T) {
	r, _ := newTestRenderer(t, tags.NewMemoryStore(), DefaultOptions())

	startFile(r, nil)
	r.EndLine(1)
	assert.ErrorIs(t, r.err, ErrLineState)

	startFile(r, nil)
	r.BeginLine(1)
	r.BeginLine(2)
	assert.ErrorIs(t, r.err, ErrLineState)
}

func TestScenarioReservedWordAndPlainName(t *testing.T) {
	r, _ := newTestRenderer(t, tags.NewMemoryStore(), DefaultOptions())
	got := renderString(t, r, "one.w", "int x;\n")

	assert.Contains(t, got, "<a id='L1' name='L1'></a><strong class='reserved'>int</strong> x;\n")
	assert.NotContains(t, got, "id='L2'")
	assert.NotContains(t, got, "Definitions</h2>")
}

func definitionFile() (*tags.MemoryStore, string) {
	store := tags.NewMemoryStore()
	store.Add(tags.Definitions, "main", "prog.w", 10)
	lines := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		if i == 10 {
			lines = append(lines, "int main")
			continue
		}
		lines = append(lines, "return")
	}
	return store, strings.Join(lines, "\n") + "\n"
}

func outputLines(s string) []string { return strings.Split(s, "\n") }

func lineIndex(t *testing.T, lines []string, prefix string) int {
	t.Helper()
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return i
		}
	}
	t.Fatalf("no line starts with %q", prefix)
	return -1
}

func TestHeaderBeforeEmitsGuideAheadOfLine(t *testing.T) {
	store, content := definitionFile()
	opts := DefaultOptions()
	opts.Header = HeaderBefore
	r, _ := newTestRenderer(t, store, opts)
	lines := outputLines(renderString(t, r, "prog.w", content))

	i := lineIndex(t, lines, "<a id='L10' name='L10'></a>")
	guide := lines[i-1]
	assert.Equal(t, "<em class='comment'>/* [&lt;][&gt;]<a href='#TOP'>[^]</a><a href='#BOTTOM'>[v]</a><a href='#TOP'>[top]</a><a href='#BOTTOM'>[bottom]</a><a href='../mains.html'>[index]</a><a href='../help.html'>[help]</a> */</em>", guide)
	assert.NotContains(t, lines[i], "/* ")
	assert.True(t, strings.HasPrefix(lines[i-2], "<a id='L9' name='L9'></a>"))
	assert.True(t, strings.HasPrefix(lines[i+1], "<a id='L11' name='L11'></a>"))
}

func TestHeaderRightAndAfter(t *testing.T) {
	store, content := definitionFile()

	opts := DefaultOptions()
	opts.Header = HeaderRight
	opts.ShowPosition = true
	r, _ := newTestRenderer(t, store, opts)
	lines := outputLines(renderString(t, r, "prog.w", content))
	i := lineIndex(t, lines, "<a id='L10' name='L10'></a>")
	assert.Contains(t, lines[i], "main    <em class='comment'>/* ")
	assert.Contains(t, lines[i], "&nbsp;<span class='position'>[+10 prog.w]</span> */</em>")

	opts = DefaultOptions()
	opts.Header = HeaderAfter
	opts.LineNumbers = true
	r, _ = newTestRenderer(t, store, opts)
	lines = outputLines(renderString(t, r, "prog.w", content))
	i = lineIndex(t, lines, "<a id='L10' name='L10'></a>")
	assert.Equal(t, "<a id='L10' name='L10'></a>  10 <strong class='reserved'>int</strong> main", lines[i])
	assert.True(t, strings.HasPrefix(lines[i+1], "     <em class='comment'>/* "))
	assert.True(t, strings.HasPrefix(lines[i+2], "<a id='L11' name='L11'></a>  11 "))
}

func TestRenderFileDefinitionIndexAndFooter(t *testing.T) {
	store, content := definitionFile()
	opts := DefaultOptions()
	opts.ShowPosition = true
	opts.FooterHTML = "<p>footer</p>\n"
	opts.HeaderHTML = "<p>header</p>\n"
	r, _ := newTestRenderer(t, store, opts)

	out := &bytes.Buffer{}
	res, err := r.RenderFile(context.Background(), "./prog.w", strings.NewReader(content), out, false)
	require.NoError(t, err)
	got := out.String()

	assert.Equal(t, "prog.w", res.Path)
	assert.Equal(t, "words", res.Language)
	assert.Equal(t, 12, res.Lines)
	assert.Equal(t, 1, res.Warnings, "main at its definition has no references")

	assert.Contains(t, got, "<title>prog.w</title>")
	assert.Contains(t, got, "<p>header</p>\n<a id='TOP' name='TOP'></a><h2 class='header'><a href='../mains.html'>root</a>/<a href='../S/")
	assert.Contains(t, got, "<h2 class='header'>Definitions</h2>\nThis source file includes following definitions.\n<ol>\n<li><a href='#L10' title='Defined at 10.'>main</a></li>\n</ol>\n<hr />\n")
	assert.Contains(t, got, "[+1 prog.w]")
	assert.Contains(t, got, "<a id='BOTTOM' name='BOTTOM'></a>\n")
	assert.Contains(t, got, "[+12 prog.w]")
	assert.Contains(t, got, "<br />\n<p>footer</p>\n</body>\n</html>\n")
	assert.Less(t, strings.Index(got, "<pre>"), strings.Index(got, "id='L1'"))
	assert.Nil(t, r.anchors)
}

func TestRenderFileFixedGuide(t *testing.T) {
	store, content := definitionFile()
	opts := DefaultOptions()
	opts.FixedGuide = true
	r, _ := newTestRenderer(t, store, opts)
	got := renderString(t, r, "prog.w", content)

	start := strings.Index(got, "<!-- beginning of fixed guide -->")
	end := strings.Index(got, "<!-- end of fixed guide -->")
	require.True(t, start >= 0 && end > start)
	guide := got[start:end]
	assert.Contains(t, guide, "<li><a href='#L10'>[^]</a></li>")
	assert.Contains(t, guide, "<li class='standout'><span><a href='../S/")
	assert.NotContains(t, guide, "root</a>")
}

func TestRenderFileNotSource(t *testing.T) {
	store := tags.NewMemoryStore()
	opts := DefaultOptions()
	opts.LineNumbers = true
	opts.NumberWidth = 3
	opts.ShowPosition = true
	r, _ := newTestRenderer(t, store, opts)

	out := &bytes.Buffer{}
	res, err := r.RenderFile(context.Background(), "README", strings.NewReader("a\tb <c>\r\nsecond"), out, true)
	require.NoError(t, err)
	got := out.String()

	assert.Contains(t, got, "<pre>\n<a id='L1' name='L1'></a>  1 a       b &lt;c&gt;\n<a id='L2' name='L2'></a>  2 second\n</pre>\n")
	assert.Equal(t, 2, res.Lines)
	assert.Empty(t, res.Language)
	assert.Contains(t, got, "[+2 README]")
}

type includeStore struct {
	*tags.MemoryStore
	inc tags.Inclusion
}

func (s includeStore) Included(context.Context, string) (tags.Inclusion, bool, error) {
	return s.inc, true, nil
}

func TestIncludedFromBlock(t *testing.T) {
	store := tags.NewMemoryStore()
	store.AddInclude("util.w", "main.w", 3)
	r, _ := newTestRenderer(t, store, DefaultOptions())
	fid, ok := store.PathToID("main.w")
	require.True(t, ok)

	got := renderString(t, r, "util.w", "return\n")
	assert.Contains(t, got, "<h2 class='header'><a href='"+fid+".html#L3' title='Included from 3 in main.w.'>Included from</a></h2>\n<hr />\n")

	store.AddInclude("util.w", "other.w", 9)
	got = renderString(t, r, "util.w", "return\n")
	assert.Contains(t, got, "<a href='../J/1.html' title='Multiple included from 2 places.'>Included from</a>")

	bad := includeStore{MemoryStore: store, inc: tags.Inclusion{ID: 1, Count: 1}}
	r2, err := New(Config{Vocabulary: markup.Default(), Store: bad, Paths: store, Registry: wordRegistry()})
	require.NoError(t, err)
	_, err = r2.RenderFile(context.Background(), "util.w", strings.NewReader("return\n"), io.Discard, false)
	assert.ErrorIs(t, err, ErrIncludeRecord)
}

func TestPutInclude(t *testing.T) {
	store := tags.NewMemoryStore()
	store.AddPath("inc/one.h")
	store.AddPath("a/two.h")
	store.AddPath("b/two.h")
	r, _ := newTestRenderer(t, store, DefaultOptions())
	startFile(r, nil)

	fid, _ := store.PathToID("inc/one.h")
	r.PutInclude("one.h", "<one.h>")
	assert.Equal(t, "<a href='"+fid+".html'>&lt;one.h&gt;</a>", r.outbuf.String())

	r.outbuf.Clear()
	r.PutInclude("sys/two.h", "\"two.h\"")
	assert.True(t, strings.HasPrefix(r.outbuf.String(), "<a href='../I/"))
	assert.True(t, strings.HasSuffix(r.outbuf.String(), ".html'>\"two.h\"</a>"))

	r.outbuf.Clear()
	r.PutInclude("stdio.h", "<stdio.h>")
	assert.Equal(t, "&lt;stdio.h&gt;", r.outbuf.String())
}

func TestBreadcrumb(t *testing.T) {
	store := tags.NewMemoryStore()
	store.AddPath("a/b/c.c")
	r, _ := newTestRenderer(t, store, DefaultOptions())

	ida, _ := store.PathToID("a")
	idb, _ := store.PathToID("a/b")
	idc, _ := store.PathToID("a/b/c.c")

	b := strbuf.New(0)
	r.fillAnchor(b, "index.html", "./a/b/c.c")
	got := b.String()

	assert.True(t, strings.HasPrefix(got, "<a href='index.html'>root</a>/"))
	segments := strings.Split(strings.TrimPrefix(got, "<a href='index.html'>root</a>/"), "</a>/")
	require.Len(t, segments, 3)
	assert.Equal(t, "<a href='../files/"+ida+".html'>a", segments[0])
	assert.Equal(t, "<a href='../files/"+idb+".html'>b", segments[1])
	assert.Equal(t, "<a href='../S/"+idc+".html'>c.c</a>", segments[2])

	b.Clear()
	r.fillAnchor(b, "", "x/y.c")
	assert.Equal(t, "x/y.c", b.String())
}

func TestCVSLink(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "CVS"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "CVS", "Repository"), []byte("proj/src\nignored\n"), 0644))

	modules := NewCVSModules()
	m, ok := modules.Module(filepath.Join(dir, "src"))
	require.True(t, ok)
	assert.Equal(t, "proj/src", m)
	_, ok = modules.Module(dir)
	assert.False(t, ok)

	store := tags.NewMemoryStore()
	opts := DefaultOptions()
	opts.CVSWebURL = "http://cvs.example.org/cvsweb/"
	opts.CVSRoot = "/var/cvs"
	r, _ := newTestRenderer(t, store, opts)
	b := strbuf.New(0)
	r.cvsLink(b, "./lib/my file.c")
	assert.Equal(t, "&nbsp;<a href='http://cvs.example.org/cvsweb/lib/my%20file.c?cvsroot=/var/cvs'><span class='cvs'>[CVS]</span></a>\n", b.String())

	opts.UseCVSModule = true
	r, err := New(Config{Options: opts, Vocabulary: markup.Default(), Store: store, Paths: store, Registry: wordRegistry(), Modules: moduleFunc(func(string) (string, bool) { return "mod", true })})
	require.NoError(t, err)
	b.Clear()
	r.cvsLink(b, "lib/x.c")
	assert.Contains(t, b.String(), "href='http://cvs.example.org/cvsweb/mod/x.c?cvsroot=/var/cvs'")
}

type moduleFunc func(dir string) (string, bool)

func (f moduleFunc) Module(dir string) (string, bool) { return f(dir) }

func TestEncodeURL(t *testing.T) {
	tests := map[string]string{
		"a/b-c_d.e~": "a/b-c_d.e~",
		"a b":        "a%20b",
		"x?y&z":      "x%3fy%26z",
	}
	for in, want := range tests {
		b := strbuf.New(0)
		encodeURL(b, in)
		assert.Equal(t, want, b.String(), in)
	}
}

func TestParseHeaderPolicy(t *testing.T) {
	for in, want := range map[string]HeaderPolicy{"": HeaderNone, "Before": HeaderBefore, " right ": HeaderRight, "after": HeaderAfter} {
		got, err := ParseHeaderPolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		if want != HeaderNone {
			assert.Equal(t, strings.ToLower(strings.TrimSpace(in)), got.String())
		}
	}
	_, err := ParseHeaderPolicy("middle")
	assert.Error(t, err)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Vocabulary: markup.Default()})
	assert.Error(t, err)

	voc := markup.Default()
	voc.AnchorLabel = voc.AnchorLabel[:3]
	store := tags.NewMemoryStore()
	_, err = New(Config{Vocabulary: voc, Store: store, Paths: store, Registry: wordRegistry()})
	assert.Error(t, err)
}

func TestTokenizerErrorStopsRender(t *testing.T) {
	reg := parser.NewRegistry()
	boom := errors.New("boom")
	reg.Register(parser.Entry{Language: "bad", New: func() parser.Tokenizer { return failingTokenizer{boom} }})
	store := tags.NewMemoryStore()
	r, err := New(Config{Vocabulary: markup.Default(), Store: store, Paths: store, Registry: reg})
	require.NoError(t, err)

	_, err = r.RenderFile(context.Background(), "x.c", strings.NewReader("x"), io.Discard, false)
	assert.ErrorIs(t, err, boom)
}

type failingTokenizer struct{ err error }

func (f failingTokenizer) Language() string                  { return "bad" }
func (f failingTokenizer) Init(io.Reader, parser.Sink) error { return nil }
func (f failingTokenizer) Step() (bool, error)               { return false, f.err }

package languages

import (
	"bytes"
	"strings"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/parser"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// spanClass is how a span of source is rendered.
type spanClass int

const (
	spanText spanClass = iota
	spanReserved
	spanMacro
	spanDirective
	spanYaccDirective
	spanBrace
	spanComment
	spanName
	spanInclude
)

// span is one classified byte range of the source. Spans are disjoint and
// ordered; the bytes between them are plain text.
type span struct {
	start, end int
	class      spanClass
	// decl marks a name the grammar says is being declared.
	decl bool
	// preproc marks spans inside a preprocessor directive.
	preproc bool
}

// lineWriter renders classified source one physical line per step.
type lineWriter struct {
	src    []byte
	starts []int
	spans  []span
	sink   parser.Sink

	next  int
	line  int
	depth int
	// eofError is set when the parse ran into the end of the input.
	eofError bool
}

func newLineWriter(src []byte, sink parser.Sink) *lineWriter {
	starts := make([]int, 0, bytes.Count(src, []byte{'\n'})+1)
	for i := 0; i < len(src); {
		starts = append(starts, i)
		j := bytes.IndexByte(src[i:], '\n')
		if j < 0 {
			break
		}
		i += j + 1
	}
	return &lineWriter{src: src, starts: starts, sink: sink}
}

func (w *lineWriter) add(s span) {
	if n := len(w.spans); n > 0 && s.start < w.spans[n-1].end {
		s.start = w.spans[n-1].end
	}
	if s.start < s.end {
		w.spans = append(w.spans, s)
	}
}

// lineEnd is the offset of the newline ending line i, or the end of input.
func (w *lineWriter) lineEnd(i int) int {
	if i+1 < len(w.starts) {
		return w.starts[i+1] - 1
	}
	if n := len(w.src); n > 0 && w.src[n-1] == '\n' {
		return n - 1
	}
	return len(w.src)
}

// step renders the next line and reports whether more remain.
func (w *lineWriter) step() bool {
	if w.line >= len(w.starts) {
		return false
	}
	start, end := w.starts[w.line], w.lineEnd(w.line)
	n := w.line + 1
	w.sink.BeginLine(n)

	cur := start
	for w.next < len(w.spans) {
		s := w.spans[w.next]
		if s.start > end {
			break
		}
		if s.start > cur {
			w.sink.PutString(string(w.src[cur:s.start]))
			cur = s.start
		}
		if segEnd := min(s.end, end); segEnd > cur {
			w.emit(s, cur, segEnd, n)
			cur = segEnd
		}
		if s.end > end {
			break
		}
		w.next++
	}
	if cur < end {
		w.sink.PutString(string(w.src[cur:end]))
	}
	w.sink.EndLine(n)

	w.line++
	if w.line == len(w.starts) && (w.eofError || w.depth > 0) {
		w.sink.UnexpectedEOF(n)
	}
	return w.line < len(w.starts)
}

func (w *lineWriter) emit(s span, from, to, line int) {
	text := string(w.src[from:to])
	whole := from == s.start && to == s.end
	switch s.class {
	case spanReserved:
		w.sink.PutReserved(text)
	case spanMacro:
		w.sink.PutMacro(text)
	case spanDirective:
		w.sink.PutMacro(text)
		w.sink.UnknownDirective(text, line)
	case spanYaccDirective:
		w.sink.PutString(text)
		w.sink.UnknownYaccDirective(text, line)
	case spanBrace:
		w.sink.PutBrace(text)
		w.brace(text, line)
	case spanComment:
		w.sink.PutComment(text)
	case spanName:
		if !whole {
			w.sink.PutString(text)
			return
		}
		w.name(s, text, line)
	case spanInclude:
		if !whole {
			w.sink.PutString(text)
			return
		}
		w.sink.PutInclude(includeTarget(text), text)
	default:
		w.sink.PutString(text)
	}
}

func (w *lineWriter) brace(text string, line int) {
	switch text {
	case "{":
		w.depth++
	case "}":
		if w.depth == 0 {
			w.sink.MissingLeft("{", line)
			return
		}
		w.depth--
	}
}

// name resolves a symbol candidate. A tagged occurrence is looked up by its
// site; an untagged declaration falls back to a forced definition lookup.
func (w *lineWriter) name(s span, text string, line int) {
	if a, ok := w.sink.Anchor(text, line); ok {
		kind := tags.KindForSite(a.Site)
		if a.Site == anchor.SiteDefinition && s.preproc {
			kind = tags.OtherReference
		}
		w.sink.PutAnchor(text, kind, line)
		return
	}
	if s.decl {
		w.sink.PutAnchorForce(w.src[s.start:s.end], line)
		return
	}
	w.sink.PutString(text)
}

func includeTarget(text string) string {
	return strings.Trim(strings.TrimSpace(text), "<>\"'")
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

func normalizeNewlines(src []byte) []byte {
	if bytes.IndexByte(src, '\r') < 0 {
		return src
	}
	return bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

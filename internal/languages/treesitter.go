package languages

import (
	"context"
	"fmt"
	"io"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/skelly-dev/srcweb/internal/parser"
)

// grammar tells the tree-sitter tokenizer how to classify the leaves of one
// language.
type grammar struct {
	lang       string
	extensions []string
	language   func() *sitter.Language

	// names are the node kinds that are symbol candidates.
	names map[string]bool
	// reserved are named node kinds rendered as reserved words, on top of
	// every anonymous alphabetic token.
	reserved map[string]bool
	// opaque nodes are rendered as one span without descending.
	opaque   map[string]bool
	comments map[string]bool
	// includes maps a parent kind to the child field holding an include
	// path; "*" accepts any child.
	includes map[string]string
}

func (g *grammar) entry() parser.Entry {
	return parser.Entry{
		Language:   g.lang,
		Extensions: g.extensions,
		New:        func() parser.Tokenizer { return &treeTokenizer{g: g} },
	}
}

func (g *grammar) isInclude(parentType, field string) bool {
	want, ok := g.includes[parentType]
	return ok && (want == "*" || want == field)
}

// treeTokenizer parses the whole file with tree-sitter at Init and renders
// one line per Step.
type treeTokenizer struct {
	g *grammar
	w *lineWriter
}

func (t *treeTokenizer) Language() string { return t.g.lang }

func (t *treeTokenizer) Init(in io.Reader, sink parser.Sink) error {
	src, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	src = normalizeNewlines(src)
	t.w = newLineWriter(src, sink)
	if len(src) == 0 {
		return nil
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(t.g.language())
	tree, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", t.g.lang, err)
	}
	defer tree.Close()

	t.collect(tree.RootNode(), "", "", false)
	return nil
}

func (t *treeTokenizer) Step() (bool, error) {
	return t.w.step(), nil
}

func (t *treeTokenizer) collect(n *sitter.Node, parentType, field string, preproc bool) {
	typ := n.Type()
	if n.IsMissing() {
		if int(n.StartByte()) >= len(t.w.src) {
			t.w.eofError = true
		}
		return
	}
	if typ == "ERROR" && int(n.EndByte()) >= len(t.w.src) {
		t.w.eofError = true
	}
	if strings.HasPrefix(typ, "preproc_") {
		preproc = true
	}

	count := int(n.ChildCount())
	if count == 0 || t.g.opaque[typ] || t.g.comments[typ] {
		t.leaf(n, typ, parentType, field, preproc)
		return
	}
	for i := 0; i < count; i++ {
		t.collect(n.Child(i), typ, n.FieldNameForChild(i), preproc)
	}
}

func (t *treeTokenizer) leaf(n *sitter.Node, typ, parentType, field string, preproc bool) {
	s := span{start: int(n.StartByte()), end: int(n.EndByte()), preproc: preproc}
	if s.end > len(t.w.src) {
		s.end = len(t.w.src)
	}
	if s.start >= s.end {
		return
	}
	text := string(t.w.src[s.start:s.end])

	switch {
	case t.g.comments[typ]:
		s.class = spanComment
	case t.g.isInclude(parentType, field):
		s.class = spanInclude
	case typ == "preproc_directive":
		s.class = spanDirective
	case !n.IsNamed() && strings.HasPrefix(typ, "#"):
		s.class = spanMacro
	case t.g.reserved[typ]:
		s.class = spanReserved
	case typ == "{" || typ == "}":
		s.class = spanBrace
	case !n.IsNamed() && isWord(text):
		s.class = spanReserved
	case n.IsNamed() && t.g.names[typ]:
		s.class = spanName
		s.decl = field == "name" || field == "declarator"
	default:
		s.class = spanText
	}
	t.w.add(s)
}

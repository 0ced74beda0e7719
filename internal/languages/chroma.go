package languages

import (
	"fmt"
	"io"
	"regexp"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/skelly-dev/srcweb/internal/parser"
)

// yaccDirectives are the % directives a grammar file may use.
var yaccDirectives = set(
	"%%", "%{", "%}",
	"%token", "%type", "%left", "%right", "%nonassoc", "%precedence", "%start",
	"%union", "%prec", "%expect", "%expect-rr", "%pure_parser", "%pure-parser",
	"%define", "%defines", "%debug", "%locations", "%name-prefix", "%output",
	"%parse-param", "%lex-param", "%param", "%initial-action", "%destructor",
	"%printer", "%code", "%require", "%skeleton", "%verbose", "%error-verbose",
	"%file-prefix", "%glr-parser", "%token-table", "%no-lines", "%language",
	"%empty",
)

var yaccDirectivePattern = regexp.MustCompile(`(?m)^(%%|%\{|%\}|%[A-Za-z_][A-Za-z0-9_-]*)`)

// lexerTokenizer renders with a chroma lexer. The yacc flavour lexes the
// grammar as C and recognises % directives at the start of a line.
type lexerTokenizer struct {
	lang  string
	lexer string
	yacc  bool
	w     *lineWriter
	// covered is the end of the last directive added.
	covered int
}

func lexerEntry(lang, lexer string, yacc bool, extensions ...string) parser.Entry {
	return parser.Entry{
		Language:   lang,
		Extensions: extensions,
		New: func() parser.Tokenizer {
			return &lexerTokenizer{lang: lang, lexer: lexer, yacc: yacc}
		},
	}
}

func (t *lexerTokenizer) Language() string { return t.lang }

func (t *lexerTokenizer) Init(in io.Reader, sink parser.Sink) error {
	src, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	src = normalizeNewlines(src)
	t.w = newLineWriter(src, sink)
	if len(src) == 0 {
		return nil
	}

	lexer := lexers.Get(t.lexer)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := lexer.Tokenise(nil, string(src))
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", t.lang, err)
	}

	var directives []span
	if t.yacc {
		directives = t.directives(src)
	}
	offset := 0
	for _, tok := range it.Tokens() {
		if len(tok.Value) == 0 {
			continue
		}
		if offset >= len(src) {
			break
		}
		n := min(len(tok.Value), len(src)-offset)
		s := span{start: offset, end: offset + n, class: classifyToken(tok.Type, tok.Value)}
		s.decl = tok.Type == chroma.NameFunction || tok.Type == chroma.NameLabel || tok.Type == chroma.NameClass
		offset += n
		directives = t.addClipped(s, directives)
	}
	for _, d := range directives {
		t.w.add(d)
	}
	return nil
}

func (t *lexerTokenizer) Step() (bool, error) {
	return t.w.step(), nil
}

// directives finds the % directives at line starts.
func (t *lexerTokenizer) directives(src []byte) []span {
	var out []span
	for _, loc := range yaccDirectivePattern.FindAllIndex(src, -1) {
		class := spanMacro
		if !yaccDirectives[string(src[loc[0]:loc[1]])] {
			class = spanYaccDirective
		}
		out = append(out, span{start: loc[0], end: loc[1], class: class})
	}
	return out
}

// addClipped adds s around the pending directive spans, which take
// precedence over the lexer's view of the same bytes. It returns the
// directives not yet added.
func (t *lexerTokenizer) addClipped(s span, pending []span) []span {
	if s.start < t.covered {
		s.start = t.covered
		s.class = demote(s.class)
	}
	for len(pending) > 0 && pending[0].start < s.end {
		d := pending[0]
		pending = pending[1:]
		if s.start < d.start {
			head := s
			head.end = d.start
			head.class = demote(head.class)
			t.w.add(head)
		}
		t.w.add(d)
		t.covered = d.end
		s.start = max(s.start, d.end)
		s.class = demote(s.class)
	}
	if s.start < s.end {
		t.w.add(s)
	}
	return pending
}

// demote turns a name cut by a directive into plain text.
func demote(c spanClass) spanClass {
	if c == spanName || c == spanInclude {
		return spanText
	}
	return c
}

func classifyToken(tt chroma.TokenType, value string) spanClass {
	switch {
	case tt == chroma.CommentPreprocFile:
		return spanInclude
	case tt.InSubCategory(chroma.CommentPreproc):
		return spanMacro
	case tt.InCategory(chroma.Comment):
		return spanComment
	case tt.InCategory(chroma.Keyword):
		return spanReserved
	case tt.InCategory(chroma.Punctuation) && (value == "{" || value == "}"):
		return spanBrace
	case tt.InCategory(chroma.Name) && isIdentifier(value):
		return spanName
	default:
		return spanText
	}
}

func isIdentifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && c != '.' && c != '$' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

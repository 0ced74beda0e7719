package markup

import (
	"github.com/skelly-dev/srcweb/internal/strbuf"
)

// Generator appends vocabulary-driven markup to caller-owned buffers.
type Generator struct {
	v Vocabulary
}

// NewGenerator returns a generator for v.
func NewGenerator(v Vocabulary) *Generator {
	return &Generator{v: v}
}

// Vocabulary returns the vocabulary in use.
func (g *Generator) Vocabulary() *Vocabulary { return &g.v }

// UpperDir returns the path of a sibling directory as seen from a page in
// the generated tree.
func (g *Generator) UpperDir(dir string) string { return "../" + dir }

// HrefBegin opens a link to dir/file.suffix#key. Empty arguments are left
// out; a key starting with a digit names a line and gets the "L" prefix.
func (g *Generator) HrefBegin(b *strbuf.Buffer, dir, file, suffix, key string) {
	g.HrefBeginWithTitle(b, dir, file, suffix, key, "")
}

// HrefBeginWithTitle is HrefBegin with a tooltip.
func (g *Generator) HrefBeginWithTitle(b *strbuf.Buffer, dir, file, suffix, key, title string) {
	b.AppendString("<a href='")
	if file != "" {
		if dir != "" {
			b.AppendString(dir)
			b.PushBack('/')
		}
		b.AppendString(file)
		if suffix != "" {
			b.PushBack('.')
			b.AppendString(suffix)
		}
	}
	if key != "" {
		b.PushBack('#')
		if key[0] >= '0' && key[0] <= '9' {
			b.PushBack('L')
		}
		b.AppendString(key)
	}
	b.PushBack('\'')
	if title != "" {
		b.AppendString(" title='")
		g.escapeAttr(b, title)
		b.PushBack('\'')
	}
	b.PushBack('>')
}

// HrefBeginSimple opens a link to url as given.
func (g *Generator) HrefBeginSimple(b *strbuf.Buffer, url string) {
	b.AppendString("<a href='")
	b.AppendString(url)
	b.AppendString("'>")
}

// HrefEnd closes a link.
func (g *Generator) HrefEnd(b *strbuf.Buffer) { b.AppendString("</a>") }

// Image appends an icon from dir's icon directory. alt is shown bracketed.
func (g *Generator) Image(b *strbuf.Buffer, dir, name, alt string) {
	b.AppendString("<img class='icon' src='")
	if dir != "" {
		b.AppendString(dir)
		b.PushBack('/')
	}
	b.AppendString(g.v.IconDir)
	b.PushBack('/')
	b.AppendString(name)
	b.PushBack('.')
	b.AppendString(g.v.IconSuffix)
	b.AppendString("' alt='[")
	b.AppendString(alt)
	b.AppendString("]' />")
}

// NameNumber appends the anchor of line n.
func (g *Generator) NameNumber(b *strbuf.Buffer, n int) {
	b.AppendString("<a id='L")
	b.AppendInt(n)
	b.AppendString("' name='L")
	b.AppendInt(n)
	b.AppendString("'></a>")
}

// NameString appends a named anchor.
func (g *Generator) NameString(b *strbuf.Buffer, name string) {
	b.AppendString("<a id='")
	b.AppendString(name)
	b.AppendString("' name='")
	b.AppendString(name)
	b.AppendString("'></a>")
}

// PageBegin appends the document head of a page one directory below the
// tree root.
func (g *Generator) PageBegin(b *strbuf.Buffer, title string) {
	if g.v.Doctype != "" {
		b.AppendString(g.v.Doctype)
		b.PushBack('\n')
	}
	b.AppendString("<html>\n<head>\n<meta http-equiv='Content-Type' content='text/html; charset=utf-8' />\n<title>")
	g.Escape(b, title)
	b.AppendString("</title>\n")
	if g.v.Stylesheet != "" {
		b.AppendString("<link rel='stylesheet' type='text/css' href='../")
		b.AppendString(g.v.Stylesheet)
		b.AppendString("' />\n")
	}
	b.AppendString("</head>")
}

// PageEnd appends the document tail.
func (g *Generator) PageEnd(b *strbuf.Buffer) { b.AppendString("</html>") }

func (g *Generator) escapeAttr(b *strbuf.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			b.AppendString("&#39;")
			continue
		}
		g.PutChar(b, s[i])
	}
}

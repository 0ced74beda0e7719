package markup

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/skelly-dev/srcweb/internal/strbuf"
)

// Quote returns the replacement for c, if c needs one.
func (g *Generator) Quote(c byte) (string, bool) {
	switch c {
	case '<':
		return g.v.QuoteLittle, true
	case '>':
		return g.v.QuoteGreat, true
	case '&':
		return g.v.QuoteAmp, true
	}
	return "", false
}

// PutChar appends c, quoted if needed.
func (g *Generator) PutChar(b *strbuf.Buffer, c byte) {
	if q, ok := g.Quote(c); ok {
		b.AppendString(q)
		return
	}
	b.PushBack(c)
}

// Escape appends s with every special character quoted.
func (g *Generator) Escape(b *strbuf.Buffer, s string) {
	start := 0
	for i := 0; i < len(s); i++ {
		q, ok := g.Quote(s[i])
		if !ok {
			continue
		}
		b.AppendString(s[start:i])
		b.AppendString(q)
		start = i + 1
	}
	b.AppendString(s[start:])
}

// EscapeBytes is Escape for a byte slice.
func (g *Generator) EscapeBytes(b *strbuf.Buffer, p []byte) {
	start := 0
	for i := 0; i < len(p); i++ {
		q, ok := g.Quote(p[i])
		if !ok {
			continue
		}
		b.Append(p[start:i])
		b.AppendString(q)
		start = i + 1
	}
	b.Append(p[start:])
}

// Detab appends line with tabs expanded to stops every tabs columns and
// special characters quoted. Columns follow the display width of each rune,
// so wide characters count twice.
func (g *Generator) Detab(b *strbuf.Buffer, line []byte, tabs int) {
	if tabs <= 0 {
		tabs = 8
	}
	col := 0
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == '\t':
			for {
				b.PushBack(' ')
				col++
				if col%tabs == 0 {
					break
				}
			}
			i++
		case c < utf8.RuneSelf:
			g.PutChar(b, c)
			col++
			i++
		default:
			r, size := utf8.DecodeRune(line[i:])
			b.Append(line[i : i+size])
			if r == utf8.RuneError && size == 1 {
				col++
			} else {
				col += runewidth.RuneWidth(r)
			}
			i += size
		}
	}
}

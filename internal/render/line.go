package render

import (
	"fmt"
	"strings"

	"github.com/skelly-dev/srcweb/internal/anchor"
)

// BeginLine starts source line n. On a definition line the guide is computed
// now; with the before policy it is written out ahead of the line.
func (r *Renderer) BeginLine(n int) {
	f := r.file
	if f.state != awaitingLine {
		r.fail(fmt.Errorf("%w: begin line %d while line %d is open", ErrLineState, n, f.line))
		return
	}
	f.state = inLine
	f.line = n

	if r.opts.Header == HeaderNone {
		return
	}
	if r.anchors.IsDefinitionLine(n) {
		r.generateGuide(n)
		f.guide = true
	} else {
		r.guideBuf.Clear()
		f.guide = false
	}
	if r.opts.Header == HeaderBefore && f.guide {
		r.emitBytes(r.guideBuf.Bytes())
		_ = r.out.WriteByte('\n')
		r.guideBuf.Clear()
		f.guide = false
	}
}

// EndLine flushes line n: anchor, number, warning markers, the buffered
// content and a pending guide.
func (r *Renderer) EndLine(n int) {
	f := r.file
	if f.state != inLine {
		r.fail(fmt.Errorf("%w: end line %d without begin", ErrLineState, n))
		return
	}
	f.state = flushing

	b := r.scratch
	b.Clear()
	r.gen.NameNumber(b, n)
	if r.opts.LineNumbers {
		b.AppendPadded(n, r.opts.NumberWidth)
		b.PushBack(' ')
	}
	if f.warned {
		b.AppendString(r.voc.WarnedLineBegin)
	}
	b.Append(r.outbuf.Bytes())
	if f.warned {
		b.AppendString(r.voc.WarnedLineEnd)
	}
	r.outbuf.Clear()
	if f.guide && r.opts.Header == HeaderRight {
		b.Append(r.guideBuf.Bytes())
	}
	b.PushBack('\n')
	if f.guide && r.opts.Header == HeaderAfter {
		b.Append(r.guideBuf.Bytes())
		b.PushBack('\n')
	}
	if _, err := b.WriteTo(r.out); err != nil {
		r.fail(err)
	}

	r.guideBuf.Clear()
	f.guide = false
	f.warned = false
	f.lastLine = n
	f.state = awaitingLine
}

// PutChar appends c, quoted if it is special.
func (r *Renderer) PutChar(c byte) { r.gen.PutChar(r.outbuf, c) }

// PutString appends s with special characters quoted.
func (r *Renderer) PutString(s string) { r.gen.Escape(r.outbuf, s) }

func (r *Renderer) EchoByte(c byte) { r.outbuf.PushBack(c) }

func (r *Renderer) Echo(s string) { r.outbuf.AppendString(s) }

func (r *Renderer) PutReserved(word string) {
	r.outbuf.AppendString(r.voc.ReservedBegin)
	r.outbuf.AppendString(word)
	r.outbuf.AppendString(r.voc.ReservedEnd)
}

func (r *Renderer) PutMacro(word string) {
	r.outbuf.AppendString(r.voc.SharpBegin)
	r.gen.Escape(r.outbuf, word)
	r.outbuf.AppendString(r.voc.SharpEnd)
}

func (r *Renderer) PutBrace(text string) {
	r.outbuf.AppendString(r.voc.BraceBegin)
	r.gen.Escape(r.outbuf, text)
	r.outbuf.AppendString(r.voc.BraceEnd)
}

// PutComment wraps one line's worth of comment text.
func (r *Renderer) PutComment(text string) {
	r.outbuf.AppendString(r.voc.CommentBegin)
	r.gen.Escape(r.outbuf, text)
	r.outbuf.AppendString(r.voc.CommentEnd)
}

// Anchor looks name up in the anchors of the current file.
func (r *Renderer) Anchor(name string, line int) (anchor.Anchor, bool) {
	return r.anchors.Get(name, line)
}

func (r *Renderer) UnknownDirective(word string, line int) {
	r.tokenWarning(fmt.Sprintf("unknown preprocessing directive '%s'.", strings.TrimSpace(word)), line)
}

func (r *Renderer) UnknownYaccDirective(word string, line int) {
	r.tokenWarning(fmt.Sprintf("unknown yacc directive '%s'.", strings.TrimSpace(word)), line)
}

func (r *Renderer) UnexpectedEOF(line int) {
	r.tokenWarning("unexpected eof.", line)
}

func (r *Renderer) MissingLeft(word string, line int) {
	r.tokenWarning(fmt.Sprintf("missing left '%s'.", word), line)
}

func (r *Renderer) tokenWarning(msg string, line int) {
	if !r.opts.Warnings {
		return
	}
	r.warn(msg, line)
	r.markWarned()
}

package render

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// RenderFile renders src, read from in, as one page written to out. With
// notSource set the file is copied verbatim with numbered lines and no
// cross references.
func (r *Renderer) RenderFile(ctx context.Context, src string, in io.Reader, out io.Writer, notSource bool) (Result, error) {
	start := time.Now()
	display := tags.DisplayPath(tags.NormalizePath(src))
	r.ctx = ctx
	r.out = bufio.NewWriter(out)
	r.file = &fileState{path: display, state: awaitingLine}
	r.err = nil
	r.outbuf.Clear()
	r.guideBuf.Clear()
	defer r.release()

	if !notSource {
		facts, err := r.store.Anchors(ctx, tags.NormalizePath(src))
		if err != nil {
			return Result{}, fmt.Errorf("load anchors of %s: %w", display, err)
		}
		r.anchors = anchor.New(facts)
	} else {
		r.anchors = anchor.New(nil)
	}

	if err := r.header(display); err != nil {
		return Result{}, err
	}
	var err error
	if notSource {
		err = r.verbatim(in)
	} else {
		err = r.source(display, in)
	}
	if err != nil {
		return Result{}, err
	}
	r.footer()

	if err := r.out.Flush(); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", display, err)
	}
	if r.err != nil {
		return Result{}, r.err
	}
	return Result{
		Path:     display,
		Language: r.file.lang,
		Lines:    r.file.lastLine,
		Links:    r.file.links,
		Warnings: r.file.warnings,
		Elapsed:  time.Since(start),
	}, nil
}

// release drops the per-file state.
func (r *Renderer) release() {
	r.anchors = nil
	r.out = nil
	r.ctx = nil
}

func (r *Renderer) header(src string) error {
	v := r.voc
	b := r.scratch
	b.Clear()
	r.gen.PageBegin(b, src)
	b.PushBack('\n')
	b.AppendString(v.BodyBegin)
	b.PushBack('\n')

	if r.opts.FixedGuide {
		crumb := r.crumbBuf
		crumb.Clear()
		r.fillAnchor(crumb, "", src)
		if err := r.fixedGuideLinkFormat(b, r.anchors.LinksFor(anchor.TopOfPage), crumb.Bytes()); err != nil {
			return err
		}
	}
	if r.opts.HeaderHTML != "" {
		b.AppendString(r.opts.HeaderHTML)
	}

	r.gen.NameString(b, "TOP")
	b.AppendString(v.HeaderBegin)
	r.fillAnchor(b, "../mains."+v.Suffix, src)
	r.cvsLink(b, src)
	b.AppendString(v.HeaderEnd)
	b.PushBack('\n')

	r.navComment(b, r.anchors.LinksFor(anchor.TopOfPage), 1)
	b.AppendString(v.Hr)
	b.PushBack('\n')
	return r.flushScratch()
}

func (r *Renderer) flushScratch() error {
	if _, err := r.scratch.WriteTo(r.out); err != nil {
		return fmt.Errorf("write %s: %w", r.file.path, err)
	}
	r.scratch.Clear()
	return nil
}

// verbatim copies a non-source file with numbered lines.
func (r *Renderer) verbatim(in io.Reader) error {
	v := r.voc
	r.emitNL(v.VerbatimBegin)
	br := bufio.NewReader(in)
	b := r.scratch
	n := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			n++
			line = bytes.TrimRight(line, "\r\n")
			b.Clear()
			r.gen.NameNumber(b, n)
			if r.opts.LineNumbers {
				b.AppendPadded(n, r.opts.NumberWidth)
				b.PushBack(' ')
			}
			r.gen.Detab(b, line, r.opts.Tabs)
			b.PushBack('\n')
			if err := r.flushScratch(); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", r.file.path, err)
		}
	}
	r.file.lastLine = n
	r.emitNL(v.VerbatimEnd)
	return nil
}

func (r *Renderer) source(src string, in io.Reader) error {
	v := r.voc
	if err := r.includedFrom(src); err != nil {
		return err
	}
	r.definitionIndex()

	r.emitNL(v.VerbatimBegin)
	entry := r.registry.Lookup(r.registry.LanguageForFile(src))
	r.file.lang = entry.Language
	tok := entry.New()
	if err := tok.Init(in, r); err != nil {
		return fmt.Errorf("tokenize %s: %w", src, err)
	}
	for {
		more, err := tok.Step()
		if err != nil {
			return fmt.Errorf("tokenize %s: %w", src, err)
		}
		if r.err != nil {
			return r.err
		}
		if !more {
			break
		}
	}
	if r.file.state != awaitingLine {
		return fmt.Errorf("%w: line %d left open", ErrLineState, r.file.line)
	}
	r.emitNL(v.VerbatimEnd)
	return nil
}

// includedFrom writes the block linking to the files that include src.
func (r *Renderer) includedFrom(src string) error {
	inc, ok, err := r.store.Included(r.ctx, path.Base(src))
	if err != nil {
		return fmt.Errorf("included from %s: %w", src, err)
	}
	if !ok || inc.Count < 1 {
		return nil
	}
	v := r.voc
	b := r.scratch
	b.Clear()
	b.AppendString(v.HeaderBegin)
	if inc.Count > 1 {
		title := "Multiple included from " + strconv.Itoa(inc.Count) + " places."
		r.gen.HrefBeginWithTitle(b, r.gen.UpperDir(v.Dirs.IncludeRefs), strconv.Itoa(inc.ID), v.Suffix, "", title)
	} else {
		if inc.Path == "" || inc.Line < 1 {
			return fmt.Errorf("%w: %s has one includer without a location", ErrIncludeRecord, src)
		}
		fid, found := r.paths.PathToID(inc.Path)
		if !found {
			return fmt.Errorf("%w: %s is included from unknown file %s", ErrIncludeRecord, src, inc.Path)
		}
		title := "Included from " + strconv.Itoa(inc.Line) + " in " + tags.DisplayPath(inc.Path) + "."
		r.gen.HrefBeginWithTitle(b, "", fid, v.Suffix, strconv.Itoa(inc.Line), title)
	}
	b.AppendString(v.TitleIncludedFrom)
	r.gen.HrefEnd(b)
	b.AppendString(v.HeaderEnd)
	b.PushBack('\n')
	b.AppendString(v.Hr)
	b.PushBack('\n')
	return r.flushScratch()
}

// definitionIndex writes the list of definitions in the file, if any.
func (r *Renderer) definitionIndex() {
	v := r.voc
	items := r.indexBuf
	items.Clear()
	for a := range r.anchors.Definitions() {
		line := strconv.Itoa(a.Line)
		items.AppendString(v.ItemBegin)
		r.gen.HrefBeginWithTitle(items, "", "", "", line, "Defined at "+line+".")
		r.gen.Escape(items, a.Tag)
		r.gen.HrefEnd(items)
		items.AppendString(v.ItemEnd)
		items.PushBack('\n')
	}
	if items.Empty() {
		return
	}
	r.emit(v.HeaderBegin)
	r.emit(v.TitleDefineIndex)
	r.emitNL(v.HeaderEnd)
	r.emitNL("This source file includes following definitions.")
	r.emitNL(v.ListBegin)
	r.emitBytes(items.Bytes())
	r.emitNL(v.ListEnd)
	r.emitNL(v.Hr)
}

func (r *Renderer) footer() {
	v := r.voc
	b := r.scratch
	b.Clear()
	b.AppendString(v.Hr)
	b.PushBack('\n')
	r.gen.NameString(b, "BOTTOM")
	b.PushBack('\n')
	r.navComment(b, r.anchors.LinksFor(anchor.BottomOfPage), r.file.lastLine)
	if r.opts.FooterHTML != "" {
		b.AppendString(v.Br)
		b.PushBack('\n')
		b.AppendString(r.opts.FooterHTML)
	}
	b.AppendString(v.BodyEnd)
	b.PushBack('\n')
	r.gen.PageEnd(b)
	b.PushBack('\n')
	if err := r.flushScratch(); err != nil {
		r.fail(err)
	}
}

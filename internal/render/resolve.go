package render

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/skelly-dev/srcweb/internal/strbuf"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// singleVerb is the tooltip verb of a single-location link.
func singleVerb(kind tags.Kind) string {
	switch kind {
	case tags.Definition:
		return "Defined at"
	case tags.OtherReference:
		return "Referred from"
	default:
		return "Used at"
	}
}

// aggregateVerb is the tooltip verb of a many-locations link.
func aggregateVerb(kind tags.Kind) string {
	switch kind {
	case tags.Definition:
		return "defined in"
	case tags.OtherReference:
		return "referred from"
	default:
		return "used in"
	}
}

// queryType is the type parameter of the dynamic query page.
func queryType(ns tags.Namespace) string {
	switch ns {
	case tags.Definitions:
		return "definitions"
	default:
		return "reference"
	}
}

// PutAnchor resolves one occurrence of name and appends it, linked when the
// tag store knows it.
func (r *Renderer) PutAnchor(name string, kind tags.Kind, line int) {
	r.putAnchor(name, kind, line, r.opts.Warnings && kind.Warns())
}

// PutAnchorForce resolves span as a definition lookup. Warnings are off for
// forced lookups.
func (r *Renderer) PutAnchorForce(span []byte, line int) {
	b := r.spanBuf
	b.Clear()
	b.AppendSized(span)
	r.putAnchor(b.String(), tags.Definition, line, false)
}

func (r *Renderer) putAnchor(name string, kind tags.Kind, line int, warn bool) {
	if r.err != nil {
		return
	}
	ns := kind.Namespace()
	rec, err := r.records.Record(r.ctx, ns, name)
	if err != nil {
		r.fail(fmt.Errorf("lookup %s %q: %w", ns, name, err))
		return
	}
	r.recBuf.Clear()
	r.recBuf.AppendSized(rec)
	res, err := tags.DecodeRecord(r.recBuf.Bytes())
	if err != nil {
		r.fail(fmt.Errorf("lookup %s %q: %w", ns, name, err))
		return
	}

	b := r.outbuf
	if res.Shape == tags.NotFound {
		if warn {
			r.warn(fmt.Sprintf("%s(%s) found but not defined.", name, kind), line)
			r.markWarned()
		}
		b.AppendString(name)
		return
	}
	// Symbols never link, whatever the store knows about them.
	if kind == tags.Symbol {
		b.AppendString(name)
		return
	}
	if res.Shape == tags.Aggregate {
		r.aggregateLink(b, name, kind, res)
	} else if !r.singleLink(b, name, kind, res) {
		return
	}
	b.AppendString(name)
	r.gen.HrefEnd(b)
	r.file.links++
}

func (r *Renderer) aggregateLink(b *strbuf.Buffer, name string, kind tags.Kind, res tags.Resolution) {
	title := "Multiple " + aggregateVerb(kind) + " " + strconv.Itoa(res.Count) + " places."
	ns := kind.Namespace()
	if !r.opts.Dynamic {
		r.gen.HrefBeginWithTitle(b, r.gen.UpperDir(r.dirFor(ns)), res.FileID, r.voc.Suffix, "", title)
		return
	}

	q := r.queryBuf
	q.Clear()
	q.AppendString(r.opts.Action)
	q.AppendString("?pattern=")
	q.AppendString(name)
	q.AppendString(r.voc.QuoteAmp)
	if r.opts.SiteKey != "" {
		q.AppendString("id=")
		q.AppendString(r.opts.SiteKey)
		q.AppendString(r.voc.QuoteAmp)
	}
	q.AppendString("type=")
	q.AppendString(queryType(ns))

	dir := ".."
	if strings.HasPrefix(r.opts.Action, "/") {
		dir = ""
	}
	r.gen.HrefBeginWithTitle(b, dir, q.String(), "", "", title)
}

// singleLink opens the link of a single resolution. It reports false after
// failing the render on a record that names an unknown file.
func (r *Renderer) singleLink(b *strbuf.Buffer, name string, kind tags.Kind, res tags.Resolution) bool {
	display := res.Path
	if display == "" {
		p, ok := r.paths.IDToPath(res.FileID)
		if !ok {
			r.fail(fmt.Errorf("%w: %q points to unknown file id %q", tags.ErrMalformedRecord, name, res.FileID))
			return false
		}
		display = p
	}
	title := singleVerb(kind) + " " + strconv.Itoa(res.Line) + " in " + tags.DisplayPath(display) + "."
	r.gen.HrefBeginWithTitle(b, r.gen.UpperDir(r.voc.Dirs.Sources), res.FileID, r.voc.Suffix, strconv.Itoa(res.Line), title)
	return true
}

func (r *Renderer) dirFor(ns tags.Namespace) string {
	switch ns {
	case tags.Definitions:
		return r.voc.Dirs.Definitions
	default:
		return r.voc.Dirs.References
	}
}

// PutInclude links the target of an include directive to the file it can
// refer to, or to the list of candidates when there are several.
func (r *Renderer) PutInclude(target, display string) {
	if r.err != nil {
		return
	}
	b := r.outbuf
	inc, ok, err := r.store.Candidates(r.ctx, path.Base(target))
	if err != nil {
		r.fail(fmt.Errorf("include candidates for %q: %w", target, err))
		return
	}
	if !ok || inc.Count < 1 {
		r.gen.Escape(b, display)
		return
	}
	if inc.Count == 1 {
		fid, found := r.paths.PathToID(inc.Path)
		if !found {
			r.gen.Escape(b, display)
			return
		}
		r.gen.HrefBegin(b, "", fid, r.voc.Suffix, "")
	} else {
		r.gen.HrefBegin(b, r.gen.UpperDir(r.voc.Dirs.Includes), strconv.Itoa(inc.ID), r.voc.Suffix, "")
	}
	r.gen.Escape(b, display)
	r.gen.HrefEnd(b)
	r.file.links++
}

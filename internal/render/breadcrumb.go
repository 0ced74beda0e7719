package render

import (
	"strings"

	"github.com/skelly-dev/srcweb/internal/strbuf"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// fillAnchor appends the breadcrumb of src. Every directory component links
// to its listing page and the last component links to the page of src
// itself. A non-empty root is linked first.
func (r *Renderer) fillAnchor(b *strbuf.Buffer, root, src string) {
	src = strings.TrimPrefix(src, "./")
	if root != "" {
		b.AppendString("<a href='")
		b.AppendString(root)
		b.AppendString("'>root</a>/")
	}

	parts := strings.Split(src, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		last := i == len(parts)-1
		prefix := strings.Join(parts[:i+1], "/")
		dir := r.voc.Dirs.Files
		if last {
			dir = r.voc.Dirs.Sources
		}
		if id, ok := r.paths.PathToID(tags.NormalizePath(prefix)); ok {
			r.gen.HrefBegin(b, r.gen.UpperDir(dir), id, r.voc.Suffix, "")
			r.gen.Escape(b, part)
			r.gen.HrefEnd(b)
		} else {
			r.gen.Escape(b, part)
		}
		if !last {
			b.PushBack('/')
		}
	}
}

package render

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skelly-dev/srcweb/internal/strbuf"
)

// ModuleLookup returns the version control module a directory belongs to.
type ModuleLookup interface {
	Module(dir string) (string, bool)
}

// CVSModules reads the module name from CVS/Repository files. Results are
// cached per directory. It is safe for concurrent use.
type CVSModules struct {
	mu    sync.Mutex
	cache map[string]string
}

// NewCVSModules returns an empty lookup.
func NewCVSModules() *CVSModules {
	return &CVSModules{cache: make(map[string]string)}
}

func (c *CVSModules) Module(dir string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.cache[dir]; ok {
		return m, m != ""
	}
	m := readRepository(filepath.Join(dir, "CVS", "Repository"))
	c.cache[dir] = m
	return m, m != ""
}

func readRepository(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

// encodeURL appends s percent-encoded. Alphanumerics and "-._~/" pass
// through.
func encodeURL(b *strbuf.Buffer, s string) {
	const hex = "0123456789abcdef"
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
			strings.IndexByte("-._~/", c) >= 0 {
			b.PushBack(c)
			continue
		}
		b.PushBack('%')
		b.PushBack(hex[c>>4])
		b.PushBack(hex[c&0xf])
	}
}

// cvsLink appends the version control link of src, or nothing when no
// repository browser is configured.
func (r *Renderer) cvsLink(b *strbuf.Buffer, src string) {
	if r.opts.CVSWebURL == "" {
		return
	}
	src = strings.TrimPrefix(src, "./")
	u := r.queryBuf
	u.Clear()
	u.AppendString(r.opts.CVSWebURL)
	target := src
	if r.opts.UseCVSModule {
		if module, ok := r.modules.Module(filepath.Dir(src)); ok {
			target = module + "/" + filepath.Base(src)
		}
	}
	encodeURL(u, target)
	if r.opts.CVSRoot != "" {
		u.AppendString("?cvsroot=")
		encodeURL(u, r.opts.CVSRoot)
	}

	b.AppendString(r.voc.QuoteSpace)
	r.gen.HrefBeginSimple(b, u.String())
	b.AppendString(r.voc.CvslinkBegin)
	b.AppendString("[CVS]")
	b.AppendString(r.voc.CvslinkEnd)
	r.gen.HrefEnd(b)
	b.PushBack('\n')
}

// Package tags defines the tag store the renderer resolves names against,
// the byte records its cache keeps and an in-memory store.
package tags

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/skelly-dev/srcweb/internal/anchor"
)

// ErrMalformedRecord reports a tag record that breaks the record format. It
// means the tag database is corrupt and rendering must stop.
var ErrMalformedRecord = errors.New("malformed tag record")

// Namespace selects one of the three tag stores.
type Namespace int

const (
	Definitions Namespace = iota
	References
	Symbols
)

func (ns Namespace) String() string {
	switch ns {
	case Definitions:
		return "definitions"
	case References:
		return "references"
	case Symbols:
		return "symbols"
	default:
		return "unknown"
	}
}

// Table returns the database table backing the namespace.
func (ns Namespace) Table() string { return ns.String() }

// Kind is the role a resolved occurrence is looked up for.
type Kind int

const (
	// Definition resolves a use of a name to where it is defined.
	Definition Kind = iota
	// Reference resolves a definition to where it is used.
	Reference
	// Symbol resolves a plain indexed token. Symbols are never linked.
	Symbol
	// OtherReference resolves a definition-like occurrence (macro names,
	// typedef names) to where it is referred from.
	OtherReference
)

func (k Kind) String() string {
	switch k {
	case Definition:
		return "definition"
	case Reference:
		return "reference"
	case Symbol:
		return "symbol"
	case OtherReference:
		return "other-reference"
	default:
		return "unknown"
	}
}

// Namespace returns the store a kind is resolved against.
func (k Kind) Namespace() Namespace {
	switch k {
	case Definition:
		return Definitions
	case Symbol:
		return Symbols
	default:
		return References
	}
}

// Warns reports whether an unresolved occurrence of this kind is worth a
// warning.
func (k Kind) Warns() bool { return k == Definition || k == Reference }

// KindForSite maps the site of an anchor to the lookup its occurrence needs:
// a reference site links to the definition and a definition site links to
// its uses.
func KindForSite(site anchor.Site) Kind {
	switch site {
	case anchor.SiteReference:
		return Definition
	case anchor.SiteDefinition:
		return Reference
	default:
		return Symbol
	}
}

// Shape tells the resolution variants apart.
type Shape int

const (
	NotFound Shape = iota
	Single
	Aggregate
)

// Resolution is what a lookup returns for one name.
type Resolution struct {
	Shape  Shape
	Line   int    // Single only
	FileID string // target file id (Single) or aggregate page id (Aggregate)
	Path   string // display path, Single only; may be empty
	Count  int    // Aggregate only
}

// Inclusion answers the include questions for a basename. Line and Path are
// only meaningful when Count is 1.
type Inclusion struct {
	ID    int
	Count int
	Line  int
	Path  string
}

// Store is the read side of the tag database.
type Store interface {
	Lookup(ctx context.Context, ns Namespace, name string) (Resolution, error)
	// Anchors returns every tagged occurrence in one file.
	Anchors(ctx context.Context, path string) ([]anchor.Anchor, error)
	// Included describes the files that include basename.
	Included(ctx context.Context, basename string) (Inclusion, bool, error)
	// Candidates describes the files an include of basename can refer to.
	Candidates(ctx context.Context, basename string) (Inclusion, bool, error)
}

// Paths converts between source paths and the file ids used in page names.
type Paths interface {
	PathToID(path string) (string, bool)
	IDToPath(id string) (string, bool)
}

// NormalizePath returns p in the "./dir/file" form tag facts use.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	if p == "." {
		return "."
	}
	return "./" + strings.TrimPrefix(p, "./")
}

// DisplayPath strips the leading "./" of a normalized path.
func DisplayPath(p string) string { return strings.TrimPrefix(p, "./") }

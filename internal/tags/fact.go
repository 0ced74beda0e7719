package tags

import (
	"fmt"
	"io"
	"strings"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/fileutil"
)

// Fact kinds as they appear in indexer output.
const (
	FactDefinition = "def"
	FactReference  = "ref"
	FactSymbol     = "sym"
	FactInclude    = "include"
)

// Fact is one line of indexer output.
type Fact struct {
	Kind   string `json:"kind"`
	Name   string `json:"name,omitempty"`
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Target string `json:"target,omitempty"`
}

// Validate checks the fields a fact of its kind needs.
func (f Fact) Validate() error {
	if strings.TrimSpace(f.Path) == "" {
		return fmt.Errorf("fact without path")
	}
	if f.Line < 1 {
		return fmt.Errorf("fact %q in %s: line must be >= 1", f.Name, f.Path)
	}
	switch f.Kind {
	case FactDefinition, FactReference, FactSymbol:
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%s fact in %s:%d without name", f.Kind, f.Path, f.Line)
		}
	case FactInclude:
		if strings.TrimSpace(f.Target) == "" {
			return fmt.Errorf("include fact in %s:%d without target", f.Path, f.Line)
		}
	default:
		return fmt.Errorf("unknown fact kind %q", f.Kind)
	}
	return nil
}

// Namespace returns the store a tag fact belongs to.
func (f Fact) Namespace() (Namespace, bool) {
	switch f.Kind {
	case FactDefinition:
		return Definitions, true
	case FactReference:
		return References, true
	case FactSymbol:
		return Symbols, true
	default:
		return 0, false
	}
}

// SiteOf returns the anchor site for the store a fact was filed under.
func SiteOf(ns Namespace) anchor.Site {
	switch ns {
	case Definitions:
		return anchor.SiteDefinition
	case References:
		return anchor.SiteReference
	default:
		return anchor.SiteSymbol
	}
}

// ReadFacts decodes JSONL facts from r and validates each one.
func ReadFacts(r io.Reader, fn func(Fact) error) error {
	return fileutil.DecodeJSONL(r, func(line int, f Fact) error {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		return fn(f)
	})
}

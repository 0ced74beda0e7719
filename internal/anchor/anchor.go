// Package anchor holds the per-file anchor index: every tagged occurrence in
// one source file, ordered by line, plus the navigation links derived from
// the definition lines.
package anchor

import (
	"iter"
	"sort"
)

// Site says what a tagged occurrence is at its location.
type Site byte

const (
	SiteDefinition Site = 'D'
	SiteReference  Site = 'R'
	SiteSymbol     Site = 'Y'
)

func (s Site) String() string {
	switch s {
	case SiteDefinition:
		return "definition"
	case SiteReference:
		return "reference"
	case SiteSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Anchor is one tagged occurrence.
type Anchor struct {
	Line int    `json:"line"`
	Site Site   `json:"site"`
	Tag  string `json:"tag"`
}

// Slot names one navigation direction. Prev through Bottom are data slots
// carried in Links; IndexSlot and HelpSlot are static.
type Slot int

const (
	Prev Slot = iota
	Next
	First
	Last
	Top
	Bottom
	IndexSlot
	HelpSlot

	// SlotLimit is the number of slots a guide renders.
	SlotLimit = int(HelpSlot) + 1
)

var slotNames = [...]string{"prev", "next", "first", "last", "top", "bottom", "index", "help"}

func (s Slot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return "invalid"
	}
	return slotNames[s]
}

// Sentinel slot values.
const (
	Absent     = 0
	PageTop    = -1
	PageBottom = -2
)

// Line numbers LinksFor accepts for the page boundaries.
const (
	TopOfPage    = 0
	BottomOfPage = -1
)

// Links is the navigation record for one line: one value per data slot,
// each Absent, a line number, PageTop or PageBottom.
type Links [Bottom + 1]int

// Index is the anchor index for one file. A nil *Index behaves as an index
// without anchors.
type Index struct {
	anchors []Anchor
	defs    []int
}

// New builds an index. The input order of anchors sharing a line is kept.
func New(anchors []Anchor) *Index {
	sorted := make([]Anchor, len(anchors))
	copy(sorted, anchors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Line < sorted[j].Line
	})

	defs := make([]int, 0)
	for _, a := range sorted {
		if a.Site != SiteDefinition {
			continue
		}
		if n := len(defs); n > 0 && defs[n-1] == a.Line {
			continue
		}
		defs = append(defs, a.Line)
	}
	return &Index{anchors: sorted, defs: defs}
}

// Len returns the number of anchors.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.anchors)
}

// Get returns the first anchor named name on line.
func (x *Index) Get(name string, line int) (Anchor, bool) {
	if x == nil {
		return Anchor{}, false
	}
	i := sort.Search(len(x.anchors), func(i int) bool { return x.anchors[i].Line >= line })
	for ; i < len(x.anchors) && x.anchors[i].Line == line; i++ {
		if x.anchors[i].Tag == name {
			return x.anchors[i], true
		}
	}
	return Anchor{}, false
}

// IsDefinitionLine reports whether some definition sits on line.
func (x *Index) IsDefinitionLine(line int) bool {
	if x == nil {
		return false
	}
	i := sort.SearchInts(x.defs, line)
	return i < len(x.defs) && x.defs[i] == line
}

// LinksFor returns the navigation record for line. TopOfPage and
// BottomOfPage ask for the records printed above and below the source.
func (x *Index) LinksFor(line int) Links {
	var links Links
	if line != TopOfPage {
		links[Top] = PageTop
	}
	if line != BottomOfPage {
		links[Bottom] = PageBottom
	}
	if x == nil || len(x.defs) == 0 {
		return links
	}

	first, last := x.defs[0], x.defs[len(x.defs)-1]
	links[First] = first
	links[Last] = last
	if line < 1 {
		return links
	}

	if line == first {
		links[First] = PageTop
	}
	if line == last {
		links[Last] = PageBottom
	}
	i := sort.SearchInts(x.defs, line)
	if i > 0 {
		links[Prev] = x.defs[i-1]
	}
	if i < len(x.defs) && x.defs[i] == line {
		i++
	}
	if i < len(x.defs) {
		links[Next] = x.defs[i]
	}
	return links
}

// Definitions yields the definition anchors in line order. The sequence can
// be ranged over any number of times.
func (x *Index) Definitions() iter.Seq[Anchor] {
	return func(yield func(Anchor) bool) {
		if x == nil {
			return
		}
		for _, a := range x.anchors {
			if a.Site != SiteDefinition {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

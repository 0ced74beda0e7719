// Package markup holds the output vocabulary: every tag and wrapper string a
// rendered page is made of, and the helpers that build links and anchors from
// it. The engine never hard-codes markup; swapping the Vocabulary changes the
// output dialect.
package markup

import "fmt"

// Vocabulary is the configuration-supplied set of markup strings.
type Vocabulary struct {
	QuoteLittle string `mapstructure:"quote_little" yaml:"quote_little"`
	QuoteGreat  string `mapstructure:"quote_great" yaml:"quote_great"`
	QuoteAmp    string `mapstructure:"quote_amp" yaml:"quote_amp"`
	QuoteSpace  string `mapstructure:"quote_space" yaml:"quote_space"`

	ReservedBegin   string `mapstructure:"reserved_begin" yaml:"reserved_begin"`
	ReservedEnd     string `mapstructure:"reserved_end" yaml:"reserved_end"`
	SharpBegin      string `mapstructure:"sharp_begin" yaml:"sharp_begin"`
	SharpEnd        string `mapstructure:"sharp_end" yaml:"sharp_end"`
	BraceBegin      string `mapstructure:"brace_begin" yaml:"brace_begin"`
	BraceEnd        string `mapstructure:"brace_end" yaml:"brace_end"`
	CommentBegin    string `mapstructure:"comment_begin" yaml:"comment_begin"`
	CommentEnd      string `mapstructure:"comment_end" yaml:"comment_end"`
	WarnedLineBegin string `mapstructure:"warned_line_begin" yaml:"warned_line_begin"`
	WarnedLineEnd   string `mapstructure:"warned_line_end" yaml:"warned_line_end"`
	PositionBegin   string `mapstructure:"position_begin" yaml:"position_begin"`
	PositionEnd     string `mapstructure:"position_end" yaml:"position_end"`
	HeaderBegin     string `mapstructure:"header_begin" yaml:"header_begin"`
	HeaderEnd       string `mapstructure:"header_end" yaml:"header_end"`
	CvslinkBegin    string `mapstructure:"cvslink_begin" yaml:"cvslink_begin"`
	CvslinkEnd      string `mapstructure:"cvslink_end" yaml:"cvslink_end"`
	ListBegin       string `mapstructure:"list_begin" yaml:"list_begin"`
	ListEnd         string `mapstructure:"list_end" yaml:"list_end"`
	ItemBegin       string `mapstructure:"item_begin" yaml:"item_begin"`
	ItemEnd         string `mapstructure:"item_end" yaml:"item_end"`
	VerbatimBegin   string `mapstructure:"verbatim_begin" yaml:"verbatim_begin"`
	VerbatimEnd     string `mapstructure:"verbatim_end" yaml:"verbatim_end"`
	GuideBegin      string `mapstructure:"guide_begin" yaml:"guide_begin"`
	GuideEnd        string `mapstructure:"guide_end" yaml:"guide_end"`
	GuideUnitBegin  string `mapstructure:"guide_unit_begin" yaml:"guide_unit_begin"`
	GuideUnitEnd    string `mapstructure:"guide_unit_end" yaml:"guide_unit_end"`
	GuidePathBegin  string `mapstructure:"guide_path_begin" yaml:"guide_path_begin"`
	GuidePathEnd    string `mapstructure:"guide_path_end" yaml:"guide_path_end"`
	BodyBegin       string `mapstructure:"body_begin" yaml:"body_begin"`
	BodyEnd         string `mapstructure:"body_end" yaml:"body_end"`
	Hr              string `mapstructure:"hr" yaml:"hr"`
	Br              string `mapstructure:"br" yaml:"br"`
	Doctype         string `mapstructure:"doctype" yaml:"doctype"`
	Stylesheet      string `mapstructure:"stylesheet" yaml:"stylesheet"`

	TitleDefineIndex  string `mapstructure:"title_define_index" yaml:"title_define_index"`
	TitleIncludedFrom string `mapstructure:"title_included_from" yaml:"title_included_from"`

	// Per-slot labels in guide order: prev, next, first, last, top,
	// bottom, index, help.
	AnchorLabel   []string `mapstructure:"anchor_label" yaml:"anchor_label"`
	AnchorComment []string `mapstructure:"anchor_comment" yaml:"anchor_comment"`
	AnchorIcons   []string `mapstructure:"anchor_icons" yaml:"anchor_icons"`
	IconDir       string   `mapstructure:"icon_dir" yaml:"icon_dir"`
	IconSuffix    string   `mapstructure:"icon_suffix" yaml:"icon_suffix"`

	// Suffix is the extension of generated pages.
	Suffix string `mapstructure:"suffix" yaml:"suffix"`

	Dirs Dirs `mapstructure:"dirs" yaml:"dirs"`
}

// Dirs names the directories of the generated tree.
type Dirs struct {
	Sources     string `mapstructure:"sources" yaml:"sources"`
	Definitions string `mapstructure:"definitions" yaml:"definitions"`
	References  string `mapstructure:"references" yaml:"references"`
	Symbols     string `mapstructure:"symbols" yaml:"symbols"`
	Includes    string `mapstructure:"includes" yaml:"includes"`
	IncludeRefs string `mapstructure:"include_refs" yaml:"include_refs"`
	Files       string `mapstructure:"files" yaml:"files"`
}

// Default returns the HTML vocabulary.
func Default() Vocabulary {
	return Vocabulary{
		QuoteLittle: "&lt;",
		QuoteGreat:  "&gt;",
		QuoteAmp:    "&amp;",
		QuoteSpace:  "&nbsp;",

		ReservedBegin:   "<strong class='reserved'>",
		ReservedEnd:     "</strong>",
		SharpBegin:      "<em class='sharp'>",
		SharpEnd:        "</em>",
		BraceBegin:      "<em class='brace'>",
		BraceEnd:        "</em>",
		CommentBegin:    "<em class='comment'>",
		CommentEnd:      "</em>",
		WarnedLineBegin: "<span class='curline'>",
		WarnedLineEnd:   "</span>",
		PositionBegin:   "<span class='position'>",
		PositionEnd:     "</span>",
		HeaderBegin:     "<h2 class='header'>",
		HeaderEnd:       "</h2>",
		CvslinkBegin:    "<span class='cvs'>",
		CvslinkEnd:      "</span>",
		ListBegin:       "<ol>",
		ListEnd:         "</ol>",
		ItemBegin:       "<li>",
		ItemEnd:         "</li>",
		VerbatimBegin:   "<pre>",
		VerbatimEnd:     "</pre>",
		GuideBegin:      "<div id='guide'><ul>",
		GuideEnd:        "</ul></div>",
		GuideUnitBegin:  "<li>",
		GuideUnitEnd:    "</li>",
		GuidePathBegin:  "<li class='standout'><span>",
		GuidePathEnd:    "</span></li>",
		BodyBegin:       "<body>",
		BodyEnd:         "</body>",
		Hr:              "<hr />",
		Br:              "<br />",
		Doctype:         "<!DOCTYPE html>",
		Stylesheet:      "style.css",

		TitleDefineIndex:  "Definitions",
		TitleIncludedFrom: "Included from",

		AnchorLabel:   []string{"&lt;", "&gt;", "^", "v", "top", "bottom", "index", "help"},
		AnchorComment: []string{"previous", "next", "first", "last", "top", "bottom", "index", "help"},
		AnchorIcons:   []string{"left", "right", "first", "last", "top", "bottom", "index", "help"},
		IconDir:       "icons",
		IconSuffix:    "png",

		Suffix: "html",

		Dirs: Dirs{
			Sources:     "S",
			Definitions: "D",
			References:  "R",
			Symbols:     "Y",
			Includes:    "I",
			IncludeRefs: "J",
			Files:       "files",
		},
	}
}

// slotCount matches the guide slots: six data slots plus index and help.
const slotCount = 8

// Validate reports vocabularies the renderer cannot use.
func (v Vocabulary) Validate() error {
	for name, set := range map[string][]string{
		"anchor_label":   v.AnchorLabel,
		"anchor_comment": v.AnchorComment,
		"anchor_icons":   v.AnchorIcons,
	} {
		if len(set) != slotCount {
			return fmt.Errorf("vocabulary %s: want %d entries, got %d", name, slotCount, len(set))
		}
	}
	if v.Suffix == "" {
		return fmt.Errorf("vocabulary suffix must not be empty")
	}
	return nil
}

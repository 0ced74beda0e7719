// Package render turns one source file into a cross-referenced page.
//
// A Renderer owns the per-line output buffer, its scratch buffers and the
// render context of the file being rendered. It is not safe for concurrent
// use; give every worker its own Renderer.
package render

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/markup"
	"github.com/skelly-dev/srcweb/internal/parser"
	"github.com/skelly-dev/srcweb/internal/strbuf"
	"github.com/skelly-dev/srcweb/internal/tags"
)

var (
	// ErrUnknownSlot is returned for a navigation slot outside the guide.
	ErrUnknownSlot = errors.New("unknown navigation slot")
	// ErrLineState is returned when a tokenizer breaks the
	// BeginLine/EndLine protocol.
	ErrLineState = errors.New("line state violation")
	// ErrIncludeRecord is returned for an inclusion record that names a
	// single including file without a usable location.
	ErrIncludeRecord = errors.New("malformed include record")
)

// HeaderPolicy places the definition guide relative to its line.
type HeaderPolicy int

const (
	HeaderNone HeaderPolicy = iota
	HeaderBefore
	HeaderRight
	HeaderAfter
)

func (p HeaderPolicy) String() string {
	switch p {
	case HeaderBefore:
		return "before"
	case HeaderRight:
		return "right"
	case HeaderAfter:
		return "after"
	default:
		return "none"
	}
}

// ParseHeaderPolicy parses none, before, right or after.
func ParseHeaderPolicy(s string) (HeaderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return HeaderNone, nil
	case "before":
		return HeaderBefore, nil
	case "right":
		return HeaderRight, nil
	case "after":
		return HeaderAfter, nil
	}
	return HeaderNone, fmt.Errorf("unknown header position %q (want none, before, right or after)", s)
}

// Options are the per-run rendering switches.
type Options struct {
	Header         HeaderPolicy
	LineNumbers    bool
	NumberWidth    int
	Tabs           int
	Icons          bool
	FixedGuide     bool
	ShowPosition   bool
	Warnings       bool
	ColorizeWarned bool

	// Dynamic links aggregates to a query page at Action instead of the
	// static index pages.
	Dynamic bool
	Action  string
	SiteKey string

	// HeaderHTML and FooterHTML are injected verbatim when not empty.
	HeaderHTML string
	FooterHTML string

	CVSWebURL    string
	CVSRoot      string
	UseCVSModule bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Header:      HeaderNone,
		NumberWidth: 4,
		Tabs:        8,
		Warnings:    true,
		Action:      "cgi-bin/global.cgi",
	}
}

// Warner receives the warnings of a render. It must not block.
type Warner interface {
	Warn(msg string, line int, file string)
}

// WarnerFunc adapts a function to Warner.
type WarnerFunc func(msg string, line int, file string)

func (f WarnerFunc) Warn(msg string, line int, file string) { f(msg, line, file) }

// Config wires a Renderer to its collaborators.
type Config struct {
	Options    Options
	Vocabulary markup.Vocabulary
	Store      tags.Store
	// Records defaults to a CachedStore around Store.
	Records  tags.Records
	Paths    tags.Paths
	Registry *parser.Registry
	Warner   Warner
	// Modules defaults to reading CVS/Repository files.
	Modules ModuleLookup
}

// Result summarises one rendered file.
type Result struct {
	Path     string        `json:"path"`
	Language string        `json:"language"`
	Lines    int           `json:"lines"`
	Links    int           `json:"links"`
	Warnings int           `json:"warnings"`
	Elapsed  time.Duration `json:"elapsed"`
}

type lineState int

const (
	awaitingLine lineState = iota
	inLine
	flushing
)

// fileState is the render context of the file in progress.
type fileState struct {
	path     string
	lang     string
	line     int
	lastLine int
	warned   bool
	guide    bool
	state    lineState
	links    int
	warnings int
}

// Renderer renders files one at a time.
type Renderer struct {
	opts     Options
	gen      *markup.Generator
	voc      *markup.Vocabulary
	store    tags.Store
	records  tags.Records
	paths    tags.Paths
	registry *parser.Registry
	warner   Warner
	modules  ModuleLookup

	// outbuf accumulates the current line until EndLine.
	outbuf *strbuf.Buffer
	// The buffers below are cleared by every user.
	scratch  *strbuf.Buffer
	guideBuf *strbuf.Buffer
	crumbBuf *strbuf.Buffer
	indexBuf *strbuf.Buffer
	queryBuf *strbuf.Buffer
	spanBuf  *strbuf.Buffer
	recBuf   *strbuf.Buffer

	ctx     context.Context
	out     *bufio.Writer
	file    *fileState
	anchors *anchor.Index
	err     error
}

// New returns a Renderer for cfg.
func New(cfg Config) (*Renderer, error) {
	if err := cfg.Vocabulary.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("render: tag store is required")
	}
	if cfg.Paths == nil {
		return nil, fmt.Errorf("render: path encoder is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("render: tokenizer registry is required")
	}
	opts := cfg.Options
	if opts.NumberWidth <= 0 {
		opts.NumberWidth = 4
	}
	if opts.Tabs <= 0 {
		opts.Tabs = 8
	}
	records := cfg.Records
	if records == nil {
		records = tags.NewCachedStore(cfg.Store, 0)
	}
	modules := cfg.Modules
	if modules == nil {
		modules = NewCVSModules()
	}

	gen := markup.NewGenerator(cfg.Vocabulary)
	return &Renderer{
		opts:     opts,
		gen:      gen,
		voc:      gen.Vocabulary(),
		store:    cfg.Store,
		records:  records,
		paths:    cfg.Paths,
		registry: cfg.Registry,
		warner:   cfg.Warner,
		modules:  modules,
		outbuf:   strbuf.New(0),
		scratch:  strbuf.New(0),
		guideBuf: strbuf.New(0),
		crumbBuf: strbuf.New(0),
		indexBuf: strbuf.New(0),
		queryBuf: strbuf.New(0),
		spanBuf:  strbuf.New(0),
		recBuf:   strbuf.New(0),
	}, nil
}

// Options returns the options in effect.
func (r *Renderer) Options() Options { return r.opts }

// fail keeps the first fatal error of the current file.
func (r *Renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Renderer) warn(msg string, line int) {
	r.file.warnings++
	if r.warner != nil {
		r.warner.Warn(msg, line, r.file.path)
	}
}

func (r *Renderer) markWarned() {
	if r.opts.ColorizeWarned {
		r.file.warned = true
	}
}

// emit writes straight to the output stream, bypassing the line buffer.
func (r *Renderer) emit(s string) { _, _ = r.out.WriteString(s) }

func (r *Renderer) emitBytes(p []byte) { _, _ = r.out.Write(p) }

// emitNL writes s and a newline.
func (r *Renderer) emitNL(s string) {
	r.emit(s)
	_ = r.out.WriteByte('\n')
}

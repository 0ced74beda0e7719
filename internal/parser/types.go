package parser

import (
	"io"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/tags"
)

// Tokenizer turns one source file into markup, one line per Step.
type Tokenizer interface {
	// Language returns the language tag (e.g., "c", "python")
	Language() string

	// Init reads the input and prepares the first step. All output goes
	// through sink.
	Init(in io.Reader, sink Sink) error

	// Step renders the next unit of input and reports whether more remain.
	Step() (bool, error)
}

// Sink is what a tokenizer writes through. The renderer implements it.
type Sink interface {
	// BeginLine and EndLine bracket every physical line.
	BeginLine(line int)
	EndLine(line int)

	// PutChar and PutString quote markup-special characters.
	PutChar(c byte)
	PutString(s string)
	// EchoByte and Echo write as is.
	EchoByte(c byte)
	Echo(s string)

	PutReserved(word string)
	PutMacro(word string)
	PutBrace(text string)
	PutComment(text string)

	// PutAnchor resolves one occurrence of name.
	PutAnchor(name string, kind tags.Kind, line int)
	// PutAnchorForce resolves a span as a definition lookup without
	// warnings.
	PutAnchorForce(name []byte, line int)
	// PutInclude links the target of an include directive.
	PutInclude(target, display string)

	// Anchor looks up the anchor of name on line in the current file.
	Anchor(name string, line int) (anchor.Anchor, bool)

	UnknownDirective(word string, line int)
	UnknownYaccDirective(word string, line int)
	UnexpectedEOF(line int)
	MissingLeft(word string, line int)
}

// SourceFile is one renderable file found by a directory walk.
type SourceFile struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Hash     string `json:"hash"`
}

// WalkIssue records a file that could not be inspected.
type WalkIssue struct {
	File     string `json:"file"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// WalkResult is the outcome of a directory walk.
type WalkResult struct {
	RootPath string       `json:"root_path"`
	Files    []SourceFile `json:"files"`
	Issues   []WalkIssue  `json:"issues,omitempty"`
}

package languages

import (
	"sync"

	"github.com/skelly-dev/srcweb/internal/parser"
)

// NewDefaultRegistry creates a registry with every supported tokenizer. C is
// first and so is the fallback for unknown languages.
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(cGrammar().entry())
	r.Register(lexerEntry("yacc", "c", true, ".y"))
	r.Register(cppGrammar().entry())
	r.Register(javaGrammar().entry())
	r.Register(phpGrammar().entry())
	r.Register(lexerEntry("asm", "gas", false, ".s", ".S", ".asm"))
	r.Register(goGrammar().entry())
	r.Register(pythonGrammar().entry())
	r.Register(rubyGrammar().entry())
	r.Register(javascriptGrammar().entry())
	r.Register(typescriptGrammar().entry())

	return r
}

var defaultRegistry = sync.OnceValue(NewDefaultRegistry)

// DecideLanguage maps a file suffix such as ".c" to its language tag, or ""
// when no tokenizer claims it.
func DecideLanguage(suffix string) string {
	return defaultRegistry().DecideLanguage(suffix)
}

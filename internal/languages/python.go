package languages

import "github.com/smacker/go-tree-sitter/python"

func pythonGrammar() *grammar {
	return &grammar{
		lang:       "python",
		extensions: []string{".py"},
		language:   python.GetLanguage,
		names:      set("identifier"),
		reserved:   set("true", "false", "none"),
		opaque:     set("string"),
		comments:   set("comment"),
	}
}

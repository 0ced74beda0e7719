package languages

import (
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var ecmaNames = []string{"identifier", "property_identifier", "shorthand_property_identifier",
	"statement_identifier"}

func javascriptGrammar() *grammar {
	return &grammar{
		lang:       "javascript",
		extensions: []string{".js", ".jsx", ".mjs"},
		language:   javascript.GetLanguage,
		names:      set(ecmaNames...),
		reserved:   set("true", "false", "null", "undefined", "this", "super"),
		opaque:     set("string", "template_string", "regex"),
		comments:   set("comment"),
	}
}

func typescriptGrammar() *grammar {
	return &grammar{
		lang:       "typescript",
		extensions: []string{".ts", ".tsx"},
		language:   typescript.GetLanguage,
		names:      set(append(ecmaNames, "type_identifier")...),
		reserved:   set("true", "false", "null", "undefined", "this", "super", "predefined_type"),
		opaque:     set("string", "template_string", "regex"),
		comments:   set("comment"),
	}
}

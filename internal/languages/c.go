package languages

import (
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
)

var cNames = []string{"identifier", "field_identifier", "type_identifier", "statement_identifier"}

func cGrammar() *grammar {
	return &grammar{
		lang:       "c",
		extensions: []string{".c", ".h"},
		language:   c.GetLanguage,
		names:      set(cNames...),
		reserved:   set("primitive_type", "true", "false", "null"),
		opaque:     set("string_literal", "char_literal", "system_lib_string"),
		comments:   set("comment"),
		includes:   map[string]string{"preproc_include": "path"},
	}
}

func cppGrammar() *grammar {
	return &grammar{
		lang:       "cpp",
		extensions: []string{".cc", ".cpp", ".cxx", ".hh", ".hpp", ".hxx", ".C", ".H"},
		language:   cpp.GetLanguage,
		names:      set(append(cNames, "namespace_identifier")...),
		reserved:   set("primitive_type", "true", "false", "null", "nullptr", "this", "auto"),
		opaque:     set("string_literal", "char_literal", "raw_string_literal", "system_lib_string"),
		comments:   set("comment"),
		includes:   map[string]string{"preproc_include": "path"},
	}
}

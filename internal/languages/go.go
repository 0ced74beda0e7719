package languages

import "github.com/smacker/go-tree-sitter/golang"

func goGrammar() *grammar {
	return &grammar{
		lang:       "go",
		extensions: []string{".go"},
		language:   golang.GetLanguage,
		names: set("identifier", "field_identifier", "type_identifier",
			"package_identifier", "label_name"),
		reserved: set("true", "false", "nil", "iota"),
		opaque:   set("interpreted_string_literal", "raw_string_literal", "rune_literal"),
		comments: set("comment"),
	}
}

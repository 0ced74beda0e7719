package languages

import "github.com/smacker/go-tree-sitter/java"

func javaGrammar() *grammar {
	return &grammar{
		lang:       "java",
		extensions: []string{".java"},
		language:   java.GetLanguage,
		names:      set("identifier", "type_identifier"),
		reserved: set("integral_type", "floating_point_type", "boolean_type", "void_type",
			"true", "false", "null_literal", "this", "super"),
		opaque:   set("string_literal", "character_literal", "text_block"),
		comments: set("line_comment", "block_comment", "comment"),
	}
}

package languages

import "github.com/smacker/go-tree-sitter/php"

func phpGrammar() *grammar {
	return &grammar{
		lang:       "php",
		extensions: []string{".php", ".php3", ".phtml"},
		language:   php.GetLanguage,
		names:      set("name"),
		reserved:   set("php_tag", "primitive_type", "boolean", "null"),
		opaque:     set("string", "encapsed_string", "heredoc", "nowdoc"),
		comments:   set("comment"),
		includes: map[string]string{
			"include_expression":      "*",
			"include_once_expression": "*",
			"require_expression":      "*",
			"require_once_expression": "*",
		},
	}
}

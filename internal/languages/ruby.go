package languages

import "github.com/smacker/go-tree-sitter/ruby"

func rubyGrammar() *grammar {
	return &grammar{
		lang:       "ruby",
		extensions: []string{".rb"},
		language:   ruby.GetLanguage,
		names: set("identifier", "constant", "instance_variable", "class_variable",
			"global_variable"),
		reserved: set("true", "false", "nil", "self"),
		opaque:   set("string", "heredoc_body", "simple_symbol", "regex"),
		comments: set("comment"),
	}
}

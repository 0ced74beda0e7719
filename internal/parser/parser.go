package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/ignore"
)

// Entry describes one language: its tag, the suffixes it claims and how to
// build a fresh tokenizer for one file.
type Entry struct {
	Language   string
	Extensions []string
	New        func() Tokenizer
}

// Registry holds the language entries in registration order. The first
// entry is the default.
type Registry struct {
	entries   []Entry
	byLang    map[string]int // language name -> index into entries
	extToLang map[string]string
	exactExt  map[string]string // case-sensitive suffixes such as ".C"
}

// NewRegistry creates a new tokenizer registry
func NewRegistry() *Registry {
	return &Registry{
		byLang:    make(map[string]int),
		extToLang: make(map[string]string),
		exactExt:  make(map[string]string),
	}
}

// Register adds a language entry. Registering a tag again replaces the
// entry in place. Suffixes that differ from their lower-case form (".C")
// only match exactly.
func (r *Registry) Register(e Entry) {
	if i, ok := r.byLang[e.Language]; ok {
		r.entries[i] = e
	} else {
		r.byLang[e.Language] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	for _, ext := range e.Extensions {
		if ext != strings.ToLower(ext) {
			r.exactExt[ext] = e.Language
			continue
		}
		r.extToLang[ext] = e.Language
	}
}

// Lookup returns the entry for lang, or the default entry when lang is
// empty or unknown. It panics only if nothing is registered.
func (r *Registry) Lookup(lang string) Entry {
	if len(r.entries) == 0 {
		panic("parser: empty registry")
	}
	if i, ok := r.byLang[lang]; ok && lang != "" {
		return r.entries[i]
	}
	return r.entries[0]
}

// Has reports whether lang is registered.
func (r *Registry) Has(lang string) bool {
	_, ok := r.byLang[lang]
	return ok
}

// Languages returns the registered tags in registration order.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Language)
	}
	return out
}

// DecideLanguage maps a file suffix (with its dot) to a language tag, or
// "" when no entry claims it.
func (r *Registry) DecideLanguage(suffix string) string {
	if lang, ok := r.exactExt[suffix]; ok {
		return lang
	}
	return r.extToLang[strings.ToLower(suffix)]
}

// LanguageForFile is DecideLanguage applied to the suffix of filename.
func (r *Registry) LanguageForFile(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return r.DecideLanguage(ext)
}

// SupportedExtensions returns every registered suffix, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang)+len(r.exactExt))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	for ext := range r.exactExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// WalkDirectory lists the files under root worth rendering. Files with a
// registered suffix are source files; with withOther set, every other file
// is listed too with an empty language so it renders as plain text.
func (r *Registry) WalkDirectory(root string, ignorePaths []string, withOther bool) (*WalkResult, error) {
	ignoreMatcher := ignore.NewMatcher(ignorePaths)

	result := &WalkResult{
		RootPath: root,
		Files:    make([]SourceFile, 0),
		Issues:   make([]WalkIssue, 0),
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			relPath := path
			if rel, relErr := filepath.Rel(root, path); relErr == nil {
				relPath = rel
			}
			result.Issues = append(result.Issues, WalkIssue{
				File:     relPath,
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip directories and ignored paths
		relPath, _ := filepath.Rel(root, path)
		relPath = filepath.ToSlash(relPath)
		if relPath != "." && ignoreMatcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		lang := r.LanguageForFile(path)
		if lang == "" && !withOther {
			return nil
		}

		hash, err := fileutil.HashFile(path)
		if err != nil {
			result.Issues = append(result.Issues, WalkIssue{
				File:     relPath,
				Severity: "error",
				Message:  err.Error(),
			})
			return nil
		}
		result.Files = append(result.Files, SourceFile{Path: relPath, Language: lang, Hash: hash})
		return nil
	})

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].File == result.Issues[j].File {
			return result.Issues[i].Message < result.Issues[j].Message
		}
		return result.Issues[i].File < result.Issues[j].File
	})

	return result, err
}

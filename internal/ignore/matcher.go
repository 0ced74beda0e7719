// Package ignore decides which paths a tree render skips, using
// gitignore-like rules from .srcwebignore.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileName is the ignore file read from the root of a rendered tree.
const FileName = ".srcwebignore"

// DefaultRules are applied before user rules, which can negate them.
var DefaultRules = []string{
	".git/",
	".hg/",
	".svn/",
	"CVS/",
	".srcweb/",
	"node_modules/",
	"vendor/",
	"__pycache__/",
	"GPATH",
	"GRTAGS",
	"GTAGS",
}

type rule struct {
	re       *regexp.Regexp
	negated  bool
	dirOnly  bool
	anchored bool
	nested   bool
}

// Matcher applies rules in order; the last matching rule wins.
type Matcher struct {
	rules []rule
}

// NewMatcher builds a matcher from user rules, after the defaults.
func NewMatcher(userRules []string) *Matcher {
	all := make([]string, 0, len(DefaultRules)+len(userRules))
	all = append(all, DefaultRules...)
	all = append(all, userRules...)

	rules := make([]rule, 0, len(all))
	for _, line := range all {
		if parsed, ok := parseRule(line); ok {
			rules = append(rules, parsed)
		}
	}
	return &Matcher{rules: rules}
}

// LoadRules reads the ignore file under root. A missing file yields no
// rules.
func LoadRules(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return rules, nil
}

// ShouldIgnore reports whether relPath is excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	ignored := false
	for _, r := range m.rules {
		if r.matches(relPath, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	var parsed rule
	if strings.HasPrefix(line, "!") {
		parsed.negated = true
		line = strings.TrimPrefix(line, "!")
	}
	if strings.HasPrefix(line, "/") {
		parsed.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.HasSuffix(line, "/") {
		parsed.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	line = normalizePath(line)
	if line == "" {
		return rule{}, false
	}
	re, err := regexp.Compile("^" + globToRegex(line) + "$")
	if err != nil {
		return rule{}, false
	}
	parsed.re = re
	parsed.nested = strings.Contains(line, "/")
	return parsed, true
}

func (r rule) matches(relPath string, isDir bool) bool {
	parts := strings.Split(relPath, "/")
	if r.dirOnly {
		return r.matchesDirectory(parts, isDir)
	}
	if r.anchored {
		return r.re.MatchString(relPath)
	}
	if r.nested {
		for i := range parts {
			if r.re.MatchString(strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}
	for _, segment := range parts {
		if r.re.MatchString(segment) {
			return true
		}
	}
	return false
}

// matchesDirectory reports whether the path is a matching directory or lies
// below one.
func (r rule) matchesDirectory(parts []string, isDir bool) bool {
	dirs := len(parts) - 1
	if isDir {
		dirs = len(parts)
	}
	for i := 0; i < dirs; i++ {
		if r.anchored || r.nested {
			if r.re.MatchString(strings.Join(parts[:i+1], "/")) {
				return true
			}
			continue
		}
		if r.re.MatchString(parts[i]) {
			return true
		}
	}
	return false
}

func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			b.WriteString(".*")
			i++
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		default:
			if strings.ContainsRune(`.+()|[]{}^$\`, rune(ch)) {
				b.WriteByte('\\')
			}
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func normalizePath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

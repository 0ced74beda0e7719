package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// resolveRoot returns the absolute directory named by args, or the working
// directory.
func resolveRoot(args []string) (string, error) {
	if len(args) == 0 {
		return resolveWorkingDirectory()
	}
	rootPath, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", args[0], err)
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return "", fmt.Errorf("failed to access path %q: %w", rootPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", rootPath)
	}
	return rootPath, nil
}

// relativeTo makes p relative to root when it lies below it. Tag facts name
// files relative to the tree they were collected from.
func relativeTo(root, p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return p
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return p
	}
	return rel
}

package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skelly-dev/srcweb/internal/fileutil"
	"github.com/skelly-dev/srcweb/internal/state"
)

const (
	HookStart = "# >>> srcweb render hook >>>"
	HookEnd   = "# <<< srcweb render hook <<<"
)

// RunInstallHook adds a post-commit hook that refreshes the pages of the
// repository after every commit.
func RunInstallHook(cmd *cobra.Command, args []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	repoRoot, gitDir, err := ResolveGitPaths(rootPath)
	if err != nil {
		return err
	}

	hookPath := filepath.Join(gitDir, "hooks", "post-commit")
	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return fmt.Errorf("failed to create hook directory: %w", err)
	}

	existing := ""
	if data, err := os.ReadFile(hookPath); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing hook: %w", err)
	}

	updated := UpsertRenderHook(existing, repoRoot, a.cfg.Output)
	if err := os.WriteFile(hookPath, []byte(updated), 0o755); err != nil {
		return fmt.Errorf("failed to write hook: %w", err)
	}

	loggerFromContext(cmd.Context()).Info("installed post-commit hook", "path", hookPath)
	return nil
}

func ResolveGitPaths(workingDir string) (repoRoot string, gitDir string, err error) {
	repoRootOut, err := exec.Command("git", "-C", workingDir, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", "", fmt.Errorf("not inside a git repository")
	}

	gitDirOut, err := exec.Command("git", "-C", workingDir, "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve git directory: %w", err)
	}

	repoRoot = strings.TrimSpace(string(repoRootOut))
	gitDir = strings.TrimSpace(string(gitDirOut))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(repoRoot, gitDir)
	}
	return repoRoot, gitDir, nil
}

// UpsertRenderHook replaces the srcweb block of an existing hook, or appends
// one.
func UpsertRenderHook(existingHook, repoRoot, outDir string) string {
	block := BuildRenderHookBlock(repoRoot, outDir)

	if existingHook == "" {
		return "#!/bin/sh\n\n" + block + "\n"
	}

	start := strings.Index(existingHook, HookStart)
	end := strings.Index(existingHook, HookEnd)
	if start >= 0 && end >= start {
		end += len(HookEnd)
		updated := existingHook[:start] + block + existingHook[end:]
		return fileutil.EnsureTrailingNewline(updated)
	}

	base := fileutil.EnsureTrailingNewline(existingHook)
	if !strings.HasPrefix(base, "#!") {
		base = "#!/bin/sh\n" + base
	}
	return base + "\n" + block + "\n"
}

// BuildRenderHookBlock runs render-tree only when pages were rendered
// before, so the hook is inert in fresh clones.
func BuildRenderHookBlock(repoRoot, outDir string) string {
	return fmt.Sprintf(
		"%s\nrepo_root=%q\nif command -v srcweb >/dev/null 2>&1 && [ -f \"$repo_root/%s/%s\" ]; then\n  (cd \"$repo_root\" && srcweb render-tree --quiet --json >/dev/null) || echo \"srcweb: render-tree failed\" >&2\nfi\n%s",
		HookStart,
		repoRoot,
		outDir,
		state.StateFile,
		HookEnd,
	)
}

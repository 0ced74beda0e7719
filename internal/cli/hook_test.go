package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRenderHookBlock(t *testing.T) {
	block := BuildRenderHookBlock("/repo/path", "HTML")

	for _, expected := range []string{
		HookStart,
		`repo_root="/repo/path"`,
		`"$repo_root/HTML/.state.json"`,
		"srcweb render-tree --quiet",
		HookEnd,
	} {
		assert.Contains(t, block, expected)
	}
}

func TestUpsertRenderHookReplacesExistingBlock(t *testing.T) {
	existing := "#!/bin/sh\n\necho before\n" + HookStart + "\nold block\n" + HookEnd + "\n\necho after\n"
	updated := UpsertRenderHook(existing, "/repo/path", "HTML")

	assert.NotContains(t, updated, "old block")
	assert.Equal(t, 1, strings.Count(updated, HookStart))
	assert.Equal(t, 1, strings.Count(updated, HookEnd))
	assert.Contains(t, updated, "echo before")
	assert.Contains(t, updated, "echo after")
}

func TestUpsertRenderHookAppendsToForeignHook(t *testing.T) {
	updated := UpsertRenderHook("echo mine", "/r", "out")
	assert.True(t, strings.HasPrefix(updated, "#!/bin/sh\necho mine\n\n"+HookStart))
	assert.True(t, strings.HasSuffix(updated, HookEnd+"\n"))

	fresh := UpsertRenderHook("", "/r", "out")
	assert.True(t, strings.HasPrefix(fresh, "#!/bin/sh\n\n"+HookStart))
}

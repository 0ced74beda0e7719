package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangedAndDeletedFiles(t *testing.T) {
	s := NewState()
	s.SetFile("a.c", FileState{Hash: "a1"})
	s.SetFile("b.c", FileState{Hash: "b1"})
	s.SetFile("c.c", FileState{Hash: "c1"})

	changed := s.ChangedFiles(map[string]string{
		"a.c": "a1",
		"b.c": "b2",
		"d.c": "d1",
	})
	assert.Equal(t, []string{"b.c", "d.c"}, changed)

	deleted := s.DeletedFiles(map[string]bool{"a.c": true, "b.c": true, "d.c": true})
	assert.Equal(t, []string{"c.c"}, deleted)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "HTML")
	s := NewState()
	s.Fingerprint = "abc"
	s.SetFile("src/main.c", FileState{Hash: "h", Language: "c", Page: "S/2.html", Lines: 12, Links: 3})
	require.NoError(t, s.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.Fingerprint)
	assert.Equal(t, CurrentStateVersion, loaded.Version)
	require.Contains(t, loaded.Files, "src/main.c")
	fs := loaded.Files["src/main.c"]
	assert.Equal(t, "S/2.html", fs.Page)
	assert.Equal(t, 12, fs.Lines)
	assert.False(t, fs.RenderedAt.IsZero())
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Files)

	require.NoError(t, os.WriteFile(filepath.Join(dir, StateFile), []byte("{not json"), 0o644))
	_, err = Load(dir)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
	assert.False(t, IsCorrupt(os.ErrPermission))
}

func TestReset(t *testing.T) {
	s := NewState()
	s.SetFile("a.c", FileState{Hash: "a"})
	s.Reset("new")
	assert.Equal(t, "new", s.Fingerprint)
	assert.Empty(t, s.Files)
	assert.True(t, s.HasChanged("a.c", "a"))
}

func TestMigrateStateInitialisesMaps(t *testing.T) {
	s := &State{}
	migrateState(s)
	assert.NotNil(t, s.Files)
	assert.Equal(t, CurrentStateVersion, s.Version)
}

// Package state records what a tree render produced so the next run only
// renders files that changed.
package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	StateFile           = ".state.json"
	CurrentStateVersion = "1"
)

// FileState is the last render of one source file.
type FileState struct {
	Hash       string    `json:"hash"`
	Language   string    `json:"language,omitempty"`
	Page       string    `json:"page"`
	Lines      int       `json:"lines"`
	Links      int       `json:"links"`
	Warnings   int       `json:"warnings,omitempty"`
	RenderedAt time.Time `json:"rendered_at"`
}

// State is the render state of one output tree.
type State struct {
	Version string `json:"version"`
	// Fingerprint identifies the configuration and tag database the pages
	// were rendered with. A different fingerprint makes every page stale.
	Fingerprint string               `json:"fingerprint"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Files       map[string]FileState `json:"files"`
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		Version: CurrentStateVersion,
		Files:   make(map[string]FileState),
	}
}

// Load reads the state file in dir. A missing file yields an empty state.
func Load(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, StateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	migrateState(&s)
	return &s, nil
}

// IsCorrupt reports whether err came from an unreadable state file.
func IsCorrupt(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// Save writes the state file into dir.
func (s *State) Save(dir string) error {
	migrateState(s)
	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, StateFile), data, 0o644)
}

// SetFile records the render of file.
func (s *State) SetFile(file string, fs FileState) {
	if fs.RenderedAt.IsZero() {
		fs.RenderedAt = time.Now()
	}
	s.Files[file] = fs
}

// HasChanged reports whether file is new or its hash differs.
func (s *State) HasChanged(file, currentHash string) bool {
	fs, ok := s.Files[file]
	return !ok || fs.Hash != currentHash
}

// RemoveFile stops tracking file.
func (s *State) RemoveFile(file string) {
	delete(s.Files, file)
}

// ChangedFiles returns the new or modified files in currentHashes, sorted.
func (s *State) ChangedFiles(currentHashes map[string]string) []string {
	changed := make([]string, 0)
	for file, hash := range currentHashes {
		if s.HasChanged(file, hash) {
			changed = append(changed, file)
		}
	}
	sort.Strings(changed)
	return changed
}

// DeletedFiles returns the tracked files missing from currentFiles, sorted.
func (s *State) DeletedFiles(currentFiles map[string]bool) []string {
	deleted := make([]string, 0)
	for file := range s.Files {
		if !currentFiles[file] {
			deleted = append(deleted, file)
		}
	}
	sort.Strings(deleted)
	return deleted
}

// Reset forgets every file and adopts fingerprint.
func (s *State) Reset(fingerprint string) {
	s.Fingerprint = fingerprint
	s.Files = make(map[string]FileState)
}

func migrateState(s *State) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
}

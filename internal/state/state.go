package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileState represents the state of a single converted source file
type FileState struct {
	MTime       int64     `json:"mtime"`
	Hash        string    `json:"hash"`
	Output      string    `json:"output"`
	DocumentID  string    `json:"document_id,omitempty"`
	Title       string    `json:"title,omitempty"`
	ConvertedAt time.Time `json:"converted_at"`
	Macros      int       `json:"macros"`
	Failed      int       `json:"failed_macros"`
	Tables      int       `json:"tables"`
	Fallback    bool      `json:"fallback,omitempty"`
}

// Entry is a FileState together with its source path
type Entry struct {
	Source string
	FileState
}

// State is the batch manifest. It is safe for concurrent use.
type State struct {
	mu    sync.RWMutex
	Files map[string]*FileState `json:"files"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Files: make(map[string]*FileState),
	}
}

// Load reads state from the state file
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}

	if state.Files == nil {
		state.Files = make(map[string]*FileState)
	}

	return &state, nil
}

// Save writes state to the state file
func (s *State) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// ComputeHash computes SHA256 hash of a file
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

// HasChanged checks if a source file has changed since it was last converted
// Uses hybrid mtime + hash approach
func (s *State) HasChanged(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	mtime := info.ModTime().Unix()

	s.mu.RLock()
	fileState, exists := s.Files[path]
	s.mu.RUnlock()
	if !exists {
		// New file
		return true, nil
	}

	// A deleted output has to be regenerated
	if fileState.Output != "" {
		if _, err := os.Stat(fileState.Output); os.IsNotExist(err) {
			return true, nil
		}
	}

	// Fast path: check mtime first
	if mtime == fileState.MTime {
		return false, nil
	}

	// mtime changed, compute hash to check for actual content changes
	hash, err := ComputeHash(path)
	if err != nil {
		return false, err
	}

	return hash != fileState.Hash, nil
}

// Update records a conversion of path. MTime and Hash are read from disk.
func (s *State) Update(path string, fs FileState) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hash, err := ComputeHash(path)
	if err != nil {
		return err
	}

	fs.MTime = info.ModTime().Unix()
	fs.Hash = hash
	if fs.ConvertedAt.IsZero() {
		fs.ConvertedAt = time.Now()
	}

	s.mu.Lock()
	s.Files[path] = &fs
	s.mu.Unlock()
	return nil
}

// Get returns the recorded state of path.
func (s *State) Get(path string) (FileState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fs, ok := s.Files[path]
	if !ok {
		return FileState{}, false
	}
	return *fs, true
}

// Prune drops entries whose source is not in keep and returns how many
// were removed.
func (s *State) Prune(keep []string) int {
	want := make(map[string]bool, len(keep))
	for _, p := range keep {
		want[p] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for p := range s.Files {
		if !want[p] {
			delete(s.Files, p)
			removed++
		}
	}
	return removed
}

// Entries returns every recorded file, most recently converted first.
func (s *State) Entries() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.Files))
	for p, fs := range s.Files {
		entries = append(entries, Entry{Source: p, FileState: *fs})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].ConvertedAt.Equal(entries[j].ConvertedAt) {
			return entries[i].ConvertedAt.After(entries[j].ConvertedAt)
		}
		return entries[i].Source < entries[j].Source
	})
	return entries
}

// GetMTime returns the recorded modification time for a file
func (s *State) GetMTime(path string) time.Time {
	if fileState, ok := s.Get(path); ok {
		return time.Unix(fileState.MTime, 0)
	}
	return time.Time{}
}

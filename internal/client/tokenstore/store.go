// Package tokenstore persists the session token pair under fixed keys.
// The pair is always written and cleared together, never independently.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store holds the current token pair for a client process.
type Store interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(access, refresh string) error
	Clear() error
}

// Memory is an in-process Store with no persistence.
type Memory struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

func (m *Memory) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

func (m *Memory) SetTokens(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = access
	m.refresh = refresh
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
	return nil
}

const fileName = "tokens.json"

type tokenFile struct {
	AccessToken  string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

// File is a Store backed by a JSON file in the client state directory.
// Tokens survive process restarts; the file is owner-readable only.
type File struct {
	mu   sync.Mutex
	path string
	mem  tokenFile
}

func NewFile(stateDir string) (*File, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	f := &File{path: filepath.Join(stateDir, fileName)}

	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	if err := json.Unmarshal(data, &f.mem); err != nil {
		// A corrupt token file means re-login, not a startup failure.
		f.mem = tokenFile{}
	}
	return f, nil
}

func (f *File) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem.AccessToken
}

func (f *File) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem.RefreshToken
}

func (f *File) SetTokens(access, refresh string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem = tokenFile{AccessToken: access, RefreshToken: refresh}
	return f.flush()
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem = tokenFile{}
	return f.flush()
}

func (f *File) flush() error {
	data, err := json.Marshal(f.mem)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

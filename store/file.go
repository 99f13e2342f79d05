package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File defines a public type used by MaxiTaxi client APIs.
//
// File persists the session pair as a small JSON document, the durable
// analog of the browser origin-scoped storage the MaxiTaxi screens rely on:
// it survives restarts and is wiped on logout. Writes go through a temp file
// and rename so a crash never leaves a torn session on disk.
type File struct {
	mu   sync.Mutex
	path string
}

type fileState struct {
	Token  string `json:"token"`
	RoleID int    `json:"roleId"`
}

// NewFile describes the newfile operation and its observable behavior.
//
// NewFile may return an error when the parent directory cannot be created.
// The returned store is safe for concurrent use within one process; it does
// not arbitrate between processes.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("store: file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create session dir: %w", err)
	}
	return &File{path: path}, nil
}

// Token describes the token operation and its observable behavior.
func (f *File) Token(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return "", err
	}
	return st.Token, nil
}

// SetToken describes the settoken operation and its observable behavior.
func (f *File) SetToken(_ context.Context, tok string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return err
	}
	st.Token = tok
	return f.write(st)
}

// RoleID describes the roleid operation and its observable behavior.
func (f *File) RoleID(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return 0, err
	}
	return st.RoleID, nil
}

// SetRoleID describes the setroleid operation and its observable behavior.
func (f *File) SetRoleID(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.read()
	if err != nil {
		return err
	}
	st.RoleID = id
	return f.write(st)
}

// Clear describes the clear operation and its observable behavior.
//
// Clear removes the backing file and is idempotent.
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: clear session file: %w", err)
	}
	return nil
}

func (f *File) read() (fileState, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileState{}, nil
	}
	if err != nil {
		return fileState{}, fmt.Errorf("store: read session file: %w", err)
	}
	var st fileState
	if err := json.Unmarshal(raw, &st); err != nil {
		// A corrupted session file is treated as absent; the next write
		// replaces it whole.
		return fileState{}, nil
	}
	return st, nil
}

func (f *File) write(st fileState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode session file: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("store: write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("store: replace session file: %w", err)
	}
	return nil
}

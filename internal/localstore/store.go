// Package localstore is the client-side persistence layer: a directory
// of key→JSON snapshot files standing in for browser local storage.
// Every write replaces the whole value for a key; reads rehydrate it.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating state directory=%s with error=%w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get unmarshals the snapshot stored under key into v. The second
// return value reports whether the key exists at all.
func (s *Store) Get(key string, v any) (bool, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed reading key=%s with error=%w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed unmarshaling key=%s with error=%w", key, err)
	}
	return true, nil
}

// Set replaces the snapshot under key. The write goes through a temp
// file and rename so a crash never leaves a torn snapshot behind.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed marshaling key=%s with error=%w", key, err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed creating temp file for key=%s with error=%w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed writing key=%s with error=%w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed closing temp file for key=%s with error=%w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("failed replacing key=%s with error=%w", key, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed deleting key=%s with error=%w", key, err)
	}
	return nil
}

// Has reports whether key currently holds a snapshot.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Package uploads keeps the original uploaded files on disk so the raw
// source of an ingested document survives restarts.
package uploads

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store persists uploads under a single directory. Files are named
// <documentID>_<filename>, which keeps deletion a glob away.
type Store struct {
	dir string
}

// New creates the upload directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the raw upload to disk.
func (s *Store) Save(documentID, filename string, data []byte) (string, error) {
	name := documentID + "_" + sanitize(filename)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes all files stored for a document. Missing files are
// not an error.
func (s *Store) Remove(documentID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, documentID+"_*"))
	if err != nil {
		return fmt.Errorf("glob uploads of %s: %w", documentID, err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove upload %s: %w", m, err)
		}
	}
	return nil
}

// sanitize strips any path components from a client-supplied filename.
func sanitize(filename string) string {
	return filepath.Base(filepath.Clean(filename))
}

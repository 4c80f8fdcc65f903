// Package storage provides retention of raw uploaded files on disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// UploadStore keeps the raw bytes of ingested documents on disk, one file per
// document named "<document id>_<filename>".
type UploadStore struct {
	dir string
}

// NewUploadStore creates the uploads directory if needed.
func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Save writes the document content and returns the stored path.
func (u *UploadStore) Save(docID, filename string, content []byte) (string, error) {
	path := u.pathFor(docID, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// Remove deletes the stored file for a document. Removing an absent file is a
// no-op.
func (u *UploadStore) Remove(docID, filename string) error {
	err := os.Remove(u.pathFor(docID, filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

func (u *UploadStore) pathFor(docID, filename string) string {
	return filepath.Join(u.dir, docID+"_"+filepath.Base(filename))
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing or inaccessible paths are skipped (contribute 0); errors during walk are returned.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if info.IsDir() {
			n, err := dirSize(p)
			if err != nil {
				return 0, err
			}
			total += n
		} else {
			total += info.Size()
		}
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info != nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

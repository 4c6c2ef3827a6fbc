package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps attachments on the local filesystem for development
// runs, mirroring the bucket's object-path layout.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	path, err := ObjectPath(ref)
	if err != nil {
		return err
	}

	full := filepath.Join(s.root, filepath.FromSlash(path))
	if rel, err := filepath.Rel(s.root, full); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("attachment reference %q escapes blob directory", ref)
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}

	return nil
}

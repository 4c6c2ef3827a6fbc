package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrBlobNotFound is returned when the referenced object is already
// absent. Callers deleting attachments treat it as success.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore deletes uploaded attachments by the reference stored on a
// document (a download URL or an object path).
type BlobStore interface {
	Delete(ctx context.Context, ref string) error
}

// ObjectPath extracts the bucket object path from an attachment
// reference. Accepted forms:
//
//	https://firebasestorage.googleapis.com/v0/b/<bucket>/o/<escaped path>?...
//	gs://<bucket>/<path>
//	<path>
func ObjectPath(ref string) (string, error) {
	if strings.HasPrefix(ref, "gs://") {
		rest := strings.TrimPrefix(ref, "gs://")
		if _, path, ok := strings.Cut(rest, "/"); ok && path != "" {
			return path, nil
		}
		return "", fmt.Errorf("no object path in reference %q", ref)
	}

	if !strings.Contains(ref, "://") {
		return ref, nil
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid attachment reference %q: %w", ref, err)
	}

	// Download URLs carry the object path URL-escaped after "/o/".
	_, escaped, ok := strings.Cut(parsed.Path, "/o/")
	if !ok || escaped == "" {
		return "", fmt.Errorf("no object path in reference %q", ref)
	}

	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("invalid object path in reference %q: %w", ref, err)
	}

	return path, nil
}

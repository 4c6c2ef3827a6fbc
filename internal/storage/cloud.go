package storage

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

// CloudStore deletes attachments from the project's storage bucket.
type CloudStore struct {
	bucket *gcs.BucketHandle
}

func NewCloudStore(ctx context.Context, app *firebase.App) (*CloudStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("failed to open default bucket: %w", err)
	}

	return &CloudStore{bucket: bucket}, nil
}

func (s *CloudStore) Delete(ctx context.Context, ref string) error {
	path, err := ObjectPath(ref)
	if err != nil {
		return err
	}

	if err := s.bucket.Object(path).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}

	return nil
}

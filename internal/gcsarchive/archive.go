// Package gcsarchive stores uploaded statement files in a GCS bucket so an
// import can be re-run or audited after the fact. Archiving is best-effort:
// the preview flow proceeds even when the archive write fails.
package gcsarchive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Archiver writes statement files to object storage.
type Archiver interface {
	// Archive stores data under a date-partitioned object name and
	// returns the resulting gs:// URI.
	Archive(ctx context.Context, documentID, filename string, data []byte) (string, error)
}

// BucketArchiver is the concrete Archiver backed by a GCS bucket.
type BucketArchiver struct {
	bucket string
}

// NewBucketArchiver creates an archiver for the given bucket. Application
// Default Credentials are assumed to be configured.
func NewBucketArchiver(bucket string) *BucketArchiver {
	return &BucketArchiver{bucket: bucket}
}

// Archive implements the Archiver interface.
func (a *BucketArchiver) Archive(ctx context.Context, documentID, filename string, data []byte) (string, error) {
	objectName := fmt.Sprintf("statements/%s/%s-%s", time.Now().Format("2006/01/02"), documentID, path.Base(filename))
	gcsURI := fmt.Sprintf("gs://%s/%s", a.bucket, objectName)

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("Archive: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Archive: writing %s: %w", gcsURI, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Archive: finalizing %s: %w", gcsURI, err)
	}

	return gcsURI, nil
}

var _ Archiver = (*BucketArchiver)(nil)

// Fetch downloads the bytes of a previously archived statement.
func Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := splitURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: opening %s: %w", gcsURI, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading %s: %w", gcsURI, err)
	}
	return data, nil
}

func splitURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

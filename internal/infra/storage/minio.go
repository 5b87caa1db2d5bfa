package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
)

// objectGetter is the part of *minio.Client the artifact fetch needs.
type objectGetter interface {
	FGetObject(ctx context.Context, bucket, key, path string, opts minio.GetObjectOptions) error
}

// Store fetches model artifacts from an S3-compatible bucket.
type Store struct {
	client     objectGetter
	bucketName string
}

// New builds a MinIO client. Unlike uploads, a download never creates the
// bucket: a missing bucket surfaces as a fetch error.
func New(endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	if endpoint == "" {
		return nil, eris.New("storage: endpoint is required")
	}
	if bucket == "" {
		return nil, eris.New("storage: bucket is required")
	}
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "storage: new client")
	}
	return &Store{client: cli, bucketName: bucket}, nil
}

// FetchArtifact downloads key into localPath. The object lands in a
// temporary sibling first, so a failed download never clobbers an
// artifact already on disk.
func (s *Store) FetchArtifact(ctx context.Context, key, localPath string) error {
	if key == "" {
		return eris.New("storage: object key is required")
	}
	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "storage: create %s", dir)
	}
	tmp := localPath + ".download"
	defer os.Remove(tmp) //nolint:errcheck

	if err := s.client.FGetObject(ctx, s.bucketName, key, tmp, minio.GetObjectOptions{}); err != nil {
		return eris.Wrapf(err, "storage: get %s/%s", s.bucketName, key)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		return eris.Wrapf(err, "storage: move artifact to %s", localPath)
	}
	return nil
}

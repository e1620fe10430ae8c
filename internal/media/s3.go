package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	minio "github.com/minio/minio-go"
)

// S3Archiver uploads processed outputs to an S3-compatible object store.
// Archival is best-effort: callers log failures and keep serving the local
// copy.
type S3Archiver struct {
	client *minio.Client
	bucket string

	once    sync.Once
	onceErr error
}

// S3FromEnv builds an archiver from S3_ENDPOINT, S3_ACCESS_KEY,
// S3_SECRET_KEY and S3_BUCKET. It returns (nil, nil) when S3_ENDPOINT is
// unset, which disables archival.
func S3FromEnv() (*S3Archiver, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}

	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		bucket = "faceveil"
	}

	secure := os.Getenv("S3_INSECURE") != "1"

	client, err := minio.New(endpoint, os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"), secure)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	return &S3Archiver{client: client, bucket: bucket}, nil
}

// Upload stores a local file under a time-based object prefix and returns
// the object name.
func (a *S3Archiver) Upload(path string) (string, error) {
	a.once.Do(func() {
		a.onceErr = a.ensureBucket()
	})
	if a.onceErr != nil {
		return "", a.onceErr
	}

	object := objectPrefix() + "/" + filepath.Base(path)
	opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	if _, err := a.client.FPutObject(a.bucket, object, path, opts); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}

	return object, nil
}

func (a *S3Archiver) ensureBucket() error {
	exists, err := a.client.BucketExists(a.bucket)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(a.bucket, ""); err != nil {
		return fmt.Errorf("make bucket %s: %w", a.bucket, err)
	}
	return nil
}

// objectPrefix spreads objects across a shallow time-derived hierarchy.
func objectPrefix() string {
	uid := fmt.Sprintf("%x", time.Now().UTC().UnixNano())
	return fmt.Sprintf("%s/%s/%s", uid[:2], uid[2:4], uid[4:])
}

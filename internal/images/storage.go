// internal/images/storage.go
// Photo storage backends: local disk or S3

package images

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// Storage persists image bytes and returns a public URL
type Storage interface {
	Save(ctx context.Context, file *File, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

// objectName builds a collision-free name keeping the original extension
func objectName(file *File) string {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = extensionFor(file.ContentType)
	}
	return fmt.Sprintf("%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)
}

// LocalStorage writes files under dir and serves them from baseURL
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates a disk backed storage. baseURL is the public
// prefix the directory is served under, e.g. http://host/uploads.
func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStorage) Save(ctx context.Context, file *File, folder string) (string, error) {
	fullPath := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := objectName(file)
	if err := os.WriteFile(filepath.Join(fullPath, name), file.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, folder, name), nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	rel := strings.TrimPrefix(url, s.baseURL+"/")
	clean := filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("refusing to delete outside upload dir: %s", url)
	}

	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// S3Storage uploads public-read objects to a bucket
type S3Storage struct {
	client  s3iface.S3API
	bucket  string
	baseURL string
}

// NewS3Storage creates an S3 backed storage for bucket in region
func NewS3Storage(bucket, region string) (*S3Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3StorageWithClient(s3.New(sess), bucket, fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)), nil
}

// NewS3StorageWithClient wires an existing client
func NewS3StorageWithClient(client s3iface.S3API, bucket, baseURL string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *S3Storage) Save(ctx context.Context, file *File, folder string) (string, error) {
	key := fmt.Sprintf("%s/%s", folder, objectName(file))

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.ContentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func (s *S3Storage) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")

	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

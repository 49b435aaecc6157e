// Package storage saves uploaded media on local disk or in S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"qwiktest/internal/config"
)

// Storage puts an object under key and returns its public URL.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Default is used by the media handlers.
var Default Storage = NewLocal("storage/uploads", "/uploads")

// Setup picks the backend from config.
func Setup() error {
	cfg := config.GlobalConfig.Storage

	switch cfg.Driver {
	case "", "local":
		Default = NewLocal(cfg.LocalDir, cfg.PublicURL)
	case "s3":
		s, err := NewS3(cfg.Bucket, cfg.Region, cfg.AccessKey, cfg.SecretKey, cfg.Endpoint, cfg.PublicURL)
		if err != nil {
			return err
		}
		Default = s
	default:
		return fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
	return nil
}

// Local writes files below a directory served at publicURL.
type Local struct {
	Dir       string
	PublicURL string
}

func NewLocal(dir, publicURL string) *Local {
	return &Local{Dir: dir, PublicURL: strings.TrimRight(publicURL, "/")}
}

// path resolves key below Dir; ".." segments cannot climb out of it.
func (l *Local) path(key string) (string, string, error) {
	clean := filepath.Clean("/" + key)
	if clean == string(filepath.Separator) {
		return "", "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(l.Dir, clean), strings.TrimPrefix(filepath.ToSlash(clean), "/"), nil
}

func (l *Local) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	p, rel, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return l.PublicURL + "/" + rel, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	p, _, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// S3 stores objects in a bucket.
type S3 struct {
	client    s3iface.S3API
	bucket    string
	publicURL string
}

func NewS3(bucket, region, accessKey, secretKey, endpoint, publicURL string) (*S3, error) {
	awsCfg := &aws.Config{Region: aws.String(region)}
	if accessKey != "" && secretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}
	if endpoint != "" {
		awsCfg.Endpoint = aws.String(endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	if publicURL == "" || strings.HasPrefix(publicURL, "/") {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return NewS3WithClient(s3.New(sess), bucket, publicURL), nil
}

// NewS3WithClient wires an existing client, used with a fake in tests.
func NewS3WithClient(client s3iface.S3API, bucket, publicURL string) *S3 {
	return &S3{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *S3) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, body); err != nil {
		return "", fmt.Errorf("failed to read file buffer: %w", err)
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

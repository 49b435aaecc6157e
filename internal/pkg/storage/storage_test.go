package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads/")

	url, err := l.Put(context.Background(), "media/2024/logo.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/media/2024/logo.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "media", "2024", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, l.Delete(context.Background(), "media/2024/logo.png"))
	require.NoError(t, l.Delete(context.Background(), "media/2024/logo.png"))
}

func TestLocal_KeysStayInsideDir(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(filepath.Join(dir, "uploads"), "/uploads")

	_, err := l.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.txt"))
	assert.NoError(t, err)
}

type fakeS3 struct {
	s3iface.S3API
	puts    map[string]string
	deleted []string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.puts[aws.StringValue(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_PutReturnsPublicURL(t *testing.T) {
	fake := &fakeS3{puts: map[string]string{}}
	s := NewS3WithClient(fake, "qwiktest-media", "https://cdn.example.com/")

	url, err := s.Put(context.Background(), "media/a.jpg", strings.NewReader("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/media/a.jpg", url)
	assert.Equal(t, "jpeg", fake.puts["media/a.jpg"])

	require.NoError(t, s.Delete(context.Background(), "media/a.jpg"))
	assert.Equal(t, []string{"media/a.jpg"}, fake.deleted)
}

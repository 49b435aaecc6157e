package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/storage"
)

const MaxUploadSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var Media = &MediaService{clock: clockwork.NewRealClock()}

type MediaService struct {
	clock clockwork.Clock
}

type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload stores an image under media/<yyyy>/<mm>/ with a random name. The
// type is sniffed from the content, never taken from the client.
func (s *MediaService) Upload(ctx context.Context, r io.Reader) (*UploadResult, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, invalidField("file", "file is empty")
	}
	if len(body) > MaxUploadSize {
		return nil, invalidField("file", "file must not be larger than 5 MB")
	}

	contentType := http.DetectContentType(body)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, invalidField("file", "only image files can be uploaded")
	}

	key := path.Join("media", s.clock.Now().Format("2006/01"), uuid.NewString()+ext)
	url, err := storage.Default.Put(ctx, key, bytes.NewReader(body), contentType)
	if err != nil {
		return nil, apperr.External("store upload", err)
	}
	return &UploadResult{Key: key, URL: url, ContentType: contentType, Size: int64(len(body))}, nil
}

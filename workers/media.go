package workers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"
)

// Uploader mirrors one object into durable storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}

// MediaWorker downloads listing photos, hashes them and hands them to the
// uploader. Content-addressed keys make re-mirroring the same photo a no-op
// on the storage side.
type MediaWorker struct {
	httpClient *http.Client
	uploader   Uploader
}

func NewMediaWorker(uploader Uploader) *MediaWorker {
	return &MediaWorker{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		uploader:   uploader,
	}
}

// Mirror uploads each source URL and returns the mirrored URLs. A source
// that fails keeps its original URL so the listing still renders.
func (w *MediaWorker) Mirror(ctx context.Context, articleNo string, urls []string) []string {
	if w.uploader == nil {
		return urls
	}

	mirrored := make([]string, 0, len(urls))
	for _, src := range urls {
		publicURL, err := w.mirrorOne(ctx, src)
		if err != nil {
			log.Printf("Media: failed to mirror %s for %s: %v", src, articleNo, err)
			mirrored = append(mirrored, src)
			continue
		}
		mirrored = append(mirrored, publicURL)

		// Rate limit between downloads
		time.Sleep(200 * time.Millisecond)
	}
	return mirrored
}

func (w *MediaWorker) mirrorOne(ctx context.Context, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", src, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 50*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	hash := sha256.Sum256(data)
	contentHash := hex.EncodeToString(hash[:])

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	ext := guessExtension(src, contentType)
	key := fmt.Sprintf("media/%s/%s%s", contentHash[:2], contentHash, ext)

	return w.uploader.Upload(ctx, key, bytes.NewReader(data), contentType)
}

// guessExtension determines file extension from URL or content-type.
func guessExtension(url, contentType string) string {
	ext := strings.ToLower(path.Ext(url))
	if idx := strings.IndexAny(ext, "?#"); idx >= 0 {
		ext = ext[:idx]
	}
	if isImageExt(ext) {
		return ext
	}

	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff":
		return true
	}
	return false
}

// NoOpUploader drains its input and hands back a synthetic URL, for runs
// without S3 credentials.
type NoOpUploader struct{}

func (u *NoOpUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	io.Copy(io.Discard, data)
	return "noop://" + key, nil
}

func NewNoOpUploader() *NoOpUploader {
	return &NoOpUploader{}
}

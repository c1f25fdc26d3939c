// Package covers fetches remote cover images and hands them to the image processor.
package covers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shelfwise/catalog-server/internal/media/images"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024 // 10MB

	// downloadTimeout is the maximum time for a cover download.
	downloadTimeout = 30 * time.Second
)

// DownloadResult contains the result of a cover download operation.
type DownloadResult struct {
	Success  bool   // Whether the download and storage succeeded
	Width    int    // Original image width
	Height   int    // Original image height
	Size     int64  // Downloaded size in bytes
	BlurHash string // Placeholder hash of the stored cover
	Error    error  // Error if Success is false
}

// Downloader fetches covers over HTTP and stores every rendition.
type Downloader struct {
	httpClient *http.Client
	processor  *images.Processor
	logger     *slog.Logger
}

// NewDownloader creates a new cover downloader.
func NewDownloader(processor *images.Processor, logger *slog.Logger) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: downloadTimeout},
		processor:  processor,
		logger:     logger,
	}
}

// Download fetches url and stores it under ref.
func (d *Downloader) Download(ctx context.Context, ref, url string) *DownloadResult {
	result := &DownloadResult{}

	if url == "" {
		result.Error = errors.New("empty cover URL")
		return result
	}

	downloadCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Errorf("create request: %w", err)
		return result
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("download: %w", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("download failed: status %d", resp.StatusCode)
		return result
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		result.Error = fmt.Errorf("read data: %w", err)
		return result
	}
	result.Size = int64(len(data))

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		result.Error = fmt.Errorf("not an image: %w", err)
		return result
	}

	stored, err := d.processor.Ingest(ctx, ref, data)
	if err != nil {
		result.Error = fmt.Errorf("store: %w", err)
		return result
	}

	result.Success = true
	result.Width = stored.Width
	result.Height = stored.Height
	result.BlurHash = stored.BlurHash
	d.logger.Info("downloaded cover",
		"cover_ref", ref,
		"size", result.Size,
		"width", result.Width,
		"height", result.Height,
	)
	return result
}

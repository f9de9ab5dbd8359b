// Package download fetches model files and reports byte-level progress.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cutoutd/internal/common/fsutil"
)

// Defaults applied when the corresponding Downloader fields are unset.
const (
	DefaultBaseURL  = "https://huggingface.co/camenduru/RMBG-2.0/resolve/main/onnx"
	DefaultTimeout  = 30 * time.Minute
	DefaultInterval = 200 * time.Millisecond
)

// ProgressFunc receives the bytes written so far and the expected total
// (0 when the server did not announce a length).
type ProgressFunc func(downloaded, total int64)

// Downloader fetches model files over HTTP.
type Downloader struct {
	// BaseURL is joined with the model id.
	BaseURL string
	// Token, when set, is sent as a bearer token.
	Token string
	// Interval throttles progress reports.
	Interval time.Duration
	Client   *http.Client
}

// New returns a Downloader with defaults applied.
func New(baseURL, token string, timeout, interval time.Duration) *Downloader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Downloader{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Token:    token,
		Interval: interval,
		Client:   &http.Client{Timeout: timeout},
	}
}

// URL returns the download location of a model.
func (d *Downloader) URL(modelID string) string {
	return fmt.Sprintf("%s/%s?download=true", d.BaseURL, modelID)
}

// Download streams the model into destPath. The file is staged next to the
// destination and only moved into place once complete. report is called
// with (0,total) before the first byte, at most once per Interval while
// copying, and with (total,total) at the end.
func (d *Downloader) Download(ctx context.Context, modelID, destPath string, report ProgressFunc) error {
	if report == nil {
		report = func(int64, int64) {}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL(modelID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if d.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.Token)
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download (HTTP %d); set HF_TOKEN for gated models", resp.StatusCode)
	}
	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	if err := fsutil.EnsureParentDir(destPath); err != nil {
		return err
	}
	tmpPath := fsutil.TempPath(destPath)
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	// no-op once the file has been committed
	defer os.Remove(tmpPath)

	interval := d.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	pw := &progressWriter{total: total, interval: interval, report: report}
	report(0, total)

	if _, err := io.Copy(io.MultiWriter(out, pw), resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("interrupted during download: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to flush download: %w", err)
	}
	if total == 0 {
		total = pw.written
	}
	report(total, total)

	return fsutil.Commit(destPath)
}

// progressWriter counts bytes and forwards throttled reports.
type progressWriter struct {
	total    int64
	written  int64
	interval time.Duration
	last     time.Time
	report   ProgressFunc
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.written += int64(len(p))
	if time.Since(pw.last) >= pw.interval {
		pw.report(pw.written, pw.total)
		pw.last = time.Now()
	}
	return len(p), nil
}

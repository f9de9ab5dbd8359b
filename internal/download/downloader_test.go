package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressLog struct {
	calls [][2]int64
}

func (l *progressLog) report(d, t int64) { l.calls = append(l.calls, [2]int64{d, t}) }

func TestDownload_WritesFileAndReportsProgress(t *testing.T) {
	body := strings.Repeat("x", 64*1024)
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAuth = r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	d := New(srv.URL+"/onnx/", "secret", time.Second, time.Nanosecond)
	dest := filepath.Join(t.TempDir(), "models", "m.onnx")
	var log progressLog
	require.NoError(t, d.Download(context.Background(), "m.onnx", dest, log.report))

	assert.Equal(t, "/onnx/m.onnx", gotPath)
	assert.Equal(t, "download=true", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
	_, err = os.Stat(dest + ".tmp")
	assert.True(t, os.IsNotExist(err), "staging file should be gone")

	require.GreaterOrEqual(t, len(log.calls), 2)
	total := int64(len(body))
	assert.Equal(t, [2]int64{0, total}, log.calls[0])
	assert.Equal(t, [2]int64{total, total}, log.calls[len(log.calls)-1])
	for i := 1; i < len(log.calls); i++ {
		assert.GreaterOrEqual(t, log.calls[i][0], log.calls[i-1][0], "progress must not go backwards")
	}
}

func TestDownload_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	d := New(srv.URL, "", 0, 0)
	require.NoError(t, d.Download(context.Background(), "m.onnx", filepath.Join(t.TempDir(), "m.onnx"), nil))
	assert.Empty(t, gotAuth)
}

func TestDownload_HTTPErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gated", http.StatusForbidden)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "m.onnx")
	err := New(srv.URL, "", time.Second, 0).Download(context.Background(), "m.onnx", dest, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownload_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dest := filepath.Join(t.TempDir(), "m.onnx")
	require.Error(t, New(srv.URL, "", time.Second, 0).Download(ctx, "m.onnx", dest, nil))
	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestDefaults(t *testing.T) {
	d := New("", "", 0, 0)
	assert.Equal(t, DefaultBaseURL+"/model_fp16.onnx?download=true", d.URL("model_fp16.onnx"))
	assert.Equal(t, DefaultInterval, d.Interval)
	assert.Equal(t, DefaultTimeout, d.Client.Timeout)
}

func TestDownload_UnknownLengthReportsWrittenTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("abcdef"))
	}))
	defer srv.Close()

	var log progressLog
	dest := filepath.Join(t.TempDir(), "m.onnx")
	require.NoError(t, New(srv.URL, "", time.Second, time.Hour).Download(context.Background(), "m.onnx", dest, log.report))
	assert.Equal(t, [2]int64{0, 0}, log.calls[0])
	assert.Equal(t, [2]int64{6, 6}, log.calls[len(log.calls)-1])
}

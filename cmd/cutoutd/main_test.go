package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"cutoutd/internal/catalog"
	"cutoutd/internal/pipeline"
)

func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cutoutd.yaml")
	if err := os.WriteFile(cfgPath, []byte("models_dir: /from-file\nlog_level: debug\nlog_format: json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root := newRootCmd()
	if err := root.PersistentFlags().Parse([]string{"--config", cfgPath, "--log-format", "console"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	env := map[string]string{"CUTOUTD_LOG_LEVEL": "warn"}
	opts := &options{configPath: cfgPath, logFormat: "console"}
	cfg, err := resolveConfig(opts, root.PersistentFlags(), func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ModelsDir != "/from-file" {
		t.Fatalf("file value lost: %q", cfg.ModelsDir)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env should override file: %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("flag should override file: %q", cfg.LogFormat)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr not applied: %q", cfg.Addr)
	}
}

func TestResolveConfig_BadFile(t *testing.T) {
	root := newRootCmd()
	_, err := resolveConfig(&options{configPath: "/nope/cutoutd.yaml"}, root.PersistentFlags(), func(string) string { return "" })
	if err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestInitialModel(t *testing.T) {
	cat := catalog.Default()
	id, err := initialModel(cat, "")
	if err != nil || id != "model_fp16.onnx" {
		t.Fatalf("default: id=%q err=%v", id, err)
	}
	id, err = initialModel(cat, "model_bnb4.onnx")
	if err != nil || id != "model_bnb4.onnx" {
		t.Fatalf("explicit: id=%q err=%v", id, err)
	}
	if _, err := initialModel(cat, "nope"); !pipeline.IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model_quantized.onnx"), []byte("w"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if err := listModels(&out, catalog.Default(), dir); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 models, got %d:\n%s", len(lines), out.String())
	}
	for _, ln := range lines[1:] {
		fields := strings.Fields(ln)
		downloaded := fields[len(fields)-1]
		want := "no"
		if strings.HasPrefix(ln, "model_quantized.onnx") {
			want = "yes"
		}
		if downloaded != want {
			t.Fatalf("line %q: downloaded=%s want %s", ln, downloaded, want)
		}
	}
}

func TestModelsDownloadCommand(t *testing.T) {
	body := []byte("onnx-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/model_bnb4.onnx") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Setenv("CUTOUTD_DOWNLOAD_BASE_URL", srv.URL)
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"models", "download", "model_bnb4.onnx", "--models-dir", dir})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v (stderr=%s)", err, errOut.String())
	}
	got, err := os.ReadFile(filepath.Join(dir, "model_bnb4.onnx"))
	if err != nil || string(got) != string(body) {
		t.Fatalf("downloaded file=%q err=%v", got, err)
	}
	if !strings.Contains(out.String(), "saved to") {
		t.Fatalf("stdout=%q", out.String())
	}

	out.Reset()
	root.SetArgs([]string{"models", "download", "model_bnb4.onnx", "--models-dir", dir})
	if err := root.Execute(); err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if !strings.Contains(out.String(), "already downloaded") {
		t.Fatalf("stdout=%q", out.String())
	}
}

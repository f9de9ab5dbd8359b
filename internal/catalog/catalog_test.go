package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"cutoutd/pkg/types"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestBuiltinIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("builtin catalog invalid: %v", err)
	}
	def, ok := c.DefaultModel()
	if !ok || def.ID != "model_fp16.onnx" {
		t.Fatalf("unexpected default: %+v", def)
	}
	if len(c.Models()) != 4 {
		t.Fatalf("expected 4 models, got %d", len(c.Models()))
	}
}

func TestModelsReturnsCopy(t *testing.T) {
	c := Default()
	out := c.Models()
	out[0].ID = "z"
	if c.Models()[0].ID != "model.onnx" {
		t.Fatalf("catalog mutated via returned slice")
	}
}

func TestLookup(t *testing.T) {
	c := Default()
	if m, ok := c.Lookup("model_bnb4.onnx"); !ok || m.SizeMB != 233 {
		t.Fatalf("lookup: %+v ok=%v", m, ok)
	}
	if _, ok := c.Lookup("missing.onnx"); ok {
		t.Fatalf("expected miss")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := map[string][]types.Model{
		"empty":       nil,
		"no default":  {{ID: "a"}, {ID: "b"}},
		"two default": {{ID: "a", IsDefault: true}, {ID: "b", IsDefault: true}},
		"duplicate":   {{ID: "a", IsDefault: true}, {ID: "a"}},
		"empty id":    {{ID: "", IsDefault: true}},
	}
	for name, models := range cases {
		if _, err := New(models); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadFileYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "models.yaml", `models:
  - id: a.onnx
    name: A
    size_mb: 10
    is_default: true
  - id: b.onnx
    name: B
`)
	c, err := LoadFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def, _ := c.DefaultModel()
	if def.ID != "a.onnx" || def.SizeMB != 10 || len(c.Models()) != 2 {
		t.Fatalf("unexpected catalog: %+v", c.Models())
	}
}

func TestLoadFileJSONAndTOML(t *testing.T) {
	d := t.TempDir()
	pj := writeTempFile(t, d, "models.json", `{"models":[{"id":"j.onnx","sizeMB":5,"isDefault":true}]}`)
	c, err := LoadFile(pj)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if m, ok := c.Lookup("j.onnx"); !ok || m.SizeMB != 5 {
		t.Fatalf("json catalog: %+v", c.Models())
	}
	pt := writeTempFile(t, d, "models.toml", "[[models]]\nid = \"t.onnx\"\nsize_mb = 7\nis_default = true\n")
	c, err = LoadFile(pt)
	if err != nil {
		t.Fatalf("toml: %v", err)
	}
	if m, ok := c.Lookup("t.onnx"); !ok || m.SizeMB != 7 {
		t.Fatalf("toml catalog: %+v", c.Models())
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	if _, err := LoadFile(writeTempFile(t, d, "models.txt", "x")); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	if _, err := LoadFile(writeTempFile(t, d, "bad.yaml", "models: [\n")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := LoadFile(writeTempFile(t, d, "nodefault.yaml", "models:\n  - id: a.onnx\n")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDownloaded(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"model_bnb4.onnx", "model.onnx", "other.onnx", "notes.txt", "model_fp16.onnx.tmp"} {
		writeTempFile(t, dir, f, "")
	}
	if err := os.Mkdir(filepath.Join(dir, "model_quantized.onnx"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	ids, err := Default().Downloaded(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(ids) != 2 || ids[0] != "model.onnx" || ids[1] != "model_bnb4.onnx" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if !IsDownloaded(dir, "model.onnx") || IsDownloaded(dir, "model_fp16.onnx") || IsDownloaded(dir, "model_quantized.onnx") {
		t.Fatalf("IsDownloaded mismatch")
	}
}

func TestDownloadedMissingDir(t *testing.T) {
	ids, err := Default().Downloaded(filepath.Join(t.TempDir(), "nope"))
	if err != nil || len(ids) != 0 {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
}

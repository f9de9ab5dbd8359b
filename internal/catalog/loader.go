package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"cutoutd/internal/common/fsutil"
	"cutoutd/pkg/types"
)

// ModelExt is the file extension of downloadable models.
const ModelExt = ".onnx"

type fileFormat struct {
	Models []types.Model `json:"models" yaml:"models" toml:"models"`
}

// LoadFile reads a catalog override based on its extension.
// Supports: .yaml/.yml, .json, .toml
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty catalog path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var f fileFormat
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	case ".toml":
		err = toml.Unmarshal(b, &f)
	default:
		return nil, fmt.Errorf("unsupported catalog extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(f.Models)
}

// ModelPath returns where the model with the given id lives under dir.
func ModelPath(dir, id string) (string, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, id), nil
}

// IsDownloaded reports whether the model file exists under dir.
func IsDownloaded(dir, id string) bool {
	p, err := ModelPath(dir, id)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// Downloaded scans dir for *.onnx files that belong to the catalog and
// returns their ids in catalog order. A missing directory yields no ids.
func (c *Catalog) Downloaded(dir string) ([]string, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if !fsutil.PathExists(base) {
		return nil, nil
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ModelExt) {
			continue
		}
		present[name] = true
	}
	var ids []string
	for _, m := range c.models {
		if present[m.ID] {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

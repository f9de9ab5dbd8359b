// Package catalog holds the fixed list of segmentation models the user can
// pick from, and knows which of them are present on disk.
package catalog

import (
	"errors"
	"fmt"

	"cutoutd/pkg/types"
)

// Builtin is the RMBG-2.0 ONNX catalog shipped with the binary.
var Builtin = []types.Model{
	{ID: "model.onnx", Name: "High Precision (FP32)", SizeMB: 1024, RAM: "~2.0 GB", Speed: "Slow", Quality: "Excellent"},
	{ID: "model_fp16.onnx", Name: "Balanced (FP16)", SizeMB: 513, RAM: "~1.0 GB", Speed: "Fast", Quality: "Great", IsDefault: true},
	{ID: "model_quantized.onnx", Name: "Fast (INT8)", SizeMB: 366, RAM: "~700 MB", Speed: "Very Fast", Quality: "Good"},
	{ID: "model_bnb4.onnx", Name: "Ultra Fast (Q4)", SizeMB: 233, RAM: "~500 MB", Speed: "Fastest", Quality: "Acceptable"},
}

// Catalog is an immutable list of models.
type Catalog struct {
	models []types.Model
}

// New builds a catalog from the given entries after validating them.
func New(models []types.Model) (*Catalog, error) {
	c := &Catalog{models: append([]types.Model(nil), models...)}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the builtin catalog.
func Default() *Catalog {
	return &Catalog{models: append([]types.Model(nil), Builtin...)}
}

// Models returns a copy of the entries in catalog order.
func (c *Catalog) Models() []types.Model {
	out := make([]types.Model, len(c.models))
	copy(out, c.models)
	return out
}

// Lookup finds a model by id.
func (c *Catalog) Lookup(id string) (types.Model, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return types.Model{}, false
}

// DefaultModel returns the entry flagged IsDefault, falling back to the
// first entry.
func (c *Catalog) DefaultModel() (types.Model, bool) {
	for _, m := range c.models {
		if m.IsDefault {
			return m, true
		}
	}
	if len(c.models) > 0 {
		return c.models[0], true
	}
	return types.Model{}, false
}

// Validate checks that the catalog is non-empty, ids are unique and
// non-empty, and exactly one entry is the default.
func (c *Catalog) Validate() error {
	if len(c.models) == 0 {
		return errors.New("catalog: no models")
	}
	seen := make(map[string]bool, len(c.models))
	defaults := 0
	for i, m := range c.models {
		if m.ID == "" {
			return fmt.Errorf("catalog: model %d has empty id", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("catalog: duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		if m.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("catalog: expected exactly one default model, got %d", defaults)
	}
	return nil
}

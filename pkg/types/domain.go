package types

// Model describes one entry of the segmentation model catalog.
type Model struct {
	// Stable identifier; also the file name under the models directory.
	// example: model_fp16.onnx
	ID string `json:"id" yaml:"id" toml:"id" example:"model_fp16.onnx"`
	// Human-friendly name.
	// example: Balanced (FP16)
	Name string `json:"name" yaml:"name" toml:"name" example:"Balanced (FP16)"`
	// Download size in megabytes.
	// example: 513
	SizeMB int `json:"sizeMB" yaml:"size_mb" toml:"size_mb" example:"513"`
	// Approximate RAM needed to run the model.
	// example: ~1.0 GB
	RAM string `json:"ram" yaml:"ram" toml:"ram" example:"~1.0 GB"`
	// Relative speed class.
	// example: Fast
	Speed string `json:"speed" yaml:"speed" toml:"speed" example:"Fast"`
	// Relative quality class.
	// example: Great
	Quality string `json:"quality" yaml:"quality" toml:"quality" example:"Great"`
	// Whether this is the model selected at startup.
	// example: true
	IsDefault bool `json:"isDefault" yaml:"is_default" toml:"is_default" example:"true"`
}

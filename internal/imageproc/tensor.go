package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// InputSize is the square edge the RMBG models expect.
const InputSize = 1024

// Preprocessor resizes and normalizes images into NCHW float32 tensors.
type Preprocessor struct {
	size int
	mean [3]float32
	std  [3]float32
}

// NewPreprocessor creates a preprocessor for the given edge and per-channel
// normalization.
func NewPreprocessor(size int, mean, std [3]float32) *Preprocessor {
	return &Preprocessor{size: size, mean: mean, std: std}
}

// DefaultPreprocessor matches the RMBG-2.0 export: 1024px, mean/std 0.5.
func DefaultPreprocessor() *Preprocessor {
	return NewPreprocessor(InputSize, [3]float32{0.5, 0.5, 0.5}, [3]float32{0.5, 0.5, 0.5})
}

// Size returns the tensor edge length.
func (p *Preprocessor) Size() int { return p.size }

// Preprocess returns a 1x3xSxS tensor, channels R, G, B.
func (p *Preprocessor) Preprocess(img image.Image) []float32 {
	n := p.size
	resized := imaging.Resize(img, n, n, imaging.Linear)
	out := make([]float32, 3*n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			idx := y*n + x
			off := resized.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[off+c]) / 255
				out[c*n*n+idx] = (v - p.mean[c]) / p.std[c]
			}
		}
	}
	return out
}

// Postprocessor turns a model mask into a transparent PNG.
type Postprocessor struct {
	size int
}

// NewPostprocessor expects masks of size x size values.
func NewPostprocessor(size int) *Postprocessor { return &Postprocessor{size: size} }

// Postprocess min/max-normalizes the mask, scales it to the original image
// size and uses it as the alpha channel of the original. The result is PNG
// encoded at best compression.
func (p *Postprocessor) Postprocess(mask []float32, original image.Image) ([]byte, error) {
	n := p.size
	if len(mask) != n*n {
		return nil, fmt.Errorf("mask has %d values, want %d", len(mask), n*n)
	}
	lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, v := range mask {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span < 1e-6 {
		span = 1
	}
	gray := image.NewGray(image.Rect(0, 0, n, n))
	for i, v := range mask {
		gray.Pix[i] = uint8((v - lo) / span * 255)
	}

	b := original.Bounds()
	w, h := b.Dx(), b.Dy()
	alpha := imaging.Resize(gray, w, h, imaging.Linear)
	out := imaging.Clone(original)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := out.PixOffset(x, y) + 3
			out.Pix[i] = scaleAlpha(out.Pix[i], alpha.Pix[alpha.PixOffset(x, y)])
		}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleAlpha combines existing transparency with the mask value.
func scaleAlpha(orig, mask uint8) uint8 {
	return uint8(uint16(orig) * uint16(mask) / 255)
}

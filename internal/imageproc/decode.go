// Package imageproc converts between encoded image payloads and the tensors
// exchanged with a segmentation model.
package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

// ErrInvalidImage marks payloads that cannot be turned into an image.
var ErrInvalidImage = errors.New("invalid image")

// supportedFormats lists what inference accepts. WebP decodes but is
// rejected so the error names the format.
var supportedFormats = map[string]bool{"png": true, "jpeg": true}

// StripDataURL removes a leading "data:<mime>;base64," prefix.
func StripDataURL(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if i := strings.Index(payload, ","); i >= 0 {
		return payload[i+1:]
	}
	return payload
}

// Decode parses a base64 payload into an image. Only PNG and JPEG are
// accepted.
func Decode(payload string) (image.Image, string, error) {
	raw, err := base64.StdEncoding.DecodeString(StripDataURL(payload))
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to decode base64: %v", ErrInvalidImage, err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if !supportedFormats[format] {
		return nil, "", fmt.Errorf("%w: unsupported image format: %s", ErrInvalidImage, format)
	}
	return img, format, nil
}

// Encode renders PNG bytes as a base64 payload.
func Encode(pngBytes []byte) string {
	return base64.StdEncoding.EncodeToString(pngBytes)
}

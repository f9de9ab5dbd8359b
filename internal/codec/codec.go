// Package codec turns encoded image payloads into directly renderable URIs.
package codec

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMIME is used when the payload cannot be sniffed as an image.
const DefaultMIME = "image/png"

// sniffChars is how much of the payload is decoded for MIME detection.
// Must stay a multiple of 4 so the prefix is valid base64 on its own.
const sniffChars = 4 * 1024

// Codec maps a base64 payload to a renderable URI. Implementations must be
// pure: absent input yields absent output.
type Codec interface {
	DataURL(payload *string) *string
}

// DataURLCodec produces data: URIs, sniffing the image type from the
// decoded payload header.
type DataURLCodec struct{}

// DataURL returns nil for a nil or empty payload.
func (DataURLCodec) DataURL(payload *string) *string {
	if payload == nil || *payload == "" {
		return nil
	}
	u := ToDataURL(*payload)
	return &u
}

// ToDataURL wraps a base64 payload in a data: URI. A payload already in
// data URI form is returned unchanged.
func ToDataURL(b64 string) string {
	if strings.HasPrefix(b64, "data:") {
		return b64
	}
	return "data:" + SniffMIME(b64) + ";base64," + b64
}

// SniffMIME detects the image MIME type of a base64 payload, falling back
// to DefaultMIME for anything that is not recognisably an image.
func SniffMIME(b64 string) string {
	head := b64
	if len(head) > sniffChars {
		head = head[:sniffChars]
	}
	raw, err := base64.StdEncoding.DecodeString(head)
	if err != nil || len(raw) == 0 {
		return DefaultMIME
	}
	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return DefaultMIME
	}
	return mt.String()
}

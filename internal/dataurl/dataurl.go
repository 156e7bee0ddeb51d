// Package dataurl encodes and decodes base64 data URLs of the form
// data:<mime>;base64,<payload>.
package dataurl

import (
	"encoding/base64"
	"errors"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/utafrali/catalog-admin/pkg/slug"
)

const (
	prefix       = "data:"
	base64Marker = ";base64"

	// DefaultMIME is assumed when a data URL carries no media type.
	DefaultMIME = "text/plain"

	// FallbackFileName is used when no usable name can be derived.
	FallbackFileName = "product-image.jpg"
)

// ErrMalformed is returned by Decode for input that is not a base64 data URL.
var ErrMalformed = errors.New("malformed data URL")

// DataURL is a decoded data URL.
type DataURL struct {
	MIME string
	Data []byte
}

// IsImage reports whether the data URL carries an image/* media type.
func (d *DataURL) IsImage() bool {
	return IsImageType(d.MIME)
}

// IsImageType reports whether mimeType, parameters included, names an
// image/* media type.
func IsImageType(mimeType string) bool {
	mt, _, err := mime.ParseMediaType(mimeType)
	return err == nil && strings.HasPrefix(mt, "image/")
}

// Encode builds a base64 data URL for data. An empty mime type is recorded as
// application/octet-stream.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return prefix + mimeType + base64Marker + "," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL reports whether s looks like a data URL.
func IsDataURL(s string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Decode parses a base64 data URL. Parameters other than the media type are
// discarded.
func Decode(s string) (*DataURL, error) {
	if !IsDataURL(s) {
		return nil, ErrMalformed
	}
	meta, payload, ok := strings.Cut(s[len(prefix):], ",")
	if !ok {
		return nil, ErrMalformed
	}

	meta, isBase64 := strings.CutSuffix(meta, base64Marker)
	if !isBase64 {
		return nil, ErrMalformed
	}

	mimeType := DefaultMIME
	if meta != "" {
		mt, _, err := mime.ParseMediaType(meta)
		if err != nil {
			return nil, ErrMalformed
		}
		mimeType = mt
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrMalformed
	}
	return &DataURL{MIME: mimeType, Data: data}, nil
}

// FileName derives an upload file name from a product name and a MIME type,
// e.g. ("Wireless Headphones", "image/png") gives "wireless-headphones.png".
func FileName(base, mimeType string) string {
	name := slug.Generate(base)
	if name == "" {
		name = "product-image"
	}

	ext := ""
	if m := mimetype.Lookup(mimeType); m != nil {
		ext = m.Extension()
	}
	if ext == "" {
		if name == "product-image" {
			return FallbackFileName
		}
		ext = ".jpg"
	}
	return name + ext
}

// Sniff returns the MIME type detected from the content of data, without
// parameters.
func Sniff(data []byte) string {
	mt, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"

	"github.com/utafrali/catalog-admin/internal/dataurl"
)

// MaxImageSize is the largest image a form accepts (10 MB).
const MaxImageSize int64 = 10 * 1024 * 1024

var (
	// ErrNotImage is returned for files whose type is not image/*.
	ErrNotImage = errors.New("only image files are accepted")

	// ErrTooLarge is returned for files over MaxImageSize.
	ErrTooLarge = errors.New("image exceeds the 10 MB limit")
)

// File is a user-provided file. Type is the declared MIME type; when empty
// the type is detected from the content.
type File struct {
	Name string
	Type string
	Data io.Reader
}

// IsImageType reports whether a MIME type denotes an image.
func IsImageType(mimeType string) bool {
	return dataurl.IsImageType(mimeType)
}

// SelectFile reads f and attaches it as the new image. The form is left
// unchanged on error.
func (s *Session) SelectFile(ctx context.Context, f File) error {
	encoded, err := Encode(ctx, f)
	if err != nil {
		return err
	}
	s.setNewImage(encoded)
	return nil
}

// Restore re-attaches an image data URL captured by an earlier attempt of the
// same form, so a failed submission does not force a new upload.
func (s *Session) Restore(image string) error {
	du, err := dataurl.Decode(image)
	if err != nil {
		return err
	}
	if !IsImageType(du.MIME) {
		return ErrNotImage
	}
	if int64(len(du.Data)) > MaxImageSize {
		return ErrTooLarge
	}
	s.setNewImage(image)
	return nil
}

// Encode reads f and returns it as a data URL.
func Encode(ctx context.Context, f File) (string, error) {
	if f.Data == nil {
		return "", fmt.Errorf("read %s: no data", f.Name)
	}
	if f.Type != "" && !IsImageType(f.Type) {
		return "", ErrNotImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(f.Data, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(data)) > MaxImageSize {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mimeType := f.Type
	if mimeType == "" {
		mimeType = dataurl.Sniff(data)
	} else if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	if !IsImageType(mimeType) {
		return "", ErrNotImage
	}
	return dataurl.Encode(mimeType, data), nil
}

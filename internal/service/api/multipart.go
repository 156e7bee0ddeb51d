package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/utafrali/catalog-admin/internal/dataurl"
)

const (
	fieldName     = "name"
	fieldPrice    = "price"
	fieldImage    = "image"
	fieldImageURL = "imageUrl"
)

// multipartForm is a fully buffered multipart body, so retries can resend it.
type multipartForm struct {
	body        []byte
	contentType string
}

func (f *multipartForm) reader() io.Reader {
	return bytes.NewReader(f.body)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm writes name and price, then the image: a data URL becomes a
// file part named image, any other non-empty value is sent as imageUrl, and
// an empty value sends neither.
func encodeForm(name string, price float64, image string) (*multipartForm, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField(fieldName, name); err != nil {
		return nil, fmt.Errorf("write %s field: %w", fieldName, err)
	}
	if err := w.WriteField(fieldPrice, strconv.FormatFloat(price, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write %s field: %w", fieldPrice, err)
	}

	switch {
	case image == "":
	case dataurl.IsDataURL(image):
		du, err := dataurl.Decode(image)
		if err != nil {
			return nil, fmt.Errorf("encode image: %w", err)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			fieldImage, quoteEscaper.Replace(dataurl.FileName(name, du.MIME))))
		h.Set("Content-Type", du.MIME)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create %s part: %w", fieldImage, err)
		}
		if _, err := part.Write(du.Data); err != nil {
			return nil, fmt.Errorf("write %s part: %w", fieldImage, err)
		}
	default:
		if err := w.WriteField(fieldImageURL, image); err != nil {
			return nil, fmt.Errorf("write %s field: %w", fieldImageURL, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return &multipartForm{body: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

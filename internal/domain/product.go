package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/utafrali/catalog-admin/internal/dataurl"
	"github.com/utafrali/catalog-admin/pkg/validator"
)

// Product represents a product in the catalog. The JSON layout is also the
// persisted layout of the durable local store.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	ImageKey    string    `json:"imageKey,omitempty"`
	DateAdded   time.Time `json:"dateAdded"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Name  string  `json:"name" validate:"required,notblank,max=200"`
	Price float64 `json:"price" validate:"gte=0"`
	Image string  `json:"image" validate:"required,image_ref"`
}

// ProductUpdateInput is the payload for updating a product. A nil Image
// leaves the stored image unchanged.
type ProductUpdateInput struct {
	Name  string  `json:"name" validate:"required,notblank,max=200"`
	Price float64 `json:"price" validate:"gte=0"`
	Image *string `json:"image,omitempty" validate:"omitempty,image_ref"`
}

func init() {
	validator.RegisterValidation("image_ref", IsImageRef, "must be an http(s) URL, a root-relative path or an image data URL")
}

// IsImageRef reports whether s can be stored as a product image: an image
// data URL, an absolute http(s) URL or a root-relative path.
func IsImageRef(s string) bool {
	if s == "" {
		return true
	}
	if dataurl.IsDataURL(s) {
		du, err := dataurl.Decode(s)
		return err == nil && du.IsImage()
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NewProduct stamps a freshly created product. Both timestamps are set to now.
func NewProduct(id string, in ProductInput, now time.Time) Product {
	now = now.UTC()
	return Product{
		ID:          id,
		Name:        in.Name,
		Price:       in.Price,
		Image:       in.Image,
		DateAdded:   now,
		DateUpdated: now,
	}
}

// HasImage reports whether the update replaces the stored image.
func (in *ProductUpdateInput) HasImage() bool {
	return in.Image != nil && *in.Image != ""
}

// ApplyTo merges the update into existing and returns the result; existing is
// not modified. An empty name keeps the stored name, the price is always
// taken from the input, and DateUpdated never moves backwards.
func (in *ProductUpdateInput) ApplyTo(existing Product, now time.Time) Product {
	updated := existing
	if in.Name != "" {
		updated.Name = in.Name
	}
	updated.Price = in.Price
	if in.HasImage() {
		updated.Image = *in.Image
		updated.ImageKey = ""
	}

	now = now.UTC()
	if now.Before(existing.DateUpdated) {
		now = existing.DateUpdated
	}
	updated.DateUpdated = now
	return updated
}

// StringPtr returns a pointer to s. Handy for ProductUpdateInput.Image.
func StringPtr(s string) *string {
	return &s
}

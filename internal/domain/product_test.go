package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/pkg/validator"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestNewProduct_StampsBothDates(t *testing.T) {
	p := NewProduct("abc", ProductInput{Name: "Widget", Price: 9.99, Image: "https://x/img.png"}, t0)

	assert.Equal(t, "abc", p.ID)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 9.99, p.Price)
	assert.Equal(t, "https://x/img.png", p.Image)
	assert.Equal(t, t0, p.DateAdded)
	assert.Equal(t, p.DateAdded, p.DateUpdated)
}

func TestApplyTo_NilImageKeepsStoredImage(t *testing.T) {
	existing := NewProduct("1", ProductInput{Name: "Widget", Price: 9.99, Image: "https://x/img.png"}, t0)
	existing.ImageKey = "media/1"

	in := ProductUpdateInput{Name: "Widget", Price: 12.50}
	got := in.ApplyTo(existing, t0.Add(time.Minute))

	assert.Equal(t, 12.50, got.Price)
	assert.Equal(t, "https://x/img.png", got.Image)
	assert.Equal(t, "media/1", got.ImageKey)
	assert.Equal(t, t0, got.DateAdded)
	assert.Equal(t, t0.Add(time.Minute), got.DateUpdated)
	assert.Equal(t, 9.99, existing.Price, "existing must not be modified")
}

func TestApplyTo_EmptyImageKeepsStoredImage(t *testing.T) {
	existing := NewProduct("1", ProductInput{Name: "Widget", Price: 1, Image: "/a.png"}, t0)

	in := ProductUpdateInput{Name: "Widget", Price: 1, Image: StringPtr("")}
	got := in.ApplyTo(existing, t0)

	assert.Equal(t, "/a.png", got.Image)
}

func TestApplyTo_NewImageClearsKey(t *testing.T) {
	existing := NewProduct("1", ProductInput{Name: "Widget", Price: 1, Image: "/a.png"}, t0)
	existing.ImageKey = "media/1"

	in := ProductUpdateInput{Name: "Widget", Price: 1, Image: StringPtr("/b.png")}
	got := in.ApplyTo(existing, t0)

	assert.Equal(t, "/b.png", got.Image)
	assert.Empty(t, got.ImageKey)
}

func TestApplyTo_EmptyNameFallsBack_ZeroPriceApplies(t *testing.T) {
	existing := NewProduct("1", ProductInput{Name: "Widget", Price: 5, Image: "/a.png"}, t0)

	in := ProductUpdateInput{Price: 0}
	got := in.ApplyTo(existing, t0)

	assert.Equal(t, "Widget", got.Name)
	assert.Zero(t, got.Price)
}

func TestApplyTo_DateUpdatedNeverMovesBackwards(t *testing.T) {
	existing := NewProduct("1", ProductInput{Name: "Widget", Price: 5, Image: "/a.png"}, t0)

	in := ProductUpdateInput{Name: "Widget", Price: 5}
	got := in.ApplyTo(existing, t0.Add(-time.Hour))

	assert.Equal(t, t0, got.DateUpdated)
	assert.False(t, got.DateUpdated.Before(got.DateAdded))
}

func TestIsImageRef(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"https://x/img.png", true},
		{"http://cdn.example.com/a.jpg", true},
		{"/placeholder.svg?height=200&width=200", true},
		{"data:image/png;base64,iVBORw0KGgo=", true},
		{"data:image/png;base64,%%%", false},
		{"data:text/html;base64,PHNjcmlwdD4=", false},
		{"data:application/octet-stream;base64,AAEC", false},
		{"//evil.example.com/a.png", false},
		{"ftp://x/img.png", false},
		{"https://", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageRef(tt.in))
		})
	}
}

func TestProductInput_Validation(t *testing.T) {
	err := validator.Validate(ProductInput{Name: "Widget", Price: 9.99, Image: "https://x/img.png"})
	assert.NoError(t, err)

	err = validator.Validate(ProductInput{Price: -1, Image: "ftp://nope"})
	require.Error(t, err)
	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["name"])
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields["image"], "http(s) URL")
}

func TestProductInputs_RejectBlankNameAndNonImageData(t *testing.T) {
	html := "data:text/html;base64,PHNjcmlwdD4="
	tests := []struct {
		name  string
		input any
		field string
	}{
		{"create blank name", ProductInput{Name: "   ", Price: 1, Image: "https://x/img.png"}, "name"},
		{"create html data URL", ProductInput{Name: "Widget", Price: 1, Image: html}, "image"},
		{"update blank name", ProductUpdateInput{Name: "\t", Price: 1}, "name"},
		{"update html data URL", ProductUpdateInput{Name: "Widget", Price: 1, Image: &html}, "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.input)
			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
		})
	}
}

func TestProductInput_MissingImage(t *testing.T) {
	err := validator.Validate(ProductInput{Name: "Widget", Price: 1})
	require.Error(t, err)
	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["image"])
}

func TestProductUpdateInput_ImageOptional(t *testing.T) {
	assert.NoError(t, validator.Validate(ProductUpdateInput{Name: "Widget", Price: 1}))
	assert.NoError(t, validator.Validate(ProductUpdateInput{Name: "Widget", Price: 1, Image: StringPtr("/x.png")}))
	assert.Error(t, validator.Validate(ProductUpdateInput{Name: "Widget", Price: 1, Image: StringPtr("ftp://x")}))
}

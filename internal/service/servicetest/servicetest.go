// Package servicetest holds the behavioural suite every ProductService
// backend must pass.
package servicetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/clock"
)

// Factory builds a fresh backend for one subtest. The backend must stamp
// timestamps from clk.
type Factory func(t *testing.T, clk clock.Clock) service.ProductService

// Base is the time the suite's clock starts at.
var Base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

const missingID = "does-not-exist"

// Run executes the suite against backends built by newService.
func Run(t *testing.T, newService Factory) {
	t.Helper()

	setup := func(t *testing.T) (service.ProductService, context.Context) {
		return newService(t, clock.NewTicking(Base, time.Second)), context.Background()
	}

	t.Run("CreateAssignsUniqueIDAndEqualDates", func(t *testing.T) {
		svc, ctx := setup(t)

		before, err := svc.GetProducts(ctx)
		require.NoError(t, err)
		seen := make(map[string]bool, len(before))
		for _, p := range before {
			seen[p.ID] = true
		}

		for _, name := range []string{"Widget", "Gadget", "Gizmo"} {
			p, err := svc.CreateProduct(ctx, domain.ProductInput{Name: name, Price: 1, Image: "https://x/" + name + ".png"})
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.NotEmpty(t, p.ID)
			assert.False(t, seen[p.ID], "id %s reused", p.ID)
			seen[p.ID] = true
			assert.True(t, p.DateAdded.Equal(p.DateUpdated), "dateAdded %v != dateUpdated %v", p.DateAdded, p.DateUpdated)
		}

		after, err := svc.GetProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before)+3)
	})

	t.Run("UpdateWithoutImagePreservesImageAndDateAdded", func(t *testing.T) {
		svc, ctx := setup(t)

		created, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "Lamp", Price: 20, Image: "https://x/lamp.png"})
		require.NoError(t, err)

		updated, err := svc.UpdateProduct(ctx, created.ID, domain.ProductUpdateInput{Name: "Desk Lamp", Price: 25})
		require.NoError(t, err)
		require.NotNil(t, updated)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Desk Lamp", updated.Name)
		assert.Equal(t, 25.0, updated.Price)
		assert.Equal(t, "https://x/lamp.png", updated.Image)
		assert.True(t, updated.DateAdded.Equal(created.DateAdded))
		assert.False(t, updated.DateUpdated.Before(created.DateUpdated))
	})

	t.Run("UpdateWithImageReplacesIt", func(t *testing.T) {
		svc, ctx := setup(t)

		created, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "Lamp", Price: 20, Image: "https://x/lamp.png"})
		require.NoError(t, err)

		updated, err := svc.UpdateProduct(ctx, created.ID, domain.ProductUpdateInput{
			Name: "Lamp", Price: 20, Image: domain.StringPtr("https://x/lamp-v2.png"),
		})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "https://x/lamp-v2.png", updated.Image)

		got, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "https://x/lamp-v2.png", got.Image)
	})

	t.Run("DeleteMissingLeavesCollectionUnchanged", func(t *testing.T) {
		svc, ctx := setup(t)
		_, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "Keep", Price: 3, Image: "https://x/keep.png"})
		require.NoError(t, err)

		before, err := svc.GetProducts(ctx)
		require.NoError(t, err)

		ok, err := svc.DeleteProduct(ctx, missingID)
		require.NoError(t, err)
		assert.False(t, ok)

		after, err := svc.GetProducts(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids(before), ids(after))
		assert.Len(t, after, len(before))
	})

	t.Run("GetMissingReturnsNil", func(t *testing.T) {
		svc, ctx := setup(t)

		p, err := svc.GetProduct(ctx, missingID)
		assert.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("UpdateMissingReturnsNil", func(t *testing.T) {
		svc, ctx := setup(t)

		p, err := svc.UpdateProduct(ctx, missingID, domain.ProductUpdateInput{Name: "Ghost", Price: 1})
		assert.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("CreateThenGetRoundTrip", func(t *testing.T) {
		svc, ctx := setup(t)

		in := domain.ProductInput{Name: "Bluetooth Speaker", Price: 79.99, Image: "https://x/speaker.png"}
		created, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)

		got, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, in.Price, got.Price)
		assert.Equal(t, in.Image, got.Image)
		assert.True(t, got.DateAdded.Equal(created.DateAdded))
		assert.True(t, got.DateUpdated.Equal(created.DateUpdated))
	})

	t.Run("WidgetLifecycle", func(t *testing.T) {
		svc, ctx := setup(t)

		before, err := svc.GetProducts(ctx)
		require.NoError(t, err)

		created, err := svc.CreateProduct(ctx, domain.ProductInput{Name: "Widget", Price: 9.99, Image: "https://x/img.png"})
		require.NoError(t, err)

		listed, err := svc.GetProducts(ctx)
		require.NoError(t, err)
		require.Len(t, listed, len(before)+1)
		var found []domain.Product
		for _, p := range listed {
			if p.ID == created.ID {
				found = append(found, p)
			}
		}
		require.Len(t, found, 1)
		assert.Equal(t, "Widget", found[0].Name)
		assert.Equal(t, 9.99, found[0].Price)
		assert.Equal(t, "https://x/img.png", found[0].Image)
		assert.True(t, found[0].DateAdded.Equal(found[0].DateUpdated))

		updated, err := svc.UpdateProduct(ctx, created.ID, domain.ProductUpdateInput{Name: "Widget", Price: 12.50})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, 12.50, updated.Price)
		assert.Equal(t, "https://x/img.png", updated.Image)
		assert.True(t, updated.DateUpdated.After(created.DateUpdated), "dateUpdated must move forward")

		ok, err := svc.DeleteProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		gone, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		final, err := svc.GetProducts(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids(final), created.ID)

		again, err := svc.DeleteProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, again)
	})
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/internal/service/dummy"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) ([]domain.Product, int) {
	t.Helper()
	var resp struct {
		Data       []domain.Product `json:"data"`
		TotalCount int              `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Data, resp.TotalCount
}

// =============================================================================
// GET /api/v1/products - ListProducts
// =============================================================================

func TestListProducts_DefaultNewestFirst(t *testing.T) {
	router := newTestRouter(newDummy())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	products, total := decodeList(t, rec)
	require.Len(t, products, 4)
	assert.Equal(t, 4, total)
	assert.Equal(t, "Mechanical Keyboard", products[0].Name)
	assert.Equal(t, "Wireless Headphones", products[3].Name)
}

func TestListProducts_SearchAndSort(t *testing.T) {
	router := newTestRouter(newDummy())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products?sortBy=price&order=asc", nil))
	products, _ := decodeList(t, rec)
	require.Len(t, products, 4)
	assert.Equal(t, "Bluetooth Speaker", products[0].Name)
	assert.Equal(t, "Smart Watch", products[3].Name)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products?search=WATCH", nil))
	products, total := decodeList(t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "2", products[0].ID)
}

func TestListProducts_EmptyIsArray(t *testing.T) {
	router := newTestRouter(newDummy(dummy.WithSeed(nil)))

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total_count":0}`, rec.Body.String())
}

func TestListProducts_ServiceFailure(t *testing.T) {
	svc := new(mockProductService)
	svc.On("GetProducts", mock.Anything).Return(nil, apperrors.OperationFailed(service.OpList.Message()))
	router := newTestRouter(svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OPERATION_FAILED", resp.Error.Code)
	assert.Equal(t, "failed to fetch products, please try again later", resp.Error.Message)
	assert.NotEmpty(t, resp.Error.RequestID)
	svc.AssertExpectations(t)
}

// =============================================================================
// GET /api/v1/products/{id} - GetProduct
// =============================================================================

func TestGetProduct_Found(t *testing.T) {
	router := newTestRouter(newDummy())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products/3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	p := decodeProduct(t, rec)
	assert.Equal(t, "Bluetooth Speaker", p.Name)
	assert.Equal(t, 79.99, p.Price)
}

func TestGetProduct_NotFound(t *testing.T) {
	router := newTestRouter(newDummy())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetProduct_ServiceFailure(t *testing.T) {
	svc := new(mockProductService)
	svc.On("GetProduct", mock.Anything, "1").Return(nil, apperrors.OperationFailed(service.OpGet.Message()))
	router := newTestRouter(svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/products/1", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to fetch product, please try again later", decodeResponse(t, rec).Error.Message)
}

// =============================================================================
// POST /api/v1/products - CreateProduct
// =============================================================================

func TestCreateProduct_Success(t *testing.T) {
	svc := newDummy()
	router := newTestRouter(svc)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/v1/products", domain.ProductInput{
		Name:  "Widget",
		Price: 10,
		Image: "https://example.com/widget.png",
	}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	p := decodeProduct(t, rec)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, p.DateAdded, p.DateUpdated)

	stored, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCreateProduct_InvalidJSON(t *testing.T) {
	router := newTestRouter(newDummy())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid request body")
}

func TestCreateProduct_ValidationError(t *testing.T) {
	svc := new(mockProductService)
	router := newTestRouter(svc)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/v1/products", map[string]any{
		"price": -1,
		"image": "ftp://example.com/a.png",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "name")
	assert.Contains(t, resp.Error.Fields, "price")
	assert.Contains(t, resp.Error.Fields, "image")
	svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestProductEndpoints_RejectBlankNameAndNonImageData(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   map[string]any
		field  string
	}{
		{"create blank name", http.MethodPost, "/api/v1/products",
			map[string]any{"name": "   ", "price": 1, "image": "https://x/img.png"}, "name"},
		{"create html data URL", http.MethodPost, "/api/v1/products",
			map[string]any{"name": "Widget", "price": 1, "image": "data:text/html;base64,PHNjcmlwdD4="}, "image"},
		{"update blank name", http.MethodPut, "/api/v1/products/1",
			map[string]any{"name": " ", "price": 1}, "name"},
		{"update html data URL", http.MethodPut, "/api/v1/products/1",
			map[string]any{"name": "Widget", "price": 1, "image": "data:text/html;base64,PHNjcmlwdD4="}, "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockProductService)
			router := newTestRouter(svc)

			rec := serve(router, jsonRequest(t, tt.method, tt.target, tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			assert.Contains(t, resp.Error.Fields, tt.field)
			svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateProduct_UnsupportedMediaType(t *testing.T) {
	router := newTestRouter(newDummy())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader([]byte("name=x")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(router, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeResponse(t, rec).Error.Code)
}

func TestCreateProduct_ServiceFailure(t *testing.T) {
	svc := new(mockProductService)
	svc.On("CreateProduct", mock.Anything, mock.AnythingOfType("domain.ProductInput")).
		Return(nil, apperrors.OperationFailed(service.OpCreate.Message()))
	router := newTestRouter(svc)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/v1/products", domain.ProductInput{
		Name: "Widget", Price: 1, Image: "/img/widget.png",
	}))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to create product, please try again later", decodeResponse(t, rec).Error.Message)
	svc.AssertExpectations(t)
}

func TestCreateProduct_UnexpectedErrorIsMasked(t *testing.T) {
	svc := new(mockProductService)
	svc.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))
	router := newTestRouter(svc)

	rec := serve(router, jsonRequest(t, http.MethodPost, "/api/v1/products", domain.ProductInput{
		Name: "Widget", Price: 1, Image: "/img/widget.png",
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}

// =============================================================================
// PUT /api/v1/products/{id} - UpdateProduct
// =============================================================================

func TestUpdateProduct_WithoutImageKeepsImage(t *testing.T) {
	svc := newDummy()
	router := newTestRouter(svc)
	before, err := svc.GetProduct(context.Background(), "1")
	require.NoError(t, err)

	rec := serve(router, jsonRequest(t, http.MethodPut, "/api/v1/products/1", map[string]any{
		"name":  "Wireless Headphones Pro",
		"price": 149.5,
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	p := decodeProduct(t, rec)
	assert.Equal(t, "Wireless Headphones Pro", p.Name)
	assert.Equal(t, 149.5, p.Price)
	assert.Equal(t, before.Image, p.Image)
	assert.True(t, p.DateAdded.Equal(before.DateAdded))
	assert.True(t, p.DateUpdated.After(before.DateUpdated))
}

func TestUpdateProduct_NotFound(t *testing.T) {
	router := newTestRouter(newDummy())

	rec := serve(router, jsonRequest(t, http.MethodPut, "/api/v1/products/nope", map[string]any{
		"name": "X", "price": 1,
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeResponse(t, rec).Error.Code)
}

func TestUpdateProduct_ValidationError(t *testing.T) {
	router := newTestRouter(newDummy())

	rec := serve(router, jsonRequest(t, http.MethodPut, "/api/v1/products/1", map[string]any{
		"name": "X", "price": 1, "image": "not a url",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Error.Fields, "image")
}

// =============================================================================
// DELETE /api/v1/products/{id} - DeleteProduct
// =============================================================================

func TestDeleteProduct(t *testing.T) {
	svc := newDummy()
	router := newTestRouter(svc)

	rec := serve(router, httptest.NewRequest(http.MethodDelete, "/api/v1/products/2", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/api/v1/products/2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	products, err := svc.GetProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestDeleteProduct_ServiceFailure(t *testing.T) {
	svc := new(mockProductService)
	svc.On("DeleteProduct", mock.Anything, "2").Return(false, apperrors.OperationFailed(service.OpDelete.Message()))
	router := newTestRouter(svc)

	rec := serve(router, httptest.NewRequest(http.MethodDelete, "/api/v1/products/2", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to delete product, please try again later", decodeResponse(t, rec).Error.Message)
}

// =============================================================================
// Infrastructure routes
// =============================================================================

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(newDummy())

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_http_requests_total")
}

func TestRouter_Placeholder(t *testing.T) {
	router := newTestRouter(newDummy())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/placeholder.svg?height=200&width=200", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestRouter_CORSOnAPI(t *testing.T) {
	router := newTestRouter(newDummy())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := serve(router, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// Package api implements service.ProductService against the remote catalog
// REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/httpclient"
)

const (
	backendName  = "api"
	upstreamName = "catalog-api"
)

// ErrBaseURLMissing is logged for every call made without a base URL.
var ErrBaseURLMissing = errors.New("catalog API base URL is not configured")

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Service is the remote API backend.
type Service struct {
	client  HTTPDoer
	baseURL string
	logger  *slog.Logger
}

var _ service.ProductService = (*Service)(nil)

// New creates a remote backend rooted at baseURL. An empty baseURL is
// accepted, but every call then fails.
func New(client HTTPDoer, baseURL string, logger *slog.Logger) *Service {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		logger.Warn("catalog API base URL is not configured, API requests will fail")
	}
	return &Service{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

// GetProducts handles GET {base}/products.
func (s *Service) GetProducts(ctx context.Context) ([]domain.Product, error) {
	resp, err := s.send(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return nil, s.fail(ctx, service.OpList, err)
	}

	products := []domain.Product{}
	if err := decode(resp, &products); err != nil {
		return nil, s.fail(ctx, service.OpList, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// GetProduct handles GET {base}/products/{id}. A 404 yields (nil, nil).
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	resp, err := s.send(ctx, http.MethodGet, s.itemURL(id), nil)
	if err != nil {
		return nil, s.fail(ctx, service.OpGet, err, slog.String("product_id", id))
	}
	if resp.StatusCode == http.StatusNotFound {
		drain(resp)
		return nil, nil
	}

	var product domain.Product
	if err := decode(resp, &product); err != nil {
		return nil, s.fail(ctx, service.OpGet, err, slog.String("product_id", id))
	}
	return &product, nil
}

// CreateProduct handles POST {base}/products with a multipart body.
func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	form, err := encodeForm(input.Name, input.Price, input.Image)
	if err != nil {
		return nil, s.fail(ctx, service.OpCreate, err)
	}

	resp, err := s.send(ctx, http.MethodPost, s.collectionURL(), form)
	if err != nil {
		return nil, s.fail(ctx, service.OpCreate, err)
	}

	var product domain.Product
	if err := decode(resp, &product); err != nil {
		return nil, s.fail(ctx, service.OpCreate, err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)
	return &product, nil
}

// UpdateProduct handles PUT {base}/products/{id}. The image fields are left
// out when input carries no image. A 404 yields (nil, nil).
func (s *Service) UpdateProduct(ctx context.Context, id string, input domain.ProductUpdateInput) (*domain.Product, error) {
	image := ""
	if input.HasImage() {
		image = *input.Image
	}
	form, err := encodeForm(input.Name, input.Price, image)
	if err != nil {
		return nil, s.fail(ctx, service.OpUpdate, err, slog.String("product_id", id))
	}

	resp, err := s.send(ctx, http.MethodPut, s.itemURL(id), form)
	if err != nil {
		return nil, s.fail(ctx, service.OpUpdate, err, slog.String("product_id", id))
	}
	if resp.StatusCode == http.StatusNotFound {
		drain(resp)
		return nil, nil
	}

	var product domain.Product
	if err := decode(resp, &product); err != nil {
		return nil, s.fail(ctx, service.OpUpdate, err, slog.String("product_id", id))
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
		slog.Bool("image_replaced", input.HasImage()),
	)
	return &product, nil
}

// DeleteProduct handles DELETE {base}/products/{id}. 404 reports false; 204
// and any other 2xx report true.
func (s *Service) DeleteProduct(ctx context.Context, id string) (bool, error) {
	resp, err := s.send(ctx, http.MethodDelete, s.itemURL(id), nil)
	if err != nil {
		return false, s.fail(ctx, service.OpDelete, err, slog.String("product_id", id))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		drain(resp)
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		drain(resp)
	default:
		return false, s.fail(ctx, service.OpDelete, httpclient.ParseResponseError(resp, upstreamName),
			slog.String("product_id", id), slog.Int("status", resp.StatusCode))
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return true, nil
}

func (s *Service) collectionURL() string {
	return s.baseURL + "/products"
}

func (s *Service) itemURL(id string) string {
	return s.baseURL + "/products/" + url.PathEscape(id)
}

// send issues the request. Transport errors and upstream 5xx responses are
// returned as errors; every other response is handed back to the caller.
func (s *Service) send(ctx context.Context, method, target string, form *multipartForm) (*http.Response, error) {
	if s.baseURL == "" {
		return nil, ErrBaseURLMissing
	}

	var body io.Reader = http.NoBody
	if form != nil {
		body = form.reader()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", form.contentType)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return resp, nil
}

// decode reads a 2xx JSON response into dst. Non-2xx responses are turned
// into errors carrying the upstream message.
func decode(resp *http.Response, dst any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, upstreamName)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", upstreamName, err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func (s *Service) fail(ctx context.Context, op service.Op, err error, attrs ...any) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		attrs = append(attrs, slog.Int("status", statusErr.StatusCode))
	}
	return service.Fail(ctx, s.logger, backendName, op, err, attrs...)
}

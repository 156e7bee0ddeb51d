// Package dummy implements service.ProductService over a seeded in-memory
// list, for demos and tests.
package dummy

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/clock"
)

const backendName = "dummy"

// DefaultLatency is the simulated network delay per operation.
var DefaultLatency = service.Latency{
	List:   1000 * time.Millisecond,
	Get:    800 * time.Millisecond,
	Create: 1200 * time.Millisecond,
	Update: 1200 * time.Millisecond,
	Delete: 800 * time.Millisecond,
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Seed returns a fresh copy of the demo catalog.
func Seed() []domain.Product {
	return []domain.Product{
		{
			ID:          "1",
			Name:        "Wireless Headphones",
			Price:       99.99,
			Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500&q=80",
			DateAdded:   day(2023, time.January, 15),
			DateUpdated: day(2023, time.January, 15),
		},
		{
			ID:          "2",
			Name:        "Smart Watch",
			Price:       199.99,
			Image:       "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500&q=80",
			DateAdded:   day(2023, time.February, 20),
			DateUpdated: day(2023, time.March, 10),
		},
		{
			ID:          "3",
			Name:        "Bluetooth Speaker",
			Price:       79.99,
			Image:       "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=500&q=80",
			DateAdded:   day(2023, time.March, 5),
			DateUpdated: day(2023, time.March, 5),
		},
		{
			ID:          "4",
			Name:        "Mechanical Keyboard",
			Price:       129.99,
			Image:       "https://images.unsplash.com/photo-1618384887929-16ec33fab9ef?w=500&q=80",
			DateAdded:   day(2023, time.April, 12),
			DateUpdated: day(2023, time.April, 12),
		},
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLatency overrides DefaultLatency.
func WithLatency(l service.Latency) Option {
	return func(s *Service) { s.latency = l }
}

// WithClock sets the clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithSeed replaces the demo catalog the service starts from and resets to.
func WithSeed(products []domain.Product) Option {
	return func(s *Service) { s.seed = slices.Clone(products) }
}

// Service is the fixture backend. Its state lives for the life of the
// process unless Reset is called.
type Service struct {
	mu       sync.Mutex
	products []domain.Product
	seed     []domain.Product
	latency  service.Latency
	clock    clock.Clock
	logger   *slog.Logger
}

var _ service.ProductService = (*Service)(nil)

// New creates a fixture backend holding the seed catalog.
func New(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		seed:    Seed(),
		latency: DefaultLatency,
		clock:   clock.RealClock{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.products = slices.Clone(s.seed)
	return s
}

// Reset restores the seed catalog.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = slices.Clone(s.seed)
}

// GetProducts returns a copy of the catalog.
func (s *Service) GetProducts(ctx context.Context) ([]domain.Product, error) {
	if err := s.latency.Wait(ctx, service.OpList); err != nil {
		return nil, s.fail(ctx, service.OpList, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// GetProduct returns the product with id, or nil when absent.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := s.latency.Wait(ctx, service.OpGet); err != nil {
		return nil, s.fail(ctx, service.OpGet, err, slog.String("product_id", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		p := s.products[i]
		return &p, nil
	}
	return nil, nil
}

// CreateProduct appends a product with a fresh UUID.
func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	if err := s.latency.Wait(ctx, service.OpCreate); err != nil {
		return nil, s.fail(ctx, service.OpCreate, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product := domain.NewProduct(uuid.NewString(), input, s.clock.Now())
	s.products = append(slices.Clip(s.products), product)
	return &product, nil
}

// UpdateProduct merges input into the product with id, or returns nil when
// absent.
func (s *Service) UpdateProduct(ctx context.Context, id string, input domain.ProductUpdateInput) (*domain.Product, error) {
	if err := s.latency.Wait(ctx, service.OpUpdate); err != nil {
		return nil, s.fail(ctx, service.OpUpdate, err, slog.String("product_id", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	updated := input.ApplyTo(s.products[i], s.clock.Now())
	next := slices.Clone(s.products)
	next[i] = updated
	s.products = next
	return &updated, nil
}

// DeleteProduct removes the product with id. It reports false when absent.
func (s *Service) DeleteProduct(ctx context.Context, id string) (bool, error) {
	if err := s.latency.Wait(ctx, service.OpDelete); err != nil {
		return false, s.fail(ctx, service.OpDelete, err, slog.String("product_id", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.products = slices.Delete(slices.Clone(s.products), i, i+1)
	return true, nil
}

func (s *Service) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == id })
}

func (s *Service) fail(ctx context.Context, op service.Op, err error, attrs ...any) error {
	return service.Fail(ctx, s.logger, backendName, op, err, attrs...)
}

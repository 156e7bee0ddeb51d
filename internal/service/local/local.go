// Package local implements service.ProductService over a durable key/value
// store. The whole collection is kept as one JSON array under a single key.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/internal/storage"
	"github.com/utafrali/catalog-admin/pkg/clock"
)

const backendName = "local"

// StorageKey is the key the product collection is stored under.
const StorageKey = "products"

// DefaultLatency is the simulated delay per operation.
var DefaultLatency = service.Latency{
	List:   300 * time.Millisecond,
	Get:    200 * time.Millisecond,
	Create: 500 * time.Millisecond,
	Update: 500 * time.Millisecond,
	Delete: 400 * time.Millisecond,
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

// WithKey overrides StorageKey.
func WithKey(key string) Option {
	return func(s *Service) { s.key = key }
}

// WithIDGenerator overrides the UUID id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service is the durable local backend. A nil store means no durable storage
// is available: reads see an empty collection and writes are dropped.
//
// Read-modify-write is serialized within the process only; two processes
// sharing one store can overwrite each other's changes.
type Service struct {
	mu      sync.Mutex
	store   storage.Store
	key     string
	latency service.Latency
	clock   clock.Clock
	newID   func() string
	logger  *slog.Logger
}

var _ service.ProductService = (*Service)(nil)

// New creates a local backend over store.
func New(store storage.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		key:     StorageKey,
		latency: DefaultLatency,
		clock:   clock.RealClock{},
		newID:   uuid.NewString,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if store == nil && logger != nil {
		logger.Warn("durable store unavailable, local products will not persist")
	}
	return s
}

// GetProducts returns every stored product in insertion order.
func (s *Service) GetProducts(ctx context.Context) ([]domain.Product, error) {
	if err := s.latency.Wait(ctx, service.OpList); err != nil {
		return nil, s.fail(ctx, service.OpList, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, s.fail(ctx, service.OpList, err)
	}
	return products, nil
}

// GetProduct returns the product with id, or nil when absent.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := s.latency.Wait(ctx, service.OpGet); err != nil {
		return nil, s.fail(ctx, service.OpGet, err, slog.String("product_id", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, s.fail(ctx, service.OpGet, err, slog.String("product_id", id))
	}
	if i := indexOf(products, id); i >= 0 {
		return &products[i], nil
	}
	return nil, nil
}

// CreateProduct appends a new product with a generated id.
func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	if err := s.latency.Wait(ctx, service.OpCreate); err != nil {
		return nil, s.fail(ctx, service.OpCreate, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return nil, s.fail(ctx, service.OpCreate, err)
	}

	product := domain.NewProduct(s.newID(), input, s.clock.Now())
	if indexOf(products, product.ID) >= 0 {
		return nil, s.fail(ctx, service.OpCreate, fmt.Errorf("generated id %s already exists", product.ID))
	}
	if err := s.save(ctx, append(products, product)); err != nil {
		return nil, s.fail(ctx, service.OpCreate, err)
	}
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

	products, err := s.load(ctx)
	if err != nil {
		return nil, s.fail(ctx, service.OpUpdate, err, slog.String("product_id", id))
	}
	i := indexOf(products, id)
	if i < 0 {
		return nil, nil
	}

	updated := input.ApplyTo(products[i], s.clock.Now())
	products[i] = updated
	if err := s.save(ctx, products); err != nil {
		return nil, s.fail(ctx, service.OpUpdate, err, slog.String("product_id", id))
	}
	return &updated, nil
}

// DeleteProduct removes the product with id. It reports false when absent.
func (s *Service) DeleteProduct(ctx context.Context, id string) (bool, error) {
	if err := s.latency.Wait(ctx, service.OpDelete); err != nil {
		return false, s.fail(ctx, service.OpDelete, err, slog.String("product_id", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return false, s.fail(ctx, service.OpDelete, err, slog.String("product_id", id))
	}
	i := indexOf(products, id)
	if i < 0 {
		return false, nil
	}

	if err := s.save(ctx, slices.Delete(products, i, i+1)); err != nil {
		return false, s.fail(ctx, service.OpDelete, err, slog.String("product_id", id))
	}
	return true, nil
}

// Ping checks the underlying store. It succeeds when no store is configured.
func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Ping(ctx)
}

func (s *Service) load(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	if s.store == nil {
		return products, nil
	}

	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return products, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if len(raw) == 0 {
		return products, nil
	}
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *Service) save(ctx context.Context, products []domain.Product) error {
	if s.store == nil {
		return nil
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.store.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

func (s *Service) fail(ctx context.Context, op service.Op, err error, attrs ...any) error {
	return service.Fail(ctx, s.logger, backendName, op, err, attrs...)
}

func indexOf(products []domain.Product, id string) int {
	return slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
}

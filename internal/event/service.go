// Package event publishes product change events after successful mutations.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/service"
	"github.com/utafrali/catalog-admin/pkg/clock"
)

// DefaultPublishTimeout bounds each publish.
const DefaultPublishTimeout = 5 * time.Second

// PublishingService decorates a ProductService with change events. Publish
// failures are logged and never fail the wrapped operation.
type PublishingService struct {
	next     service.ProductService
	producer *Producer
	clock    clock.Clock
	timeout  time.Duration
	logger   *slog.Logger
}

var _ service.ProductService = (*PublishingService)(nil)

// NewPublishingService wraps next.
func NewPublishingService(next service.ProductService, producer *Producer, clk clock.Clock, logger *slog.Logger) *PublishingService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &PublishingService{
		next:     next,
		producer: producer,
		clock:    clk,
		timeout:  DefaultPublishTimeout,
		logger:   logger,
	}
}

// Unwrap returns the decorated service.
func (s *PublishingService) Unwrap() service.ProductService {
	return s.next
}

func (s *PublishingService) GetProducts(ctx context.Context) ([]domain.Product, error) {
	return s.next.GetProducts(ctx)
}

func (s *PublishingService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.next.GetProduct(ctx, id)
}

func (s *PublishingService) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	p, err := s.next.CreateProduct(ctx, input)
	if err != nil || p == nil {
		return p, err
	}
	s.emit(ctx, "created", p.ID, func(ctx context.Context) error {
		return s.producer.PublishProductCreated(ctx, p, s.clock.Now())
	})
	return p, nil
}

func (s *PublishingService) UpdateProduct(ctx context.Context, id string, input domain.ProductUpdateInput) (*domain.Product, error) {
	p, err := s.next.UpdateProduct(ctx, id, input)
	if err != nil || p == nil {
		return p, err
	}
	s.emit(ctx, "updated", p.ID, func(ctx context.Context) error {
		return s.producer.PublishProductUpdated(ctx, p, s.clock.Now())
	})
	return p, nil
}

func (s *PublishingService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	ok, err := s.next.DeleteProduct(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.emit(ctx, "deleted", id, func(ctx context.Context) error {
		return s.producer.PublishProductDeleted(ctx, id, s.clock.Now())
	})
	return true, nil
}

// emit runs publish detached from the caller's cancellation but bounded by
// the publish timeout.
func (s *PublishingService) emit(ctx context.Context, action, id string, publish func(context.Context) error) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := publish(pctx); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product event",
			slog.String("action", action),
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/catalog-admin/internal/dataurl"
	"github.com/utafrali/catalog-admin/internal/domain"
	pkgkafka "github.com/utafrali/catalog-admin/pkg/kafka"
	"github.com/utafrali/catalog-admin/pkg/logger"
)

// Aggregate type constant.
const AggregateTypeProduct = "product"

// Source identifier for events originating from the console.
const SourceCatalogAdmin = "catalog-admin"

// Kafka topics for product change events.
var (
	TopicProductCreated = pkgkafka.Topic(AggregateTypeProduct, "created")
	TopicProductUpdated = pkgkafka.Topic(AggregateTypeProduct, "updated")
	TopicProductDeleted = pkgkafka.Topic(AggregateTypeProduct, "deleted")
)

// ProductChangedData is the payload for product.created and product.updated
// events. Inline data URL images are replaced by a marker so events stay
// small.
type ProductChangedData struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	DateAdded   time.Time `json:"date_added"`
	DateUpdated time.Time `json:"date_updated"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// InlineImageMarker replaces data URL images in event payloads.
const InlineImageMarker = "inline"

// Producer publishes product change events to Kafka.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates an event producer over publisher.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product, at time.Time) error {
	return p.publish(ctx, TopicProductCreated, product.ID, changedData(product), at)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product, at time.Time) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, changedData(product), at)
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string, at time.Time) error {
	return p.publish(ctx, TopicProductDeleted, id, ProductDeletedData{ID: id}, at)
}

func (p *Producer) publish(ctx context.Context, topic, id string, data any, at time.Time) error {
	evt, err := pkgkafka.NewChangeEvent(topic, AggregateTypeProduct, id, SourceCatalogAdmin, data, at)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.String("product_id", id),
	)
	return nil
}

func changedData(p *domain.Product) ProductChangedData {
	image := p.Image
	if dataurl.IsDataURL(image) {
		image = InlineImageMarker
	}
	return ProductChangedData{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Image:       image,
		DateAdded:   p.DateAdded,
		DateUpdated: p.DateUpdated,
	}
}

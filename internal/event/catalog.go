package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	pkgkafka "github.com/mouadelabbassi/dashboard/pkg/kafka"
)

// Catalogue topics consumed to keep a search index in sync.
var (
	TopicProductUpserted = pkgkafka.Topic("product", "upserted")
	TopicProductDeleted  = pkgkafka.Topic("product", "deleted")
)

// Catalogue event types.
const (
	EventProductUpserted = "product.upserted"
	EventProductDeleted  = "product.deleted"
)

// ProductDeleted is the payload of a product.deleted event.
type ProductDeleted struct {
	ASIN string `json:"asin"`
}

// Indexer is a product store that accepts writes.
type Indexer interface {
	Upsert(ctx context.Context, products []domain.Product) error
	Delete(ctx context.Context, asin string) error
}

// CatalogConsumer applies catalogue events to an Indexer.
type CatalogConsumer struct {
	indexer Indexer
	logger  *slog.Logger
}

// NewCatalogConsumer creates a catalogue event handler.
func NewCatalogConsumer(indexer Indexer, logger *slog.Logger) *CatalogConsumer {
	return &CatalogConsumer{indexer: indexer, logger: logger}
}

// Handle processes one catalogue event. Unknown types are ignored.
func (c *CatalogConsumer) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	switch evt.EventType {
	case EventProductUpserted:
		var p domain.Product
		if err := evt.UnmarshalData(&p); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", evt.EventType, err)
		}
		if p.ASIN == "" {
			return fmt.Errorf("%s: missing asin", evt.EventType)
		}
		if p.ApprovalStatus == "" {
			p.ApprovalStatus = domain.ApprovalApproved
		}
		if err := c.indexer.Upsert(ctx, []domain.Product{p}); err != nil {
			return fmt.Errorf("index product %s: %w", p.ASIN, err)
		}
		c.logger.DebugContext(ctx, "product indexed", slog.String("asin", p.ASIN))
	case EventProductDeleted:
		var data ProductDeleted
		if err := evt.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", evt.EventType, err)
		}
		if err := c.indexer.Delete(ctx, data.ASIN); err != nil {
			return fmt.Errorf("delete product %s: %w", data.ASIN, err)
		}
		c.logger.DebugContext(ctx, "product removed", slog.String("asin", data.ASIN))
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", evt.EventType),
			slog.String("event_id", evt.EventID),
		)
	}
	return nil
}

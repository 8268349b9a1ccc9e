package event

import (
	"context"
	"fmt"

	pkgkafka "github.com/mouadelabbassi/dashboard/pkg/kafka"
)

// Source identifies this service on published events.
const Source = "smartsearch"

// Topic and event type of completed searches.
var TopicSearchPerformed = pkgkafka.Topic("search", "performed")

const EventSearchPerformed = "search.performed"

// SearchPerformed is the payload of a search.performed event.
type SearchPerformed struct {
	Query        string  `json:"query"`
	Normalized   string  `json:"normalized"`
	Intent       string  `json:"intent"`
	Confidence   float64 `json:"confidence"`
	ResultsCount int     `json:"results_count"`
	TookMs       int64   `json:"took_ms"`
	UserID       string  `json:"user_id,omitempty"`
}

// Publisher is implemented by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// SearchEvents publishes search analytics events.
type SearchEvents struct {
	publisher Publisher
}

// NewSearchEvents creates a search event publisher.
func NewSearchEvents(p Publisher) *SearchEvents {
	return &SearchEvents{publisher: p}
}

// SearchPerformed publishes one completed search keyed by its normalized
// query.
func (s *SearchEvents) SearchPerformed(ctx context.Context, data SearchPerformed, correlationID string) error {
	evt, err := pkgkafka.NewEvent(EventSearchPerformed, data.Normalized, Source, data)
	if err != nil {
		return fmt.Errorf("build search event: %w", err)
	}
	evt.WithCorrelationID(correlationID)
	if err := s.publisher.Publish(ctx, TopicSearchPerformed, evt); err != nil {
		return fmt.Errorf("publish search event: %w", err)
	}
	return nil
}

package events

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/Tesseract-Nexus/go-shared/events"
	"catalog-ingestion-service/internal/models"
)

// Publisher wraps the go-shared events publisher for ingestion events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new ingestion events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		// Default to GKE internal NATS service URL
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "catalog-ingestion-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	// Ensure the products stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "ingestion-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishProductCreated publishes a product.created event for a product the
// batch orchestrator created in the external catalog.
func (p *Publisher) PublishProductCreated(ctx context.Context, product *models.StagedProduct, payload *models.ProductPayload, tenantID, actorID string) error {
	event := events.NewProductEvent(events.ProductCreated, tenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.RemoteID
	event.ProductName = product.Name
	event.SKU = product.SKU
	event.Status = string(product.ProcessingStatus)
	event.ActorID = actorID
	event.ChangeType = "created"

	if price, err := strconv.ParseFloat(payload.RegularPrice, 64); err == nil {
		event.Price = price
	}

	return p.publish(ctx, event)
}

// publish is a helper that logs and publishes events asynchronously
func (p *Publisher) publish(ctx context.Context, event *events.ProductEvent) error {
	// Publish asynchronously to not block the batch pipeline
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"sku":       event.SKU,
				"tenantID":  event.TenantID,
			}).WithError(err).Warn("Failed to publish product event")
		}
	}()
	return nil
}

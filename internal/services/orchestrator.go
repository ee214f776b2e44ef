package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"catalog-ingestion-service/internal/clients"
	"catalog-ingestion-service/internal/events"
	"catalog-ingestion-service/internal/ingest"
	"catalog-ingestion-service/internal/models"
)

// ProductCreator is the catalog contract the orchestrator needs.
type ProductCreator interface {
	CreateProduct(ctx context.Context, payload *models.ProductPayload) (*clients.CreatedProduct, error)
}

// Orchestrator runs the multi-stage creation pipeline over the verified
// products of a batch session. Products are processed strictly one at a time,
// and stages within a product are sequential dependent steps; this bounds
// load on the catalog API and keeps progress reporting unambiguous.
type Orchestrator struct {
	catalog   ProductCreator
	content   clients.ContentGenerator
	publisher *events.Publisher // nil when NATS is not configured
	logger    *logrus.Entry
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(catalog ProductCreator, content clients.ContentGenerator, publisher *events.Publisher, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		catalog:   catalog,
		content:   content,
		publisher: publisher,
		logger:    logger.WithField("component", "orchestrator"),
	}
}

// RunOptions controls a batch run.
type RunOptions struct {
	// RetryFailed resets errored products to pending before the run so they
	// are attempted again. Completed products are never re-attempted.
	RetryFailed bool
	ActorID     string
}

// ErrBatchAlreadyRunning is returned when a batch run is triggered while a
// previous run for the same session is still in flight.
var ErrBatchAlreadyRunning = fmt.Errorf("batch is already being processed")

// Run executes the creation pipeline for every product of the session that
// is verified ready and still pending. Each product's failure is caught at
// the product level; the loop always continues to the next product.
func (o *Orchestrator) Run(ctx context.Context, session *BatchSession, opts RunOptions) (models.ProcessSummary, error) {
	if !session.tryStartRun() {
		return models.ProcessSummary{}, ErrBatchAlreadyRunning
	}

	if opts.RetryFailed {
		session.resetFailed()
	}

	summary := models.ProcessSummary{}
	for _, sku := range session.order {
		if !session.tryBeginProcessing(sku) {
			continue
		}
		summary.Attempted++

		if err := o.processProduct(ctx, session, sku, opts); err != nil {
			o.logger.WithError(err).WithFields(logrus.Fields{
				"sku":     sku,
				"batchId": session.ID,
			}).Error("Product pipeline failed")
			session.finishError(sku, err.Error())
			summary.Failed++
			continue
		}
		summary.Succeeded++
	}

	session.finishRun(summary)
	return summary, nil
}

// processProduct runs the per-product pipeline: AI content, payload and
// asset bundling (with inline variation expansion for variable products),
// then a single creation call.
func (o *Orchestrator) processProduct(ctx context.Context, session *BatchSession, sku string, opts RunOptions) error {
	product := session.product(sku)
	row := session.row(sku)

	session.updateProgress(sku, 10, "generating content")
	content, err := o.content.GenerateContent(ctx, &clients.ContentRequest{
		NameHint:    product.Name,
		ProductType: row.Type(),
		Tags:        row.List(models.ColumnTags),
	})
	if err != nil {
		return fmt.Errorf("content generation failed: %w", err)
	}

	session.updateProgress(sku, 40, "building payload")
	payload := o.buildPayload(product, row, content)

	if payload.Type == "variable" {
		session.updateProgress(sku, 60, "expanding variations")
		variations := ingest.ExpandVariations(sku, row.Attributes())
		for i := range variations {
			variations[i].RegularPrice = payload.RegularPrice
			variations[i].StockQuantity = payload.StockQuantity
		}
		payload.Variations = variations
	}

	session.updateProgress(sku, 75, "creating product")
	created, err := o.catalog.CreateProduct(ctx, payload)
	if err != nil {
		return fmt.Errorf("catalog creation failed: %w", err)
	}

	session.finishCompleted(sku, strconv.FormatInt(created.ID, 10), created.Permalink)

	if o.publisher != nil {
		o.publisher.PublishProductCreated(ctx, session.product(sku), payload, session.TenantID, opts.ActorID)
	}
	return nil
}

// buildPayload merges the manifest's structured fields with the generated
// text fields and bundles the ordered image list. The base payload carries
// at most the first two named attribute groups; variation expansion reads
// the full set.
//
// The image list is copied: the payload's metadata edits must never reach
// the session's slice, which status polls read outside the session lock.
func (o *Orchestrator) buildPayload(product *models.StagedProduct, row ingest.Row, content *clients.GeneratedContent) *models.ProductPayload {
	images := append([]models.ImageAsset(nil), product.Images...)
	payload := &models.ProductPayload{
		SKU:           product.SKU,
		Name:          product.Name,
		Type:          row.Type(),
		RegularPrice:  row.Get(models.ColumnRegularPrice),
		SalePrice:     row.Get(models.ColumnSalePrice),
		Weight:        row.Get(models.ColumnWeight),
		ShippingClass: row.Get(models.ColumnShippingClass),
		Categories:    row.List(models.ColumnCategories),
		Tags:          row.List(models.ColumnTags),
		Dimensions: models.Dimensions{
			Length: row.Get(models.ColumnLength),
			Width:  row.Get(models.ColumnWidth),
			Height: row.Get(models.ColumnHeight),
		},
		Images: images,
	}

	if stock, err := strconv.Atoi(row.Get(models.ColumnStock)); err == nil {
		payload.StockQuantity = &stock
	}

	attrs := row.Attributes()
	if len(attrs) > 2 {
		attrs = attrs[:2]
	}
	payload.Attributes = attrs

	// Generated fields win over the manifest ones where present.
	if content.Name != "" {
		payload.Name = content.Name
	}
	payload.ShortDescription = content.ShortDescription
	payload.Description = content.Description
	if len(content.Tags) > 0 {
		payload.Tags = content.Tags
	}
	for i, meta := range content.ImageMetadata {
		if i >= len(payload.Images) {
			break
		}
		if meta.AltText != "" {
			payload.Images[i].NameHint = meta.AltText
		}
	}

	return payload
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"catalog-ingestion-service/internal/models"
	"gorm.io/gorm"
)

// BatchRepository persists the per-batch audit rows. A nil *gorm.DB disables
// persistence entirely; every method becomes a no-op so the service can run
// without a database in local setups.
type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create writes the audit row for a freshly verified batch.
func (r *BatchRepository) Create(ctx context.Context, batch *models.IngestionBatch) error {
	if r.db == nil {
		return nil
	}
	batch.CreatedAt = time.Now()
	batch.UpdatedAt = batch.CreatedAt
	return r.db.WithContext(ctx).Create(batch).Error
}

// MarkProcessing flips the audit row to PROCESSING when a run starts.
func (r *BatchRepository) MarkProcessing(ctx context.Context, id uuid.UUID, tenantID string) error {
	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.IngestionBatch{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{
			"status":     models.BatchStatusProcessing,
			"updated_at": time.Now(),
		}).Error
}

// RecordSummary stores the outcome counts after a run finishes.
func (r *BatchRepository) RecordSummary(ctx context.Context, id uuid.UUID, tenantID string, summary models.ProcessSummary) error {
	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.IngestionBatch{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{
			"status":     models.BatchStatusCompleted,
			"attempted":  summary.Attempted,
			"succeeded":  summary.Succeeded,
			"failed":     summary.Failed,
			"updated_at": time.Now(),
		}).Error
}

// ListByTenant returns a tenant's batch history, newest first.
func (r *BatchRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.IngestionBatch, error) {
	if r.db == nil {
		return []models.IngestionBatch{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var batches []models.IngestionBatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&batches).Error
	return batches, err
}

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"catalog-ingestion-service/internal/models"
)

func TestBatchStore_CreateAndGet(t *testing.T) {
	store := NewBatchStore(0)
	session := store.Create("tenant-1", []models.StagedProduct{readyProduct("AAA", nil)})

	got := store.Get(session.ID, "tenant-1")
	assert.NotNil(t, got)
	assert.Equal(t, session.ID, got.ID)
}

func TestBatchStore_GetIsTenantScoped(t *testing.T) {
	store := NewBatchStore(0)
	session := store.Create("tenant-1", nil)

	assert.Nil(t, store.Get(session.ID, "tenant-2"))
	assert.Nil(t, store.Get(uuid.New(), "tenant-1"))
}

func TestBatchStore_ExpiredSessionsArePurged(t *testing.T) {
	store := NewBatchStore(time.Minute)
	session := store.Create("tenant-1", nil)
	session.CreatedAt = time.Now().Add(-2 * time.Minute)

	assert.Nil(t, store.Get(session.ID, "tenant-1"))
}

func TestBatchSession_ProductsReturnsSnapshotInOrder(t *testing.T) {
	session := newBatchSession("tenant-1", []models.StagedProduct{
		readyProduct("AAA", nil),
		readyProduct("BBB", nil),
	})

	products := session.Products()
	assert.Equal(t, "AAA", products[0].SKU)
	assert.Equal(t, "BBB", products[1].SKU)

	// Mutating the snapshot does not touch the session.
	products[0].Name = "changed"
	assert.Equal(t, "Producto AAA", session.Products()[0].Name)
}

func TestBatchSession_TryBeginProcessingGuards(t *testing.T) {
	session := newBatchSession("tenant-1", []models.StagedProduct{readyProduct("AAA", nil)})

	assert.True(t, session.tryBeginProcessing("AAA"))
	// Second attempt in the same run is refused.
	assert.False(t, session.tryBeginProcessing("AAA"))
	assert.False(t, session.tryBeginProcessing("unknown"))
}

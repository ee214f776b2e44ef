package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle status of an ingestion batch session.
type BatchStatus string

const (
	BatchStatusVerified   BatchStatus = "VERIFIED"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
)

// ManifestFormat is the file format of an uploaded product manifest.
type ManifestFormat string

const (
	ManifestFormatCSV  ManifestFormat = "csv"
	ManifestFormatXLSX ManifestFormat = "xlsx"
)

// IngestionBatch is the persisted audit record for one ingestion session.
// The staged products themselves are transient and never stored; this row
// only keeps the counts and timings for the batch history view.
type IngestionBatch struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     string    `json:"tenantId" gorm:"index;not null"`
	ManifestName string    `json:"manifestName"`
	Format       string    `json:"format"`

	TotalRows    int `json:"totalRows"`
	DroppedRows  int `json:"droppedRows"`
	TotalFiles   int `json:"totalFiles"`
	IgnoredFiles int `json:"ignoredFiles"`

	ReadyCount         int `json:"readyCount"`
	DuplicateCount     int `json:"duplicateCount"`
	MissingImagesCount int `json:"missingImagesCount"`
	MissingDataCount   int `json:"missingDataCount"`

	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	Status    BatchStatus `json:"status" gorm:"type:varchar(20)"`
	CreatedBy *string     `json:"createdBy,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TableName returns the table name for the IngestionBatch model
func (IngestionBatch) TableName() string {
	return "ingestion_batches"
}

// IngestRowError represents a manifest row that was rejected during parsing
// or validation. Row numbers are 1-indexed including the header row.
type IngestRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VerifyResult is the response body of the batch verification endpoint.
type VerifyResult struct {
	BatchID      uuid.UUID       `json:"batchId"`
	Products     []StagedProduct `json:"products"`
	TotalRows    int             `json:"totalRows"`
	DroppedRows  int             `json:"droppedRows"`
	RowErrors    []IngestRowError `json:"rowErrors,omitempty"`
	IgnoredFiles []IgnoredFile   `json:"ignoredFiles,omitempty"`
	ValidateOnly bool            `json:"validateOnly"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

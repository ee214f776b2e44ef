package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"catalog-ingestion-service/internal/clients"
	"catalog-ingestion-service/internal/config"
	"catalog-ingestion-service/internal/ingest"
	"catalog-ingestion-service/internal/middleware"
	"catalog-ingestion-service/internal/models"
	"catalog-ingestion-service/internal/repository"
	"catalog-ingestion-service/internal/services"
)

// IngestionHandler exposes the batch ingestion API: verification uploads,
// batch processing triggers, status polling and the manifest template.
type IngestionHandler struct {
	cfg          *config.Config
	store        *services.BatchStore
	batches      *repository.BatchRepository
	catalog      *clients.CatalogClient
	orchestrator *services.Orchestrator
	redis        *redis.Client
	logger       *logrus.Logger
}

func NewIngestionHandler(
	cfg *config.Config,
	store *services.BatchStore,
	batches *repository.BatchRepository,
	catalog *clients.CatalogClient,
	orchestrator *services.Orchestrator,
	redisClient *redis.Client,
	logger *logrus.Logger,
) *IngestionHandler {
	return &IngestionHandler{
		cfg:          cfg,
		store:        store,
		batches:      batches,
		catalog:      catalog,
		orchestrator: orchestrator,
		redis:        redisClient,
		logger:       logger,
	}
}

// VerifyBatch accepts a manifest plus image files, runs the verification
// pass and stages a batch session for later processing.
// POST /api/v1/ingestion/batches
func (h *IngestionHandler) VerifyBatch(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	if !h.catalog.Configured() {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CATALOG_NOT_CONFIGURED",
				Message: "Catalog API credentials are not configured",
			},
		})
		return
	}

	// MaxBytesReader enforces the limit on the whole body; the parse's
	// in-memory threshold alone would just spill oversize parts to disk.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadSize)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UPLOAD_TOO_LARGE",
					Message: "Upload exceeds the maximum allowed size",
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_UPLOAD",
				Message: "Failed to parse multipart upload: " + err.Error(),
			},
		})
		return
	}

	manifestFile, manifestHeader, err := c.Request.FormFile("manifest")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "MANIFEST_REQUIRED",
				Message: "Please upload a CSV or XLSX manifest in the 'manifest' field",
			},
		})
		return
	}
	defer manifestFile.Close()

	var manifest *ingest.Manifest
	var format models.ManifestFormat
	switch strings.ToLower(filepath.Ext(manifestHeader.Filename)) {
	case ".csv":
		format = models.ManifestFormatCSV
		manifest, err = ingest.ParseCSV(manifestFile)
	case ".xlsx":
		format = models.ManifestFormatXLSX
		manifest, err = ingest.ParseXLSX(manifestFile)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UNSUPPORTED_FORMAT",
				Message: "Manifest must be a .csv or .xlsx file",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_MANIFEST",
				Message: "Failed to parse manifest: " + err.Error(),
			},
		})
		return
	}

	imageHeaders := c.Request.MultipartForm.File["images"]
	if len(imageHeaders) > h.cfg.MaxFilesPerBatch {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TOO_MANY_FILES",
				Message: "Batch exceeds the maximum number of image files",
			},
		})
		return
	}
	files := make([]services.UploadedFile, 0, len(imageHeaders))
	for _, fh := range imageHeaders {
		files = append(files, services.UploadedFile{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	checker := services.NewCachedDuplicateChecker(h.catalog, h.redis, tenantID, h.logger)
	classifier := services.NewClassifier(checker, h.cfg.DuplicateCheckTimeout, h.cfg.DuplicateCheckFailOpen, h.logger)
	result := classifier.Classify(c.Request.Context(), manifest, files)

	session := h.store.Create(tenantID, result.Products)
	session.ManifestName = manifestHeader.Filename
	session.Format = format
	session.ValidateOnly = validateOnly
	session.TotalRows = manifest.TotalRows
	session.DroppedRows = manifest.DroppedRows
	session.RowErrors = manifest.RowErrors
	session.IgnoredFiles = result.IgnoredFiles

	h.persistAudit(c.Request.Context(), session, result, len(files), actorID(c))

	h.logger.WithFields(logrus.Fields{
		"batchId":  session.ID,
		"tenantId": tenantID,
		"products": len(result.Products),
		"files":    len(files),
	}).Info("Batch verified")

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data: models.VerifyResult{
			BatchID:      session.ID,
			Products:     session.Products(),
			TotalRows:    manifest.TotalRows,
			DroppedRows:  manifest.DroppedRows,
			RowErrors:    manifest.RowErrors,
			IgnoredFiles: result.IgnoredFiles,
			ValidateOnly: validateOnly,
		},
	})
}

// persistAudit writes the batch audit row. Persistence failures are logged
// and never fail the request; the session itself is the working state.
func (h *IngestionHandler) persistAudit(ctx context.Context, session *services.BatchSession, result *services.ClassifyResult, totalFiles int, createdBy string) {
	batch := &models.IngestionBatch{
		ID:           session.ID,
		TenantID:     session.TenantID,
		ManifestName: session.ManifestName,
		Format:       string(session.Format),
		TotalRows:    session.TotalRows,
		DroppedRows:  session.DroppedRows,
		TotalFiles:   totalFiles,
		IgnoredFiles: len(result.IgnoredFiles),
		Status:       models.BatchStatusVerified,
	}
	if createdBy != "" {
		batch.CreatedBy = &createdBy
	}
	for _, p := range result.Products {
		switch p.VerificationStatus {
		case models.VerificationReady:
			batch.ReadyCount++
		case models.VerificationDuplicate:
			batch.DuplicateCount++
		case models.VerificationMissingImages:
			batch.MissingImagesCount++
		case models.VerificationMissingCSVData:
			batch.MissingDataCount++
		}
	}
	if err := h.batches.Create(ctx, batch); err != nil {
		h.logger.WithError(err).WithField("batchId", session.ID).Warn("Failed to persist batch audit row")
	}
}

type processRequest struct {
	RetryFailed bool `json:"retryFailed"`
}

// ProcessBatch starts the sequential creation pipeline for a verified batch.
// The run happens in the background; progress is polled via GetBatch.
// POST /api/v1/ingestion/batches/:id/process
func (h *IngestionHandler) ProcessBatch(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	session := h.sessionFromPath(c, tenantID)
	if session == nil {
		return
	}
	if session.ValidateOnly {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATE_ONLY_BATCH",
				Message: "This batch was uploaded for validation only and cannot be processed",
			},
		})
		return
	}
	if session.Running() {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "BATCH_ALREADY_RUNNING",
				Message: "This batch is already being processed",
			},
		})
		return
	}

	var req processRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	opts := services.RunOptions{RetryFailed: req.RetryFailed, ActorID: actorID(c)}

	if err := h.batches.MarkProcessing(c.Request.Context(), session.ID, tenantID); err != nil {
		h.logger.WithError(err).WithField("batchId", session.ID).Warn("Failed to mark batch processing")
	}

	go func() {
		// Detached from the request context: the run outlives the response.
		ctx := context.Background()
		summary, err := h.orchestrator.Run(ctx, session, opts)
		if err != nil {
			h.logger.WithError(err).WithField("batchId", session.ID).Warn("Batch run rejected")
			return
		}
		if err := h.batches.RecordSummary(ctx, session.ID, session.TenantID, summary); err != nil {
			h.logger.WithError(err).WithField("batchId", session.ID).Warn("Failed to record batch summary")
		}
	}()

	c.JSON(http.StatusAccepted, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"batchId":     session.ID,
			"status":      models.BatchStatusProcessing,
			"retryFailed": req.RetryFailed,
		},
	})
}

// GetBatch returns the live state of a batch session: per-product statuses,
// progress and the run summary once available.
// GET /api/v1/ingestion/batches/:id
func (h *IngestionHandler) GetBatch(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	session := h.sessionFromPath(c, tenantID)
	if session == nil {
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"batchId":      session.ID,
			"manifestName": session.ManifestName,
			"format":       session.Format,
			"validateOnly": session.ValidateOnly,
			"running":      session.Running(),
			"totalRows":    session.TotalRows,
			"droppedRows":  session.DroppedRows,
			"rowErrors":    session.RowErrors,
			"ignoredFiles": session.IgnoredFiles,
			"products":     session.Products(),
			"summary":      session.Summary(),
			"createdAt":    session.CreatedAt,
		},
	})
}

// ListBatches returns the tenant's persisted batch history, newest first.
// GET /api/v1/ingestion/batches
func (h *IngestionHandler) ListBatches(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	batches, err := h.batches.ListByTenant(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list batches")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "LIST_FAILED",
				Message: "Failed to load batch history",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    batches,
	})
}

// GetTemplate returns the manifest template definition or file.
// GET /api/v1/ingestion/template
func (h *IngestionHandler) GetTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.IngestionManifestTemplate()

	switch format {
	case "csv":
		h.writeCSVTemplate(c, template)
	case "xlsx":
		h.writeXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// writeCSVTemplate downloads a CSV template (headers only)
func (h *IngestionHandler) writeCSVTemplate(c *gin.Context, template models.ManifestTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=ingestion_manifest_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// writeXLSXTemplate downloads an Excel template with an instructions sheet
func (h *IngestionHandler) writeXLSXTemplate(c *gin.Context, template models.ManifestTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Manifest Instructions")

	f.SetCellValue("Instructions", "A3", "IMAGE FILENAMES:")
	f.SetCellValue("Instructions", "A4", "Name image files as SKU-Product-Name-INDEX.jpg, e.g. CAM001-Camiseta-Basica-1.jpg")
	f.SetCellValue("Instructions", "A5", "Everything before the first hyphen is the SKU, so SKUs themselves must not contain hyphens.")
	f.SetCellValue("Instructions", "A6", "The trailing number orders a product's gallery.")

	f.SetCellValue("Instructions", "A8", "VARIATIONS:")
	f.SetCellValue("Instructions", "A9", "Set tipo=variable and fill the atributo_N_* columns. Values are pipe-delimited (Rojo | Verde).")
	f.SetCellValue("Instructions", "A10", "Attributes with atributo_N_variacion=1 form the variation matrix.")

	f.SetCellValue("Instructions", "A12", "Column Definitions:")
	f.SetCellValue("Instructions", "A13", "Column")
	f.SetCellValue("Instructions", "B13", "Description")
	f.SetCellValue("Instructions", "C13", "Required")
	f.SetCellValue("Instructions", "D13", "Type")
	f.SetCellValue("Instructions", "E13", "Example")

	for i, col := range template.Columns {
		row := strconv.Itoa(i + 14)
		f.SetCellValue("Instructions", "A"+row, col.Name)
		f.SetCellValue("Instructions", "B"+row, col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", "C"+row, required)
		f.SetCellValue("Instructions", "D"+row, col.Type)
		f.SetCellValue("Instructions", "E"+row, col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=ingestion_manifest_template.xlsx")

	f.Write(c.Writer)
}

// sessionFromPath resolves the :id path param to a live tenant session,
// writing the error response itself when resolution fails.
func (h *IngestionHandler) sessionFromPath(c *gin.Context, tenantID string) *services.BatchSession {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_BATCH_ID",
				Message: "Batch ID must be a UUID",
			},
		})
		return nil
	}

	session := h.store.Get(id, tenantID)
	if session == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "BATCH_NOT_FOUND",
				Message: "Batch not found or expired",
			},
		})
		return nil
	}
	return session
}

func actorID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"catalog-ingestion-service/internal/clients"
	"catalog-ingestion-service/internal/config"
	"catalog-ingestion-service/internal/repository"
	"catalog-ingestion-service/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestIngestionHandler(maxUploadSize int64) *IngestionHandler {
	cfg := &config.Config{
		MaxUploadSize:          maxUploadSize,
		MaxFilesPerBatch:       10,
		DuplicateCheckTimeout:  time.Second,
		DuplicateCheckFailOpen: true,
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	catalog := clients.NewCatalogClient("https://shop.invalid", "ck_test", "cs_test", time.Second)
	content := clients.NewContentClient("http://localhost:0", "", time.Second)
	orchestrator := services.NewOrchestrator(catalog, content, nil, logger)

	return NewIngestionHandler(
		cfg,
		services.NewBatchStore(0),
		repository.NewBatchRepository(nil),
		catalog,
		orchestrator,
		nil,
		logger,
	)
}

func multipartUpload(t *testing.T, manifestName string, manifestBody []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("manifest", manifestName)
	assert.NoError(t, err)
	_, err = part.Write(manifestBody)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func verifyRequest(handler *IngestionHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/ingestion/batches", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.Set("tenant_id", "tenant-1")

	handler.VerifyBatch(c)
	return rec
}

func TestVerifyBatch_RejectsBodyOverUploadLimit(t *testing.T) {
	handler := newTestIngestionHandler(1 << 10) // 1 KiB limit

	body, contentType := multipartUpload(t, "productos.csv", bytes.Repeat([]byte("a"), 8<<10))
	rec := verifyRequest(handler, body, contentType)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPLOAD_TOO_LARGE")
}

func TestVerifyBatch_AcceptsBodyWithinUploadLimit(t *testing.T) {
	handler := newTestIngestionHandler(1 << 20)

	// Header-only manifest: a valid upload with zero staged products.
	body, contentType := multipartUpload(t, "productos.csv", []byte("sku,nombre\n"))
	rec := verifyRequest(handler, body, contentType)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "batchId")
}

func TestVerifyBatch_RejectsUnsupportedManifestFormat(t *testing.T) {
	handler := newTestIngestionHandler(1 << 20)

	body, contentType := multipartUpload(t, "productos.txt", []byte("sku\n"))
	rec := verifyRequest(handler, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_FORMAT")
}

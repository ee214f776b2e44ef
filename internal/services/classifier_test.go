package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"catalog-ingestion-service/internal/ingest"
	"catalog-ingestion-service/internal/models"
)

// MockDuplicateChecker is a mock implementation of DuplicateChecker
type MockDuplicateChecker struct {
	mock.Mock
}

var _ DuplicateChecker = (*MockDuplicateChecker)(nil)

func (m *MockDuplicateChecker) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Bool(0), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func parseManifest(t *testing.T, csv string) *ingest.Manifest {
	t.Helper()
	manifest, err := ingest.ParseCSV(strings.NewReader(csv))
	assert.NoError(t, err)
	return manifest
}

func newTestClassifier(checker DuplicateChecker, failOpen bool) *Classifier {
	return NewClassifier(checker, 2*time.Second, failOpen, testLogger())
}

func TestClassify_ReadyProduct(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "ABC").Return(false, nil)

	manifest := parseManifest(t, "sku,nombre,tipo\nABC,Widget,simple\n")
	files := []UploadedFile{{Name: "ABC-RedWidget-1.jpg", Size: 1024, ContentType: "image/jpeg"}}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	assert.Len(t, result.Products, 1)
	product := result.Products[0]
	assert.Equal(t, "ABC", product.SKU)
	assert.Equal(t, "Widget", product.Name)
	assert.Equal(t, models.VerificationReady, product.VerificationStatus)
	assert.Equal(t, models.ProcessingPending, product.ProcessingStatus)
	checker.AssertExpectations(t)
}

func TestClassify_RemoteMatchIsDuplicate(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "ABC").Return(true, nil)

	manifest := parseManifest(t, "sku,nombre,tipo\nABC,Widget,simple\n")
	files := []UploadedFile{{Name: "ABC-RedWidget-1.jpg"}}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	assert.Equal(t, models.VerificationDuplicate, result.Products[0].VerificationStatus)
}

func TestClassify_MissingImages(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "ABC").Return(false, nil)

	manifest := parseManifest(t, "sku,nombre\nABC,Widget\n")

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, nil)

	assert.Equal(t, models.VerificationMissingImages, result.Products[0].VerificationStatus)
	assert.Empty(t, result.Products[0].Images)
}

func TestClassify_ImageOnlySKUIsMissingCSVData(t *testing.T) {
	checker := new(MockDuplicateChecker)

	manifest := parseManifest(t, "sku,nombre\n")
	files := []UploadedFile{{Name: "XYZ-Lampara-Vintage-1.jpg"}}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	assert.Len(t, result.Products, 1)
	product := result.Products[0]
	assert.Equal(t, "XYZ", product.SKU)
	assert.Equal(t, models.VerificationMissingCSVData, product.VerificationStatus)
	assert.NotNil(t, product.CSVData)
	assert.Empty(t, product.CSVData)
	// No manifest name, so the filename hint supplies the display name.
	assert.Equal(t, "Lampara Vintage", product.Name)
}

func TestClassify_JoinIsTotalAndDisjoint(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, mock.Anything).Return(false, nil)

	manifest := parseManifest(t, "sku,nombre\nAAA,Uno\nBBB,Dos\n")
	files := []UploadedFile{
		{Name: "BBB-Foto-1.jpg"},
		{Name: "CCC-Foto-1.jpg"},
		{Name: "CCC-Foto-2.jpg"},
	}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	assert.Len(t, result.Products, 3)
	seen := map[string]models.VerificationStatus{}
	for _, p := range result.Products {
		_, dup := seen[p.SKU]
		assert.False(t, dup, "SKU %s appeared twice", p.SKU)
		seen[p.SKU] = p.VerificationStatus
	}
	assert.Equal(t, models.VerificationMissingImages, seen["AAA"])
	assert.Equal(t, models.VerificationReady, seen["BBB"])
	assert.Equal(t, models.VerificationMissingCSVData, seen["CCC"])
}

func TestClassify_ResultSortedBySKU(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, mock.Anything).Return(false, nil)

	manifest := parseManifest(t, "sku\nZZZ\nAAA\nMMM\n")

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, nil)

	skus := make([]string, len(result.Products))
	for i, p := range result.Products {
		skus[i] = p.SKU
	}
	assert.Equal(t, []string{"AAA", "MMM", "ZZZ"}, skus)
}

func TestClassify_ImagesOrderedByFilenameIndex(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "ABC").Return(false, nil)

	manifest := parseManifest(t, "sku\nABC\n")
	files := []UploadedFile{
		{Name: "ABC-Foto-3.jpg"},
		{Name: "ABC-Foto-1.jpg"},
		{Name: "ABC-Foto-10.jpg"},
	}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	images := result.Products[0].Images
	assert.Len(t, images, 3)
	assert.Equal(t, []int{1, 3, 10}, []int{images[0].Position, images[1].Position, images[2].Position})
}

func TestClassify_UnparseableFilesReportedNotDropped(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "ABC").Return(false, nil)

	manifest := parseManifest(t, "sku\nABC\n")
	files := []UploadedFile{
		{Name: "ABC-Foto-1.jpg"},
		{Name: "notes.txt"},
		{Name: "sinindice.jpg"},
	}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	assert.Len(t, result.IgnoredFiles, 2)
	assert.Len(t, result.Products[0].Images, 1)
}

func TestClassify_CheckFailureFailsOpen(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "ABC").Return(false, fmt.Errorf("connection refused"))

	manifest := parseManifest(t, "sku,nombre\nABC,Widget\n")
	files := []UploadedFile{{Name: "ABC-Foto-1.jpg"}}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	// Fail-open: a failed check counts as "does not exist".
	assert.Equal(t, models.VerificationReady, result.Products[0].VerificationStatus)
}

func TestClassify_CheckFailureFailsClosedWhenConfigured(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "ABC").Return(false, fmt.Errorf("connection refused"))

	manifest := parseManifest(t, "sku,nombre\nABC,Widget\n")
	files := []UploadedFile{{Name: "ABC-Foto-1.jpg"}}

	result := newTestClassifier(checker, false).Classify(context.Background(), manifest, files)

	assert.Equal(t, models.VerificationError, result.Products[0].VerificationStatus)
	assert.Contains(t, result.Products[0].VerificationMessage, "duplicate check failed")
	// The processing side stays untouched by verification failures.
	assert.Equal(t, models.ProcessingPending, result.Products[0].ProcessingStatus)
	assert.Empty(t, result.Products[0].ProcessingMessage)
}

func TestClassify_OneFailingCheckDoesNotAffectOthers(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, "AAA").Return(false, fmt.Errorf("timeout"))
	checker.On("ExistsBySKU", mock.Anything, "BBB").Return(true, nil)
	checker.On("ExistsBySKU", mock.Anything, "CCC").Return(false, nil)

	manifest := parseManifest(t, "sku\nAAA\nBBB\nCCC\n")
	files := []UploadedFile{
		{Name: "AAA-Foto-1.jpg"},
		{Name: "BBB-Foto-1.jpg"},
		{Name: "CCC-Foto-1.jpg"},
	}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	byStatus := map[string]models.VerificationStatus{}
	for _, p := range result.Products {
		byStatus[p.SKU] = p.VerificationStatus
	}
	assert.Equal(t, models.VerificationReady, byStatus["AAA"])
	assert.Equal(t, models.VerificationDuplicate, byStatus["BBB"])
	assert.Equal(t, models.VerificationReady, byStatus["CCC"])
}

func TestClassify_NamePriority(t *testing.T) {
	checker := new(MockDuplicateChecker)
	checker.On("ExistsBySKU", mock.Anything, mock.Anything).Return(false, nil)

	// Manifest name wins over the filename hint.
	manifest := parseManifest(t, "sku,nombre\nAAA,Nombre CSV\nBBB,\n")
	files := []UploadedFile{
		{Name: "AAA-Desde-Fichero-1.jpg"},
		{Name: "BBB-Desde-Fichero-1.jpg"},
	}

	result := newTestClassifier(checker, true).Classify(context.Background(), manifest, files)

	byName := map[string]string{}
	for _, p := range result.Products {
		byName[p.SKU] = p.Name
	}
	assert.Equal(t, "Nombre CSV", byName["AAA"])
	assert.Equal(t, "Desde Fichero", byName["BBB"])
}

package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"catalog-ingestion-service/internal/ingest"
	"catalog-ingestion-service/internal/models"
)

// UploadedFile describes one image file received with the batch upload. Only
// the metadata travels through the engine; image bytes are never transcoded
// or stored here.
type UploadedFile struct {
	Name        string
	Size        int64
	ContentType string
}

// ClassifyResult is the outcome of the verification pass.
type ClassifyResult struct {
	Products     []models.StagedProduct
	IgnoredFiles []models.IgnoredFile
}

// Classifier joins manifest rows with uploaded images by SKU and assigns
// each candidate product its verification status, querying the catalog for
// existing SKUs concurrently.
type Classifier struct {
	checker      DuplicateChecker
	checkTimeout time.Duration
	failOpen     bool
	logger       *logrus.Entry
}

// NewClassifier creates a classifier. failOpen controls how a failed
// existence check is treated: true (the default posture) counts it as "does
// not exist" so creation is not blocked by network instability; false marks
// the product with a verification error instead.
func NewClassifier(checker DuplicateChecker, checkTimeout time.Duration, failOpen bool, logger *logrus.Logger) *Classifier {
	return &Classifier{
		checker:      checker,
		checkTimeout: checkTimeout,
		failOpen:     failOpen,
		logger:       logger.WithField("component", "classifier"),
	}
}

// existenceAnswer is the settled result of one remote check.
type existenceAnswer struct {
	exists bool
	err    error
}

// Classify performs the two-source outer join:
//
//  1. images are grouped by parsed SKU and ordered by filename index;
//     unparseable files are reported in IgnoredFiles, never silently dropped
//  2. manifest rows are keyed by SKU, last row winning on duplicates
//  3. every manifest SKU is checked against the catalog concurrently
//  4. image-only SKUs become missing_csv_data products
//
// The returned product list covers every SKU seen in either source exactly
// once and is sorted by SKU for deterministic display.
func (c *Classifier) Classify(ctx context.Context, manifest *ingest.Manifest, files []UploadedFile) *ClassifyResult {
	result := &ClassifyResult{}

	imagesBySKU := c.groupImages(files, result)
	rowsBySKU := manifest.BySKU()

	answers := c.checkExistence(ctx, rowsBySKU)

	for sku, row := range rowsBySKU {
		product := models.StagedProduct{
			SKU:              sku,
			Images:           imagesBySKU[sku],
			CSVData:          map[string]string(row),
			ProcessingStatus: models.ProcessingPending,
		}
		if product.Images == nil {
			product.Images = []models.ImageAsset{}
		}
		product.Name = productName(row, product.Images, sku)

		answer := answers[sku]
		switch {
		case answer.err != nil && !c.failOpen:
			product.VerificationStatus = models.VerificationError
			product.VerificationMessage = "duplicate check failed: " + answer.err.Error()
		case answer.exists:
			product.VerificationStatus = models.VerificationDuplicate
		case len(product.Images) == 0:
			product.VerificationStatus = models.VerificationMissingImages
		default:
			product.VerificationStatus = models.VerificationReady
		}

		result.Products = append(result.Products, product)
	}

	// Image-only SKUs: present in the upload, absent from the manifest.
	for sku, images := range imagesBySKU {
		if _, ok := rowsBySKU[sku]; ok {
			continue
		}
		name := sku
		if hint := firstNameHint(images); hint != "" {
			name = hint
		}
		result.Products = append(result.Products, models.StagedProduct{
			SKU:                sku,
			Name:               name,
			Images:             images,
			CSVData:            map[string]string{},
			VerificationStatus: models.VerificationMissingCSVData,
			ProcessingStatus:   models.ProcessingPending,
		})
	}

	sort.Slice(result.Products, func(i, j int) bool {
		return result.Products[i].SKU < result.Products[j].SKU
	})
	return result
}

// groupImages parses every filename and groups the accepted assets by SKU,
// ordered by the trailing index.
func (c *Classifier) groupImages(files []UploadedFile, result *ClassifyResult) map[string][]models.ImageAsset {
	imagesBySKU := make(map[string][]models.ImageAsset)
	for _, file := range files {
		parsed, err := ingest.ParseImageFileName(file.Name)
		if err != nil {
			result.IgnoredFiles = append(result.IgnoredFiles, models.IgnoredFile{
				FileName: file.Name,
				Reason:   err.Error(),
			})
			continue
		}
		imagesBySKU[parsed.SKU] = append(imagesBySKU[parsed.SKU], models.ImageAsset{
			FileName:    file.Name,
			SKU:         parsed.SKU,
			NameHint:    parsed.NameHint,
			Position:    parsed.Position,
			Size:        file.Size,
			ContentType: file.ContentType,
		})
	}
	for sku := range imagesBySKU {
		images := imagesBySKU[sku]
		sort.Slice(images, func(i, j int) bool {
			if images[i].Position != images[j].Position {
				return images[i].Position < images[j].Position
			}
			return images[i].FileName < images[j].FileName
		})
	}
	return imagesBySKU
}

// checkExistence fans out one remote check per manifest SKU and waits for
// all of them to settle. A slow or failing check never blocks or invalidates
// the others; its error is recorded in the answer for the classification
// switch to interpret.
func (c *Classifier) checkExistence(ctx context.Context, rowsBySKU map[string]ingest.Row) map[string]existenceAnswer {
	answers := make(map[string]existenceAnswer, len(rowsBySKU))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for sku := range rowsBySKU {
		wg.Add(1)
		go func(sku string) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
			defer cancel()

			exists, err := c.checker.ExistsBySKU(checkCtx, sku)
			if err != nil {
				c.logger.WithError(err).WithField("sku", sku).Warn("Duplicate check failed")
			}

			mu.Lock()
			answers[sku] = existenceAnswer{exists: exists, err: err}
			mu.Unlock()
		}(sku)
	}

	wg.Wait()
	return answers
}

// productName derives the display name with priority: manifest name, then
// image filename hint, then the SKU itself.
func productName(row ingest.Row, images []models.ImageAsset, sku string) string {
	if name := row.Name(); name != "" {
		return name
	}
	if hint := firstNameHint(images); hint != "" {
		return hint
	}
	return sku
}

func firstNameHint(images []models.ImageAsset) string {
	for _, img := range images {
		if img.NameHint != "" {
			return img.NameHint
		}
	}
	return ""
}

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"catalog-ingestion-service/internal/models"
)

func TestParseImageFileName_FullPattern(t *testing.T) {
	parsed, err := ParseImageFileName("ABC-RedWidget-1.jpg")

	assert.NoError(t, err)
	assert.Equal(t, "ABC", parsed.SKU)
	assert.Equal(t, "RedWidget", parsed.NameHint)
	assert.Equal(t, 1, parsed.Position)
}

func TestParseImageFileName_HyphensInsideName(t *testing.T) {
	parsed, err := ParseImageFileName("CAM-001X-Camiseta-Manga-Corta-12.png")

	assert.NoError(t, err)
	assert.Equal(t, "CAM", parsed.SKU)
	assert.Equal(t, "001X Camiseta Manga Corta", parsed.NameHint)
	assert.Equal(t, 12, parsed.Position)
}

func TestParseImageFileName_NoDescriptiveSegment(t *testing.T) {
	parsed, err := ParseImageFileName("SKU123-3.webp")

	assert.NoError(t, err)
	assert.Equal(t, "SKU123", parsed.SKU)
	assert.Empty(t, parsed.NameHint)
	assert.Equal(t, 3, parsed.Position)
}

func TestParseImageFileName_MissingTrailingIndex(t *testing.T) {
	parsed, err := ParseImageFileName("ABC-RedWidget.jpg")

	assert.Nil(t, parsed)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestParseImageFileName_NoHyphenAtAll(t *testing.T) {
	parsed, err := ParseImageFileName("widget.jpg")

	assert.Nil(t, parsed)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestParseImageFileName_RejectsNonImageExtension(t *testing.T) {
	parsed, err := ParseImageFileName("ABC-RedWidget-1.pdf")

	assert.Nil(t, parsed)
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestParseImageFileName_ExtensionCaseInsensitive(t *testing.T) {
	parsed, err := ParseImageFileName("ABC-RedWidget-2.JPG")

	assert.NoError(t, err)
	assert.Equal(t, 2, parsed.Position)
}

func TestParseImageFileName_TemplateSKUExampleRoundTrips(t *testing.T) {
	// The shipped template's SKU example must survive the filename join:
	// hyphen-free, so an image named after it parses back to the same SKU.
	example := models.IngestionManifestColumns()[0].Example
	assert.NotContains(t, example, "-")

	parsed, err := ParseImageFileName(example + "-Camiseta-Basica-1.jpg")

	assert.NoError(t, err)
	assert.Equal(t, example, parsed.SKU)
	assert.Equal(t, "Camiseta Basica", parsed.NameHint)
}

func TestParseImageFileName_Deterministic(t *testing.T) {
	first, err1 := ParseImageFileName("ABC-RedWidget-1.jpg")
	second, err2 := ParseImageFileName("ABC-RedWidget-1.jpg")

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}

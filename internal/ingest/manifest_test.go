package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"catalog-ingestion-service/internal/models"
)

func TestParseCSV_DropsRowsWithoutSKU(t *testing.T) {
	csv := "sku,nombre,tipo\n" +
		"ABC,Widget,simple\n" +
		",Sin SKU,simple\n" +
		"   ,Espacios,simple\n" +
		"DEF,Otro,variable\n"

	manifest, err := ParseCSV(strings.NewReader(csv))

	assert.NoError(t, err)
	assert.Equal(t, 4, manifest.TotalRows)
	assert.Equal(t, 2, manifest.DroppedRows)
	assert.Len(t, manifest.Rows, 2)
	assert.Equal(t, manifest.TotalRows-len(manifest.Rows), manifest.DroppedRows)
	assert.Len(t, manifest.RowErrors, 2)
	assert.Equal(t, "SKU_REQUIRED", manifest.RowErrors[0].Code)
	assert.Equal(t, 3, manifest.RowErrors[0].Row)
}

func TestParseCSV_PreservesUnrecognizedColumns(t *testing.T) {
	csv := "sku,nombre,atributo_1_nombre,atributo_1_valores,columna_rara\n" +
		"ABC,Widget,Color,Rojo | Verde,loquesea\n"

	manifest, err := ParseCSV(strings.NewReader(csv))

	assert.NoError(t, err)
	assert.Len(t, manifest.Rows, 1)
	row := manifest.Rows[0]
	assert.Equal(t, "Color", row.Get("atributo_1_nombre"))
	assert.Equal(t, "loquesea", row.Get("columna_rara"))
}

func TestParseCSV_HeaderMatchingIsCaseSensitive(t *testing.T) {
	csv := "SKU,Nombre\nABC,Widget\n"

	manifest, err := ParseCSV(strings.NewReader(csv))

	// "SKU" is not the recognized "sku" column, so the row has no usable SKU.
	assert.NoError(t, err)
	assert.Empty(t, manifest.Rows)
	assert.Equal(t, 1, manifest.DroppedRows)
}

func TestRow_AttributesReadsColumnGroups(t *testing.T) {
	row := Row{
		"atributo_1_nombre":    "Color",
		"atributo_1_valores":   "Rojo | Verde",
		"atributo_1_variacion": "1",
		"atributo_1_visible":   "1",
		"atributo_2_nombre":    "Talla",
		"atributo_2_valores":   "S | M",
		"atributo_2_variacion": "0",
		"atributo_2_visible":   "si",
	}

	attrs := row.Attributes()

	assert.Len(t, attrs, 2)
	assert.Equal(t, models.VariationAttribute{
		Name: "Color", RawValues: "Rojo | Verde", ForVariations: true, Visible: true,
	}, attrs[0])
	assert.False(t, attrs[1].ForVariations)
	assert.True(t, attrs[1].Visible)
}

func TestRow_TypeDefaultsToSimple(t *testing.T) {
	assert.Equal(t, "simple", Row{}.Type())
	assert.Equal(t, "variable", Row{"tipo": "variable"}.Type())
}

func TestRow_ListSplitsAndTrims(t *testing.T) {
	row := Row{"categorias": "Ropa , Camisetas,, "}
	assert.Equal(t, []string{"Ropa", "Camisetas"}, row.List(models.ColumnCategories))
}

func TestManifest_BySKULastRowWins(t *testing.T) {
	csv := "sku,nombre\nABC,Primero\nABC,Segundo\n"

	manifest, err := ParseCSV(strings.NewReader(csv))
	assert.NoError(t, err)

	bySKU := manifest.BySKU()
	assert.Len(t, bySKU, 1)
	assert.Equal(t, "Segundo", bySKU["ABC"].Name())
}

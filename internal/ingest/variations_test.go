package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"catalog-ingestion-service/internal/models"
)

func TestExpandVariations_TwoAttributeMatrix(t *testing.T) {
	attrs := []models.VariationAttribute{
		{Name: "Color", RawValues: "Rojo | Verde", ForVariations: true},
		{Name: "Talla", RawValues: "S | M", ForVariations: true},
	}

	variations := ExpandVariations("CAM-001", attrs)

	assert.Len(t, variations, 4)

	// Attribute order is the dimension order; the first attribute varies slowest.
	expected := [][2]string{
		{"Rojo", "S"}, {"Rojo", "M"}, {"Verde", "S"}, {"Verde", "M"},
	}
	for i, combo := range expected {
		assert.Equal(t, combo[0], variations[i].Selections[0].Value)
		assert.Equal(t, combo[1], variations[i].Selections[1].Value)
		assert.Equal(t, "Color", variations[i].Selections[0].Attribute)
		assert.Equal(t, "Talla", variations[i].Selections[1].Attribute)
	}

	assert.Equal(t, "CAM-001-ROJ-S", variations[0].SKU)
	assert.Equal(t, "CAM-001-VER-M", variations[3].SKU)
}

func TestExpandVariations_CountIsProductOfListSizes(t *testing.T) {
	attrs := []models.VariationAttribute{
		{Name: "Color", RawValues: "Rojo | Verde | Azul", ForVariations: true},
		{Name: "Talla", RawValues: "S | M | L | XL", ForVariations: true},
		{Name: "Material", RawValues: "Algodón | Lino", ForVariations: true},
	}

	variations := ExpandVariations("X", attrs)

	assert.Len(t, variations, 3*4*2)
}

func TestExpandVariations_IgnoresNonParticipatingAttributes(t *testing.T) {
	attrs := []models.VariationAttribute{
		{Name: "Color", RawValues: "Rojo | Verde", ForVariations: true},
		{Name: "Marca", RawValues: "Acme", ForVariations: false},
	}

	variations := ExpandVariations("X", attrs)

	assert.Len(t, variations, 2)
	assert.Len(t, variations[0].Selections, 1)
}

func TestExpandVariations_ZeroParticipatingYieldsEmpty(t *testing.T) {
	attrs := []models.VariationAttribute{
		{Name: "Marca", RawValues: "Acme", ForVariations: false},
	}

	assert.Empty(t, ExpandVariations("X", attrs))
	assert.Empty(t, ExpandVariations("X", nil))
}

func TestExpandVariations_EmptyValueListContributesNoDimension(t *testing.T) {
	attrs := []models.VariationAttribute{
		{Name: "Color", RawValues: "Rojo | Verde", ForVariations: true},
		{Name: "Talla", RawValues: " |  | ", ForVariations: true},
	}

	variations := ExpandVariations("X", attrs)

	// Talla tokenizes to nothing so only Color expands.
	assert.Len(t, variations, 2)
	assert.Len(t, variations[0].Selections, 1)
}

func TestExpandVariations_BlankPriceAndStock(t *testing.T) {
	attrs := []models.VariationAttribute{
		{Name: "Color", RawValues: "Rojo", ForVariations: true},
	}

	variations := ExpandVariations("X", attrs)

	assert.Len(t, variations, 1)
	assert.Empty(t, variations[0].RegularPrice)
	assert.Nil(t, variations[0].StockQuantity)
}

func TestExpandVariations_SuffixCollisionsAreNotDeduplicated(t *testing.T) {
	// "Rojizo" and "Rojo" share the ROJ prefix; both variations survive.
	attrs := []models.VariationAttribute{
		{Name: "Color", RawValues: "Rojo | Rojizo", ForVariations: true},
	}

	variations := ExpandVariations("X", attrs)

	assert.Len(t, variations, 2)
	assert.Equal(t, variations[0].SKU, variations[1].SKU)
}

func TestSplitValues(t *testing.T) {
	assert.Equal(t, []string{"Rojo", "Verde"}, SplitValues(" Rojo | Verde "))
	assert.Empty(t, SplitValues(" | | "))
	assert.Empty(t, SplitValues(""))
}

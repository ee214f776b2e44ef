package models

// ManifestColumn defines a column in the manifest template
type ManifestColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean
	Example     string `json:"example"`
}

// ManifestTemplate defines the structure of a manifest template
type ManifestTemplate struct {
	Entity  string           `json:"entity"`
	Version string           `json:"version"`
	Columns []ManifestColumn `json:"columns"`
}

// Manifest column names recognized by the normalizer. Matching is exact and
// case-sensitive; any other column is preserved verbatim in the row map so
// the atributo_N_* groups (and future columns) pass through untouched.
const (
	ColumnSKU           = "sku"
	ColumnName          = "nombre"
	ColumnType          = "tipo"
	ColumnRegularPrice  = "precio"
	ColumnSalePrice     = "precio_rebajado"
	ColumnStock         = "stock"
	ColumnWeight        = "peso"
	ColumnLength        = "longitud"
	ColumnWidth         = "anchura"
	ColumnHeight        = "altura"
	ColumnShippingClass = "clase_envio"
	ColumnCategories    = "categorias"
	ColumnTags          = "etiquetas"
)

// MaxManifestAttributes bounds how many atributo_N_* groups the expander
// reads from a row. The normalizer itself keeps every column it sees.
const MaxManifestAttributes = 10

// IngestionManifestColumns returns the column definitions for the product manifest
func IngestionManifestColumns() []ManifestColumn {
	return []ManifestColumn{
		{Name: ColumnSKU, Description: "Unique product SKU, join key with image filenames. Must not contain hyphens: in filenames the first hyphen ends the SKU", Required: true, Type: "string", Example: "CAM001"},
		{Name: ColumnName, Description: "Product display name", Required: false, Type: "string", Example: "Camiseta básica"},
		{Name: ColumnType, Description: "Product type: simple or variable", Required: false, Type: "string", Example: "simple"},
		{Name: ColumnRegularPrice, Description: "Regular price", Required: false, Type: "number", Example: "19.90"},
		{Name: ColumnSalePrice, Description: "Sale price", Required: false, Type: "number", Example: "14.90"},
		{Name: ColumnStock, Description: "Stock quantity", Required: false, Type: "number", Example: "25"},
		{Name: ColumnWeight, Description: "Weight (kg)", Required: false, Type: "number", Example: "0.3"},
		{Name: ColumnLength, Description: "Length (cm)", Required: false, Type: "number", Example: "30"},
		{Name: ColumnWidth, Description: "Width (cm)", Required: false, Type: "number", Example: "20"},
		{Name: ColumnHeight, Description: "Height (cm)", Required: false, Type: "number", Example: "2"},
		{Name: ColumnShippingClass, Description: "Shipping class slug", Required: false, Type: "string", Example: "ligero"},
		{Name: ColumnCategories, Description: "Comma-separated category names", Required: false, Type: "string", Example: "Ropa, Camisetas"},
		{Name: ColumnTags, Description: "Comma-separated tags", Required: false, Type: "string", Example: "verano, algodón"},
		{Name: "atributo_1_nombre", Description: "First attribute name", Required: false, Type: "string", Example: "Color"},
		{Name: "atributo_1_valores", Description: "First attribute values, pipe-delimited", Required: false, Type: "string", Example: "Rojo | Verde | Azul"},
		{Name: "atributo_1_variacion", Description: "First attribute participates in variations (1/0)", Required: false, Type: "boolean", Example: "1"},
		{Name: "atributo_1_visible", Description: "First attribute visible on product page (1/0)", Required: false, Type: "boolean", Example: "1"},
		{Name: "atributo_2_nombre", Description: "Second attribute name", Required: false, Type: "string", Example: "Talla"},
		{Name: "atributo_2_valores", Description: "Second attribute values, pipe-delimited", Required: false, Type: "string", Example: "S | M | L"},
		{Name: "atributo_2_variacion", Description: "Second attribute participates in variations (1/0)", Required: false, Type: "boolean", Example: "1"},
		{Name: "atributo_2_visible", Description: "Second attribute visible on product page (1/0)", Required: false, Type: "boolean", Example: "1"},
	}
}

// IngestionManifestTemplate returns the template definition for ingestion manifests
func IngestionManifestTemplate() ManifestTemplate {
	return ManifestTemplate{
		Entity:  "ingestion-manifest",
		Version: "1.0",
		Columns: IngestionManifestColumns(),
	}
}

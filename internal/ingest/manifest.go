package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"catalog-ingestion-service/internal/models"
)

// Row is one normalized manifest row. Keys are the header names exactly as
// written in the file (trimmed, case preserved) so unrecognized columns such
// as the atributo_N_* groups pass through verbatim. The synthetic "_row" key
// tracks the original line number for error reporting.
type Row map[string]string

// SKU returns the trimmed SKU column value.
func (r Row) SKU() string {
	return strings.TrimSpace(r[models.ColumnSKU])
}

// Name returns the trimmed product name column value.
func (r Row) Name() string {
	return strings.TrimSpace(r[models.ColumnName])
}

// Type returns the product type, defaulting to "simple" when absent.
func (r Row) Type() string {
	t := strings.TrimSpace(r[models.ColumnType])
	if t == "" {
		return "simple"
	}
	return t
}

// Get returns the trimmed value of an arbitrary column.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// List splits a comma-separated column into trimmed, non-empty tokens.
func (r Row) List(column string) []string {
	raw := r.Get(column)
	if raw == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Attributes reads the atributo_N_* column groups into variation attributes.
// Groups without a name are skipped; the scan stops at MaxManifestAttributes.
func (r Row) Attributes() []models.VariationAttribute {
	var attrs []models.VariationAttribute
	for i := 1; i <= models.MaxManifestAttributes; i++ {
		name := r.Get(fmt.Sprintf("atributo_%d_nombre", i))
		if name == "" {
			continue
		}
		attrs = append(attrs, models.VariationAttribute{
			Name:          name,
			RawValues:     r.Get(fmt.Sprintf("atributo_%d_valores", i)),
			ForVariations: parseFlag(r.Get(fmt.Sprintf("atributo_%d_variacion", i))),
			Visible:       parseFlag(r.Get(fmt.Sprintf("atributo_%d_visible", i))),
		})
	}
	return attrs
}

// RowNumber returns the original line number of the row (1-indexed, header
// row counted).
func (r Row) RowNumber() int {
	n, _ := strconv.Atoi(r["_row"])
	return n
}

func parseFlag(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "si", "sí", "yes":
		return true
	}
	return false
}

// Manifest is the result of normalizing an uploaded manifest file. Rows
// without a usable SKU are dropped, counted and reported in RowErrors.
type Manifest struct {
	Rows        []Row
	TotalRows   int
	DroppedRows int
	RowErrors   []models.IngestRowError
}

// ParseCSV normalizes a delimited manifest with a header row.
func ParseCSV(file io.Reader) (*Manifest, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	manifest := &Manifest{}
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}
		lineNum++

		row := make(Row)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum)
		manifest.addRow(row)
	}

	return manifest, nil
}

// ParseXLSX normalizes the first sheet of an Excel manifest.
func ParseXLSX(file io.Reader) (*Manifest, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel manifest: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel manifest")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("manifest must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	manifest := &Manifest{}
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(Row)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		manifest.addRow(row)
	}

	return manifest, nil
}

// addRow appends a row if it carries a usable SKU, otherwise records the drop.
func (m *Manifest) addRow(row Row) {
	m.TotalRows++
	if row.SKU() == "" {
		m.DroppedRows++
		m.RowErrors = append(m.RowErrors, models.IngestRowError{
			Row:     row.RowNumber(),
			Column:  models.ColumnSKU,
			Code:    "SKU_REQUIRED",
			Message: "row has no usable SKU and was excluded",
		})
		return
	}
	m.Rows = append(m.Rows, row)
}

// BySKU indexes the manifest rows by trimmed SKU. On duplicate SKUs the last
// row wins; fields of earlier rows are not merged in.
func (m *Manifest) BySKU() map[string]Row {
	out := make(map[string]Row, len(m.Rows))
	for _, row := range m.Rows {
		out[row.SKU()] = row
	}
	return out
}

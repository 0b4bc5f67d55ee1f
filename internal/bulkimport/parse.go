// Package bulkimport is the Bulk Import Pipeline (component C6): it parses
// a tabular upload into validated product rows, then processes them
// asynchronously in partial or all-or-nothing batches, grounded on the
// original service's BulkImportService/bulk_import_worker shape adapted to
// a CSV input (the corpus carries no spreadsheet library to ground an
// Excel parser on).
package bulkimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
)

// column describes one accepted input column, mirroring the original
// template's TEMPLATE_COLUMNS definitions.
type column struct {
	header   string
	required bool
	isList   bool
}

// templateColumns is the fixed column schema (§4.6): sku/name/price
// required, the rest optional. List-valued columns are comma-separated.
var templateColumns = []column{
	{header: "sku", required: true},
	{header: "name", required: true},
	{header: "price", required: true},
	{header: "description"},
	{header: "brand"},
	{header: "department"},
	{header: "category"},
	{header: "subcategory"},
	{header: "productType"},
	{header: "tags", isList: true},
	{header: "images", isList: true},
	{header: "colors", isList: true},
	{header: "sizes", isList: true},
}

// RowResult is one parsed input row: either a fully valid candidate
// product, or a non-empty set of per-field validation errors.
type RowResult struct {
	RowNumber int
	Product   *catalog.Product
	Errors    []catalog.ImportValidationError
}

func (r RowResult) Valid() bool { return len(r.Errors) == 0 }

// ParseCSV reads a comma-separated upload (header row plus data rows) and
// classifies every row as ok or carrying validation errors, per §4.6 stage 1.
// Header matching is case-insensitive; unknown headers are ignored.
func ParseCSV(r io.Reader) ([]RowResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		colIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var results []RowResult
	rowNumber := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return results, fmt.Errorf("read row %d: %w", rowNumber+1, err)
		}
		rowNumber++
		if isBlankRow(record) {
			continue
		}
		results = append(results, parseRow(rowNumber, record, colIndex))
	}
	return results, nil
}

func isBlankRow(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func cellValue(record []string, colIndex map[string]int, header string) string {
	idx, ok := colIndex[header]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseRow(rowNumber int, record []string, colIndex map[string]int) RowResult {
	var errs []catalog.ImportValidationError
	p := &catalog.Product{VariationType: catalog.Standalone, IsActive: true, CreatedBy: "bulk_import"}

	for _, col := range templateColumns {
		value := cellValue(record, colIndex, strings.ToLower(col.header))
		if col.required && value == "" {
			errs = append(errs, catalog.ImportValidationError{
				RowNumber: rowNumber, FieldName: col.header,
				Description: col.header + " is required",
				Suggestion:  "provide a value for " + col.header,
			})
			continue
		}
		if value == "" {
			continue
		}
		switch col.header {
		case "sku":
			p.SKU = value
		case "name":
			p.Name = value
		case "price":
			price, err := strconv.ParseFloat(value, 64)
			switch {
			case err != nil:
				errs = append(errs, catalog.ImportValidationError{
					RowNumber: rowNumber, FieldName: "price",
					Description: "price must be a valid number", Suggestion: "provide a numeric value", CurrentValue: value,
				})
			case price < 0:
				errs = append(errs, catalog.ImportValidationError{
					RowNumber: rowNumber, FieldName: "price",
					Description: "price must be non-negative", Suggestion: "provide a price >= 0", CurrentValue: value,
				})
			default:
				p.Price = price
			}
		case "description":
			p.Description = value
		case "brand":
			p.Brand = value
		case "department":
			p.Department = value
		case "category":
			p.Category = value
		case "subcategory":
			p.Subcategory = value
		case "productType":
			p.ProductType = value
		case "tags":
			p.Tags = splitList(value)
		case "images":
			p.Images = splitList(value)
		case "colors", "sizes":
			if p.Specifications == nil {
				p.Specifications = catalog.Specifications{}
			}
			p.Specifications[col.header] = value
		}
	}

	if len(errs) > 0 {
		return RowResult{RowNumber: rowNumber, Errors: errs}
	}
	return RowResult{RowNumber: rowNumber, Product: p}
}

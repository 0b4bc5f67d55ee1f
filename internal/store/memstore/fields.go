package memstore

import (
	"time"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
)

// applyFields patches the subset of Product fields the engines actually
// issue AtomicSet calls against. The postgres implementation does the
// equivalent with a generated SET clause over JSONB paths; this switch is
// the in-memory mirror of that same field list.
func applyFields(p *catalog.Product, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "name":
			p.Name, _ = v.(string)
		case "description":
			p.Description, _ = v.(string)
		case "price":
			p.Price, _ = toFloat(v)
		case "isActive":
			p.IsActive, _ = v.(bool)
		case "updatedAt":
			p.UpdatedAt, _ = v.(time.Time)
		case "updatedBy":
			p.UpdatedBy, _ = v.(string)
		case "reviewAggregates":
			p.ReviewAggregates, _ = v.(catalog.ReviewAggregates)
		case "availabilityStatus":
			p.AvailabilityStatus, _ = v.(catalog.AvailabilityStatus)
		case "qaStats":
			p.QAStats, _ = v.(catalog.QAStats)
		case "salesMetrics":
			p.SalesMetrics, _ = v.(catalog.SalesMetrics)
		case "viewMetrics":
			p.ViewMetrics, _ = v.(catalog.ViewMetrics)
		case "badges":
			p.Badges, _ = v.([]catalog.Badge)
		case "variationCount":
			p.VariationCount, _ = toInt(v)
		case "sizeChartId":
			p.SizeChartID, _ = v.(string)
		case "variantAttributes":
			p.VariantAttributes, _ = v.([]catalog.VariantAttribute)
		case "images":
			p.Images, _ = v.([]string)
		case "specifications":
			p.Specifications, _ = v.(catalog.Specifications)
		case "tags":
			p.Tags, _ = v.([]string)
		}
	}
}

func applyImportJobFields(j *catalog.ImportJob, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "status":
			j.Status, _ = v.(catalog.ImportStatus)
		case "processedRows":
			j.ProcessedRows, _ = toInt(v)
		case "successCount":
			j.SuccessCount, _ = toInt(v)
		case "errorCount":
			j.ErrorCount, _ = toInt(v)
		case "completedAt":
			t, _ := v.(time.Time)
			j.CompletedAt = &t
		case "errorReportRef":
			j.ErrorReportRef, _ = v.(string)
		case "errors":
			j.Errors, _ = v.([]catalog.ImportValidationError)
		}
	}
}

func toFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func toInt(v any) (int, bool) {
	i, ok := v.(int)
	return i, ok
}

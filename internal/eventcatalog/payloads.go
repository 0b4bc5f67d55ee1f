package eventcatalog

// Inbound payload shapes, one struct per §6 table row. Fields marked
// optional in the spec use Go's zero value; productId/sku resolution is
// handled by the caller (see resolveTarget in internal/projection).

type ReviewCreatedData struct {
	ProductID        string `json:"productId"`
	Rating           int    `json:"rating"`
	VerifiedPurchase bool   `json:"verifiedPurchase"`
}

type ReviewUpdatedData struct {
	ProductID        string `json:"productId"`
	OldRating        int    `json:"oldRating"`
	Rating           int    `json:"rating"`
	VerifiedPurchase bool   `json:"verifiedPurchase"`
}

type ReviewDeletedData struct {
	ProductID        string `json:"productId"`
	Rating           int    `json:"rating"`
	VerifiedPurchase bool   `json:"verifiedPurchase"`
}

type InventoryStockUpdatedData struct {
	SKU               string `json:"sku"`
	ProductID         string `json:"productId,omitempty"`
	AvailableQuantity int    `json:"availableQuantity"`
	LowStockThreshold int    `json:"lowStockThreshold,omitempty"`
}

type AnalyticsSalesUpdatedData struct {
	ProductID      string `json:"productId"`
	Category       string `json:"category,omitempty"`
	SalesLast30Days int   `json:"salesLast30Days"`
	CategoryRank   int    `json:"categoryRank"`
}

type AnalyticsViewsUpdatedData struct {
	ProductID       string `json:"productId"`
	ViewsLast7Days  int    `json:"viewsLast7Days"`
	ViewsPrior7Days int    `json:"viewsPrior7Days"`
}

type QuestionCreatedData struct {
	ProductID string `json:"productId"`
}

type AnswerCreatedData struct {
	ProductID string `json:"productId"`
}

type QuestionDeletedData struct {
	ProductID string `json:"productId"`
}

type BulkImportJobCreatedData struct {
	JobID      string           `json:"jobId"`
	Products   []map[string]any `json:"products"`
	ImportMode string           `json:"importMode"`
}

// Outbound payload shapes.

type ProductCreatedData struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name"`
}

type ProductUpdatedData struct {
	ProductID string         `json:"productId"`
	Changes   map[string]any `json:"changes,omitempty"`
}

type ProductDeletedData struct {
	ProductID string `json:"productId"`
}

type ProductBackInStockData struct {
	ProductID         string `json:"productId"`
	AvailableQuantity int    `json:"availableQuantity"`
}

type BadgeAssignedData struct {
	ProductID  string         `json:"productId"`
	BadgeType  string         `json:"badgeType"`
	AssignedBy string         `json:"assignedBy,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type BadgeRemovedData struct {
	ProductID string `json:"productId"`
	BadgeType string `json:"badgeType"`
}

type VariationCreatedData struct {
	ParentID string   `json:"parentId"`
	ChildIDs []string `json:"childIds"`
}

type VariationUpdatedData struct {
	ChildID string         `json:"childId"`
	Changes map[string]any `json:"changes,omitempty"`
}

type VariationDeletedData struct {
	ChildID string `json:"childId"`
}

type SizeChartAssignedData struct {
	ProductID   string `json:"productId"`
	SizeChartID string `json:"sizeChartId"`
}

type SizeChartUnassignedData struct {
	ProductID   string `json:"productId"`
	SizeChartID string `json:"sizeChartId"`
}

type BulkImportProgressData struct {
	JobID         string `json:"jobId"`
	ProcessedRows int    `json:"processedRows"`
	SuccessCount  int    `json:"successCount"`
	ErrorCount    int    `json:"errorCount"`
	TotalRows     int    `json:"totalRows"`
}

type BulkImportCompletedData struct {
	JobID        string `json:"jobId"`
	SuccessCount int    `json:"successCount"`
	ErrorCount   int    `json:"errorCount"`
	TotalRows    int    `json:"totalRows"`
}

type BulkImportFailedData struct {
	JobID  string `json:"jobId"`
	Reason string `json:"reason"`
}

// BulkCompletedData and BulkFailedData are the legacy-compatible aliases of
// BulkImportCompletedData/BulkImportFailedData, field-named after the
// original dapr publisher's publish_bulk_operation_completed/failed.
type BulkCompletedData struct {
	JobID        string `json:"jobId"`
	SuccessCount int    `json:"successCount"`
	ErrorCount   int    `json:"errorCount"`
	TotalCount   int    `json:"totalCount"`
}

type BulkFailedData struct {
	JobID        string `json:"jobId"`
	ErrorMessage string `json:"errorMessage"`
}

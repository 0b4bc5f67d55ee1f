// Package store defines the Product Store capability (§4.1): the
// document-store operations the rest of the core depends on, independent of
// the underlying engine. internal/store/postgres implements it against
// Postgres/JSONB (grounded on the teacher's database/sql + lib/pq
// conventions); internal/store/memstore implements it in-process for
// engine unit tests.
package store

import (
	"context"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
)

// Filter is the structured predicate accepted by FindMany/SearchText:
// taxonomy match, price range, tags, badges, parentId, isActive, free text.
type Filter struct {
	IsActive    *bool
	Category    string
	Department  string
	Brand       string
	ParentID    string
	Tags        []string
	BadgeTypes  []catalog.BadgeType
	MinPrice    *float64
	MaxPrice    *float64
	TextQuery   string
}

// Paging is a simple offset/limit page request.
type Paging struct {
	Offset int
	Limit  int
}

// SortField is a column FindMany/SearchText may order by.
type SortField string

const (
	SortCreatedAtDesc    SortField = "createdAt desc"
	SortPriceAsc         SortField = "price asc"
	SortPriceDesc        SortField = "price desc"
	SortAverageRatingDesc SortField = "averageRating desc"
)

// Store is the Product Store capability contract from §4.1.
type Store interface {
	CreateProduct(ctx context.Context, p *catalog.Product) (string, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	FindBySku(ctx context.Context, sku string, activeOnly bool) (*catalog.Product, error)
	FindMany(ctx context.Context, filter Filter, sort SortField, paging Paging) ([]*catalog.Product, int, error)
	SearchText(ctx context.Context, query string, filter Filter, paging Paging) ([]*catalog.Product, int, error)

	AtomicSet(ctx context.Context, id string, fields map[string]any) (int, error)
	AtomicPush(ctx context.Context, id string, field string, value any) error
	AtomicInc(ctx context.Context, id string, field string, delta int) error

	InsertMany(ctx context.Context, products []*catalog.Product) ([]string, error)

	CreateImportJob(ctx context.Context, job *catalog.ImportJob) error
	GetImportJob(ctx context.Context, jobID string) (*catalog.ImportJob, error)
	ClaimImportJob(ctx context.Context, jobID string) (bool, error)
	CancelImportJob(ctx context.Context, jobID string) (bool, error)
	UpdateImportJob(ctx context.Context, jobID string, fields map[string]any) error

	CreateSizeChart(ctx context.Context, sc *catalog.SizeChart) (string, error)
	GetSizeChart(ctx context.Context, id string) (*catalog.SizeChart, error)

	ListIndexes(ctx context.Context) ([]IndexInfo, error)
}

// IndexInfo describes one index for the operational listIndexes() surface.
type IndexInfo struct {
	Name    string
	Fields  []string
	Unique  bool
	Sparse  bool
	Text    bool
	Weights map[string]int
}

// RequiredIndexes is the fixed set of indexes the store must create at
// startup and verify, per §4.1.
func RequiredIndexes() []IndexInfo {
	return []IndexInfo{
		{Name: "uniq_sku", Fields: []string{"sku"}, Unique: true, Sparse: true},
		{Name: "active_category_price", Fields: []string{"isActive", "category", "price"}},
		{Name: "active_department_price", Fields: []string{"isActive", "department", "price"}},
		{Name: "active_rating_desc", Fields: []string{"isActive", "averageRating desc"}},
		{Name: "active_created_desc", Fields: []string{"isActive", "createdAt desc"}},
		{Name: "brand", Fields: []string{"brand"}},
		{Name: "tags", Fields: []string{"tags"}},
		{Name: "badge_type", Fields: []string{"badges.type"}},
		{Name: "parent_id", Fields: []string{"parentId"}, Sparse: true},
		{
			Name:   "text_search",
			Fields: []string{"name", "description", "tags", "searchKeywords"},
			Text:   true,
			Weights: map[string]int{
				"name": 10, "description": 2, "tags": 5, "searchKeywords": 5,
			},
		},
	}
}

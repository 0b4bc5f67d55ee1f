// Package catalog holds the Product aggregate and the value types that
// compose it: badges, review aggregates, availability, variant attributes.
// Nothing here talks to the store or the broker; it is pure domain logic so
// that projection/badge/variation engines can unit test against it directly.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// VariationType classifies a product within the parent/child model.
type VariationType string

const (
	Standalone VariationType = "standalone"
	Parent     VariationType = "parent"
	Child      VariationType = "child"
)

// VariantAttribute is one (name, value) pair distinguishing a child from its
// siblings, e.g. color=red.
type VariantAttribute struct {
	Name        string `json:"name" db:"name"`
	Value       string `json:"value" db:"value"`
	DisplayName string `json:"displayName,omitempty" db:"display_name"`
}

// NormalizedAttributeTuple sorts attrs by lower-cased name and renders a
// stable string key used for the uniqueness invariant (case-insensitive,
// order-insensitive comparison between sibling children).
func NormalizedAttributeTuple(attrs []VariantAttribute) string {
	pairs := make([]string, len(attrs))
	for i, a := range attrs {
		pairs[i] = strings.ToLower(a.Name) + "=" + strings.ToLower(a.Value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// Specifications is a free-form string->string map (e.g. "material": "cotton").
type Specifications map[string]string

// ReviewAggregates is the denormalized projection of the reviews service,
// kept in sync by the projection engine.
type ReviewAggregates struct {
	AverageRating         float64     `json:"averageRating" db:"average_rating"`
	TotalReviews          int         `json:"totalReviews" db:"total_reviews"`
	VerifiedPurchaseCount int         `json:"verifiedPurchaseCount" db:"verified_purchase_count"`
	RatingDistribution    map[int]int `json:"ratingDistribution" db:"rating_distribution"`
}

// NewReviewAggregates returns the zero-value aggregates with a fully
// populated (all-zero) rating distribution, matching invariant (4) from the
// spec: the distribution always has entries for 1..5.
func NewReviewAggregates() ReviewAggregates {
	return ReviewAggregates{RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
}

// ApplyAdd folds in one new rating sample using the incremental mean
// formula, matching the source review aggregator's update_review_aggregates
// with operation="add".
func (r *ReviewAggregates) ApplyAdd(rating int, verifiedPurchase bool) {
	if r.RatingDistribution == nil {
		r.RatingDistribution = map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	}
	newTotal := r.TotalReviews + 1
	newAvg := (r.AverageRating*float64(r.TotalReviews) + float64(rating)) / float64(newTotal)
	r.AverageRating = round2(newAvg)
	r.TotalReviews = newTotal
	r.RatingDistribution[rating]++
	if verifiedPurchase {
		r.VerifiedPurchaseCount++
	}
}

// ApplyDelete removes one rating sample. totalReviews never goes negative;
// ratingDistribution clamps at 0; averageRating resets to 0 once the total
// reaches 0 (never NaN).
func (r *ReviewAggregates) ApplyDelete(rating int, verifiedPurchase bool) {
	if r.RatingDistribution == nil {
		r.RatingDistribution = map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	}
	if r.TotalReviews <= 0 {
		return
	}
	newTotal := r.TotalReviews - 1
	if newTotal > 0 {
		newAvg := (r.AverageRating*float64(r.TotalReviews) - float64(rating)) / float64(newTotal)
		r.AverageRating = round2(newAvg)
	} else {
		r.AverageRating = 0
	}
	r.TotalReviews = newTotal
	if r.RatingDistribution[rating] > 0 {
		r.RatingDistribution[rating]--
	}
	if verifiedPurchase && r.VerifiedPurchaseCount > 0 {
		r.VerifiedPurchaseCount--
	}
}

// ApplyUpdate is delete(old) followed by add(new), matching the spec's
// review.updated handling.
func (r *ReviewAggregates) ApplyUpdate(oldRating, newRating int, verifiedPurchase bool) {
	r.ApplyDelete(oldRating, verifiedPurchase)
	r.ApplyAdd(newRating, verifiedPurchase)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// AvailabilityState is the derived stock state of a product.
type AvailabilityState string

const (
	InStock    AvailabilityState = "inStock"
	LowStock   AvailabilityState = "lowStock"
	OutOfStock AvailabilityState = "outOfStock"
)

// ComputeAvailabilityState implements invariant (6): 0 -> outOfStock;
// 0 < q <= threshold -> lowStock; q > threshold -> inStock.
func ComputeAvailabilityState(availableQuantity, lowStockThreshold int) AvailabilityState {
	switch {
	case availableQuantity <= 0:
		return OutOfStock
	case availableQuantity <= lowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// AvailabilityStatus is the denormalized inventory projection.
type AvailabilityStatus struct {
	State             AvailabilityState `json:"state" db:"state"`
	AvailableQuantity int               `json:"availableQuantity" db:"available_quantity"`
	LowStockThreshold int               `json:"lowStockThreshold" db:"low_stock_threshold"`
	LastUpdated       time.Time         `json:"lastUpdated" db:"last_updated"`
}

// Recompute derives state from (availableQuantity, lowStockThreshold) and
// reports whether the transition was outOfStock -> (inStock|lowStock), the
// trigger for a product.back.in.stock event.
func (a *AvailabilityStatus) Recompute(availableQuantity, lowStockThreshold int, now time.Time) (backInStock bool) {
	wasOutOfStock := a.State == OutOfStock
	a.AvailableQuantity = availableQuantity
	if lowStockThreshold > 0 || a.LowStockThreshold == 0 {
		a.LowStockThreshold = lowStockThreshold
	}
	a.State = ComputeAvailabilityState(availableQuantity, a.LowStockThreshold)
	a.LastUpdated = now
	return wasOutOfStock && a.State != OutOfStock
}

// QAStats is the denormalized question/answer projection.
type QAStats struct {
	TotalQuestions    int       `json:"totalQuestions" db:"total_questions"`
	AnsweredQuestions int       `json:"answeredQuestions" db:"answered_questions"`
	LastUpdated       time.Time `json:"lastUpdated" db:"last_updated"`
}

// SalesPeriod is a rolling-window sales sample cached from the analytics
// upstream for badge-rule evaluation.
type SalesPeriod struct {
	Units int `json:"units"`
}

// SalesMetrics caches analytics.product.sales.updated payloads.
type SalesMetrics struct {
	Last30Days   SalesPeriod `json:"last30Days"`
	CategoryRank int         `json:"categoryRank"`
}

// ViewMetrics caches analytics.product.views.updated payloads.
type ViewMetrics struct {
	ViewsLast7Days  int `json:"viewsLast7Days"`
	ViewsPrior7Days int `json:"viewsPrior7Days"`
}

// GrowthPercent returns the week-over-week view growth, 0 when there is no
// prior-period baseline to compare against.
func (v ViewMetrics) GrowthPercent() float64 {
	if v.ViewsPrior7Days <= 0 {
		return 0
	}
	return (float64(v.ViewsLast7Days) - float64(v.ViewsPrior7Days)) / float64(v.ViewsPrior7Days) * 100
}

// HistoryEntry is one append-only audit trail record.
type HistoryEntry struct {
	Actor     string         `json:"actor" db:"actor"`
	Timestamp time.Time      `json:"timestamp" db:"timestamp"`
	Changes   map[string]any `json:"changes" db:"changes"`
}

// Product is the central catalog entity: standalone, parent, or child.
type Product struct {
	ID    string `json:"id" db:"id"`
	SKU   string `json:"sku,omitempty" db:"sku"`
	Name  string `json:"name" db:"name"`

	VariationType    VariationType      `json:"variationType" db:"variation_type"`
	ParentID         string             `json:"parentId,omitempty" db:"parent_id"`
	VariantAttributes []VariantAttribute `json:"variantAttributes,omitempty" db:"variant_attributes"`
	VariationCount   int                `json:"variationCount,omitempty" db:"variation_count"`

	Description string            `json:"description,omitempty" db:"description"`
	Brand       string            `json:"brand,omitempty" db:"brand"`
	Price       float64           `json:"price" db:"price"`
	Department  string            `json:"department,omitempty" db:"department"`
	Category    string            `json:"category,omitempty" db:"category"`
	Subcategory string            `json:"subcategory,omitempty" db:"subcategory"`
	ProductType string            `json:"productType,omitempty" db:"product_type"`
	Images      []string          `json:"images,omitempty" db:"images"`
	Tags        []string          `json:"tags,omitempty" db:"tags"`
	SearchKeywords []string       `json:"searchKeywords,omitempty" db:"search_keywords"`
	Specifications Specifications `json:"specifications,omitempty" db:"specifications"`

	Badges      []Badge `json:"badges,omitempty" db:"badges"`
	SizeChartID string  `json:"sizeChartId,omitempty" db:"size_chart_id"`

	ReviewAggregates   ReviewAggregates   `json:"reviewAggregates" db:"review_aggregates"`
	AvailabilityStatus AvailabilityStatus `json:"availabilityStatus" db:"availability_status"`
	QAStats            QAStats            `json:"qaStats" db:"qa_stats"`
	SalesMetrics       SalesMetrics       `json:"salesMetrics" db:"sales_metrics"`
	ViewMetrics        ViewMetrics        `json:"viewMetrics" db:"view_metrics"`

	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	CreatedBy string    `json:"createdBy,omitempty" db:"created_by"`
	UpdatedBy string    `json:"updatedBy,omitempty" db:"updated_by"`

	History []HistoryEntry `json:"history,omitempty" db:"history"`
}

// AttributeTupleKey returns the normalized variant-attribute tuple key for a
// child product, empty for non-children.
func (p *Product) AttributeTupleKey() string {
	if p.VariationType != Child {
		return ""
	}
	return NormalizedAttributeTuple(p.VariantAttributes)
}

// AppendHistory records an audit-trail entry for actor's change set.
func (p *Product) AppendHistory(actor string, changes map[string]any, now time.Time) {
	p.History = append(p.History, HistoryEntry{Actor: actor, Timestamp: now, Changes: changes})
}

// Validate checks the field-level invariants enforceable without store
// access (price >= 0, required fields, child/parent shape). Store-level
// invariants (sku uniqueness, parent existence) are checked by the store and
// the variation engine respectively.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("price must be non-negative")
	}
	switch p.VariationType {
	case Standalone, Parent:
		if p.ParentID != "" {
			return fmt.Errorf("%s product must not carry a parentId", p.VariationType)
		}
	case Child:
		if p.ParentID == "" {
			return fmt.Errorf("child product requires parentId")
		}
		if len(p.VariantAttributes) == 0 {
			return fmt.Errorf("child product requires variantAttributes")
		}
	default:
		return fmt.Errorf("unknown variationType %q", p.VariationType)
	}
	return nil
}

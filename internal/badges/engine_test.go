package badges

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aioutlet/product-catalog-core/internal/broker/memorybroker"
	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/eventcatalog"
	"github.com/aioutlet/product-catalog-core/internal/publisher"
	"github.com/aioutlet/product-catalog-core/internal/store/memstore"
)

func newTestEngine() (*Engine, *memstore.Store, *memorybroker.Broker) {
	st := memstore.New()
	b := memorybroker.New()
	pub := publisher.New(b, nil)
	return New(st, pub, nil), st, b
}

func TestAssignBadgeRejectsDuplicate(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shirt", Price: 10})
	require.NoError(t, err)

	require.NoError(t, e.AssignBadge(ctx, id, catalog.BadgeFeatured, nil, nil, nil))
	err = e.AssignBadge(ctx, id, catalog.BadgeFeatured, nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, catalogerr.ReasonDuplicateBadge, catalogerr.ReasonOf(err))
}

func TestRemoveBadgeRequiresPresence(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shirt", Price: 10})
	require.NoError(t, err)

	err = e.RemoveBadge(ctx, id, catalog.BadgeSale)
	require.Error(t, err)
	assert.Equal(t, catalogerr.NotFound, catalogerr.KindOf(err))
}

func TestAssignBadgeEmitsDistinctEventForManualVsAuto(t *testing.T) {
	e, st, b := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shirt", Price: 10})
	require.NoError(t, err)

	admin := "admin-1"
	require.NoError(t, e.AssignBadge(ctx, id, catalog.BadgeFeatured, &admin, nil, nil))
	assert.Len(t, b.Published[eventcatalog.EventBadgeAssigned], 1)

	id2, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shoe", Price: 20})
	require.NoError(t, err)
	require.NoError(t, e.AssignBadge(ctx, id2, catalog.BadgeFeatured, nil, nil, nil))
	assert.Len(t, b.Published[eventcatalog.EventBadgeAutoAssigned], 1)
}

func TestBulkAssignClassifiesOutcomes(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id1, err := st.CreateProduct(ctx, &catalog.Product{Name: "A", Price: 1})
	require.NoError(t, err)
	id2, err := st.CreateProduct(ctx, &catalog.Product{Name: "B", Price: 2})
	require.NoError(t, err)
	require.NoError(t, e.AssignBadge(ctx, id2, catalog.BadgeSale, nil, nil, nil))

	results := e.BulkAssign(ctx, []string{id1, id2, "missing"}, catalog.BadgeSale, nil, nil, nil)
	require.Len(t, results, 3)
	assert.Equal(t, BulkSuccess, results[0].Outcome)
	assert.Equal(t, BulkSkippedPresent, results[1].Outcome)
	assert.Equal(t, BulkFailed, results[2].Outcome)
}

func TestGetProductBadgesReturnsHighestPriorityDisplay(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shirt", Price: 10})
	require.NoError(t, err)
	require.NoError(t, e.AssignBadge(ctx, id, catalog.BadgeNew, nil, nil, nil))
	require.NoError(t, e.AssignBadge(ctx, id, catalog.BadgeFeatured, nil, nil, nil))

	active, display, err := e.GetProductBadges(ctx, id)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	require.NotNil(t, display)
	assert.Equal(t, catalog.BadgeFeatured, display.Type)
}

// TestEvaluateRulesAssignsBestSellerAndRespectsManualPrecedence implements
// scenario E4: a best-seller rule fires on a qualifying product, and never
// touches a product whose best-seller badge was manually assigned.
func TestEvaluateRulesAssignsBestSellerAndRespectsManualPrecedence(t *testing.T) {
	e, st, b := newTestEngine()
	ctx := context.Background()

	qualifying, err := st.CreateProduct(ctx, &catalog.Product{
		Name: "Best Widget", Price: 10,
		SalesMetrics: catalog.SalesMetrics{Last30Days: catalog.SalesPeriod{Units: 500}},
	})
	require.NoError(t, err)

	admin := "admin-1"
	manual, err := st.CreateProduct(ctx, &catalog.Product{Name: "Manual Widget", Price: 10})
	require.NoError(t, err)
	require.NoError(t, e.AssignBadge(ctx, manual, catalog.BadgeBestSeller, &admin, nil, nil))

	notQualifying, err := st.CreateProduct(ctx, &catalog.Product{Name: "Slow Widget", Price: 10})
	require.NoError(t, err)

	e.SetRules([]Rule{{
		BadgeType: string(catalog.BadgeBestSeller),
		Name:      "top-sellers",
		Conditions: []Condition{
			{FieldPath: "salesMetrics.last30Days.units", Operator: OpGTE, Value: float64(100)},
		},
		RequiresAllConditions: true,
		IsActive:               true,
	}})

	results, err := e.EvaluateRules(ctx, EvaluateOptions{ProductIDs: []string{qualifying, manual, notQualifying}})
	require.NoError(t, err)
	require.Len(t, results, 3)

	byProduct := map[string]EvaluationResult{}
	for _, r := range results {
		byProduct[r.ProductID] = r
	}
	assert.Equal(t, RuleAdded, byProduct[qualifying].Outcome)
	assert.Equal(t, RuleSkippedManual, byProduct[manual].Outcome)
	assert.Equal(t, RuleNoChange, byProduct[notQualifying].Outcome)

	p, err := st.GetProduct(ctx, qualifying)
	require.NoError(t, err)
	_, found := catalog.FindBadge(p.Badges, catalog.BadgeBestSeller)
	assert.True(t, found)
	assert.Len(t, b.Published[eventcatalog.EventBadgeAutoAssigned], 1)

	// The manually assigned badge is untouched.
	pm, err := st.GetProduct(ctx, manual)
	require.NoError(t, err)
	mb, found := catalog.FindBadge(pm.Badges, catalog.BadgeBestSeller)
	require.True(t, found)
	assert.False(t, mb.IsAutomated())
}

func TestEvaluateRulesAutoRemovesWhenNoLongerQualifying(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{
		Name: "Widget", Price: 10,
		SalesMetrics: catalog.SalesMetrics{Last30Days: catalog.SalesPeriod{Units: 5}},
	})
	require.NoError(t, err)
	require.NoError(t, e.AssignBadge(ctx, id, catalog.BadgeBestSeller, nil, nil, nil))

	e.SetRules([]Rule{{
		BadgeType: string(catalog.BadgeBestSeller),
		Name:      "top-sellers",
		Conditions: []Condition{
			{FieldPath: "salesMetrics.last30Days.units", Operator: OpGTE, Value: float64(100)},
		},
		RequiresAllConditions: true,
		IsActive:              true,
		AutoRemoveWhenInvalid:  true,
	}})

	results, err := e.EvaluateRules(ctx, EvaluateOptions{ProductIDs: []string{id}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, RuleRemoved, results[0].Outcome)

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	_, found := catalog.FindBadge(p.Badges, catalog.BadgeBestSeller)
	assert.False(t, found)
}

func TestEvaluateRulesDryRunDoesNotMutate(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{
		Name: "Widget", Price: 10,
		SalesMetrics: catalog.SalesMetrics{Last30Days: catalog.SalesPeriod{Units: 500}},
	})
	require.NoError(t, err)

	e.SetRules([]Rule{{
		BadgeType:              string(catalog.BadgeBestSeller),
		Name:                    "top-sellers",
		Conditions:              []Condition{{FieldPath: "salesMetrics.last30Days.units", Operator: OpGTE, Value: float64(100)}},
		RequiresAllConditions:   true,
		IsActive:                true,
	}})

	results, err := e.EvaluateRules(ctx, EvaluateOptions{ProductIDs: []string{id}, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, RuleSkippedDryRun, results[0].Outcome)

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, p.Badges)
}

func TestRemoveExpiredBadgesSweepsPastEntries(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Widget", Price: 10})
	require.NoError(t, err)

	past := e.now().AddDate(0, 0, -1)
	require.NoError(t, e.AssignBadge(ctx, id, catalog.BadgeSale, nil, &past, nil))
	require.NoError(t, e.AssignBadge(ctx, id, catalog.BadgeNew, nil, nil, nil))

	touched, err := e.RemoveExpiredBadges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Len(t, p.Badges, 1)
	assert.Equal(t, catalog.BadgeNew, p.Badges[0].Type)
}

func TestGetStatisticsCountsAutomatedAndManual(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id1, err := st.CreateProduct(ctx, &catalog.Product{Name: "A", Price: 1})
	require.NoError(t, err)
	id2, err := st.CreateProduct(ctx, &catalog.Product{Name: "B", Price: 2})
	require.NoError(t, err)

	admin := "admin-1"
	require.NoError(t, e.AssignBadge(ctx, id1, catalog.BadgeFeatured, &admin, nil, nil))
	require.NoError(t, e.AssignBadge(ctx, id2, catalog.BadgeSale, nil, nil, nil))

	stats, err := e.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBadges)
	assert.Equal(t, 2, stats.ProductsWithBadges)
	assert.Equal(t, 1, stats.ManualBadges)
	assert.Equal(t, 1, stats.AutomatedBadges)
}

func TestEvaluateProductSatisfiesBadgeEvaluatorInterface(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{
		Name: "Widget", Price: 10,
		SalesMetrics: catalog.SalesMetrics{Last30Days: catalog.SalesPeriod{Units: 1000}},
	})
	require.NoError(t, err)

	e.SetRules([]Rule{{
		BadgeType:              string(catalog.BadgeBestSeller),
		Name:                    "top-sellers",
		Conditions:              []Condition{{FieldPath: "salesMetrics.last30Days.units", Operator: OpGTE, Value: float64(100)}},
		RequiresAllConditions:   true,
		IsActive:                true,
	}})

	require.NoError(t, e.EvaluateProduct(ctx, id, []catalog.BadgeType{catalog.BadgeBestSeller}))

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	_, found := catalog.FindBadge(p.Badges, catalog.BadgeBestSeller)
	assert.True(t, found)
}

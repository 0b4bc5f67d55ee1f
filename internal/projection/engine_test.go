package projection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aioutlet/product-catalog-core/internal/broker/memorybroker"
	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/eventcatalog"
	"github.com/aioutlet/product-catalog-core/internal/publisher"
	"github.com/aioutlet/product-catalog-core/internal/store/memstore"
)

func newTestEngine() (*Engine, *memstore.Store, *memorybroker.Broker) {
	st := memstore.New()
	b := memorybroker.New()
	pub := publisher.New(b, nil)
	return New(st, pub, nil, nil), st, b
}

// TestReviewAggregationRoundTrip implements scenario E1 from the spec.
func TestReviewAggregationRoundTrip(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()

	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shirt", SKU: "A", Price: 10,
		ReviewAggregates: catalog.NewReviewAggregates()})
	require.NoError(t, err)

	require.NoError(t, e.HandleReviewCreated(ctx, "ev-1", eventcatalog.ReviewCreatedData{
		ProductID: id, Rating: 5, VerifiedPurchase: true,
	}))
	require.NoError(t, e.HandleReviewCreated(ctx, "ev-2", eventcatalog.ReviewCreatedData{
		ProductID: id, Rating: 3, VerifiedPurchase: false,
	}))

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4.00, p.ReviewAggregates.AverageRating)
	assert.Equal(t, 2, p.ReviewAggregates.TotalReviews)
	assert.Equal(t, 1, p.ReviewAggregates.VerifiedPurchaseCount)
	assert.Equal(t, 1, p.ReviewAggregates.RatingDistribution[3])
	assert.Equal(t, 1, p.ReviewAggregates.RatingDistribution[5])

	require.NoError(t, e.HandleReviewDeleted(ctx, "ev-3", eventcatalog.ReviewDeletedData{
		ProductID: id, Rating: 5, VerifiedPurchase: true,
	}))

	p, err = st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3.00, p.ReviewAggregates.AverageRating)
	assert.Equal(t, 1, p.ReviewAggregates.TotalReviews)
	assert.Equal(t, 0, p.ReviewAggregates.VerifiedPurchaseCount)
}

func TestReviewCreatedIsDedupedByEventID(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shirt", Price: 10, ReviewAggregates: catalog.NewReviewAggregates()})
	require.NoError(t, err)

	data := eventcatalog.ReviewCreatedData{ProductID: id, Rating: 5}
	require.NoError(t, e.HandleReviewCreated(ctx, "dup-1", data))
	require.NoError(t, e.HandleReviewCreated(ctx, "dup-1", data))

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ReviewAggregates.TotalReviews)
}

// TestInventoryUpdateEmitsBackInStock implements scenario E2.
func TestInventoryUpdateEmitsBackInStock(t *testing.T) {
	e, st, b := newTestEngine()
	ctx := context.Background()

	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Shoe", SKU: "SHOE-1", Price: 50,
		AvailabilityStatus: catalog.AvailabilityStatus{State: catalog.OutOfStock}})
	require.NoError(t, err)

	require.NoError(t, e.HandleInventoryStockUpdated(ctx, "ev-1", eventcatalog.InventoryStockUpdatedData{
		SKU: "SHOE-1", AvailableQuantity: 25, LowStockThreshold: 10,
	}))

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, catalog.InStock, p.AvailabilityStatus.State)
	assert.Len(t, b.Published[eventcatalog.EventProductBackInStock], 1)
}

func TestQuestionDeletedClampsAtZero(t *testing.T) {
	e, st, _ := newTestEngine()
	ctx := context.Background()
	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Widget", Price: 1})
	require.NoError(t, err)

	require.NoError(t, e.HandleQuestionDeleted(ctx, "ev-1", eventcatalog.QuestionDeletedData{ProductID: id}))

	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.QAStats.TotalQuestions)
}

type fakeBadgeEvaluator struct {
	calls []string
}

func (f *fakeBadgeEvaluator) EvaluateProduct(ctx context.Context, productID string, badgeTypes []catalog.BadgeType) error {
	f.calls = append(f.calls, productID)
	return nil
}

func TestSalesUpdatedTriggersBadgeReevaluation(t *testing.T) {
	st := memstore.New()
	b := memorybroker.New()
	pub := publisher.New(b, nil)
	evaluator := &fakeBadgeEvaluator{}
	e := New(st, pub, evaluator, nil)
	ctx := context.Background()

	id, err := st.CreateProduct(ctx, &catalog.Product{Name: "Widget", Price: 1})
	require.NoError(t, err)

	require.NoError(t, e.HandleSalesUpdated(ctx, "ev-1", eventcatalog.AnalyticsSalesUpdatedData{
		ProductID: id, SalesLast30Days: 1500, CategoryRank: 1,
	}))

	assert.Equal(t, []string{id}, evaluator.calls)
	p, err := st.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1500, p.SalesMetrics.Last30Days.Units)
}

func TestEventTargetingUnknownProductIsDroppedAsDelivered(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()
	err := e.HandleReviewCreated(ctx, "ev-1", eventcatalog.ReviewCreatedData{ProductID: "missing", Rating: 5})
	assert.NoError(t, err)
}

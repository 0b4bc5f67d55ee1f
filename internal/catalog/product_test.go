package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReviewAggregates_E1RoundTrip(t *testing.T) {
	agg := NewReviewAggregates()
	agg.ApplyAdd(5, true)
	agg.ApplyAdd(3, false)

	assert.Equal(t, 4.00, agg.AverageRating)
	assert.Equal(t, 2, agg.TotalReviews)
	assert.Equal(t, 1, agg.VerifiedPurchaseCount)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 1, 4: 0, 5: 1}, agg.RatingDistribution)

	agg.ApplyDelete(5, true)
	assert.Equal(t, 3.00, agg.AverageRating)
	assert.Equal(t, 1, agg.TotalReviews)
	assert.Equal(t, 0, agg.VerifiedPurchaseCount)
}

func TestReviewAggregates_DeleteLastReviewResetsToZeroNotNaN(t *testing.T) {
	agg := NewReviewAggregates()
	agg.ApplyAdd(4, false)
	agg.ApplyDelete(4, false)
	assert.Equal(t, 0.0, agg.AverageRating)
	assert.Equal(t, 0, agg.TotalReviews)
}

func TestReviewAggregates_DeleteNeverGoesNegative(t *testing.T) {
	agg := NewReviewAggregates()
	agg.ApplyDelete(5, true)
	assert.Equal(t, 0, agg.TotalReviews)
	assert.Equal(t, 0, agg.VerifiedPurchaseCount)
	assert.Equal(t, 0, agg.RatingDistribution[5])
}

func TestReviewAggregates_UpdateIsDeleteThenAdd(t *testing.T) {
	agg := NewReviewAggregates()
	agg.ApplyAdd(2, false)
	agg.ApplyUpdate(2, 5, false)
	assert.Equal(t, 5.0, agg.AverageRating)
	assert.Equal(t, 1, agg.TotalReviews)
	assert.Equal(t, 0, agg.RatingDistribution[2])
	assert.Equal(t, 1, agg.RatingDistribution[5])
}

func TestComputeAvailabilityState(t *testing.T) {
	assert.Equal(t, OutOfStock, ComputeAvailabilityState(0, 10))
	assert.Equal(t, LowStock, ComputeAvailabilityState(5, 10))
	assert.Equal(t, LowStock, ComputeAvailabilityState(10, 10))
	assert.Equal(t, InStock, ComputeAvailabilityState(11, 10))
}

func TestAvailabilityStatus_E2BackInStockTransition(t *testing.T) {
	status := AvailabilityStatus{State: OutOfStock, AvailableQuantity: 0, LowStockThreshold: 10}
	backInStock := status.Recompute(25, 10, time.Now())
	assert.True(t, backInStock)
	assert.Equal(t, InStock, status.State)

	// Applying the same update twice is idempotent (modulo LastUpdated).
	again := status.Recompute(25, 10, time.Now())
	assert.False(t, again)
	assert.Equal(t, InStock, status.State)
}

func TestAvailabilityStatus_NoTransitionWhenAlreadyInStock(t *testing.T) {
	status := AvailabilityStatus{State: InStock, AvailableQuantity: 50, LowStockThreshold: 10}
	backInStock := status.Recompute(40, 10, time.Now())
	assert.False(t, backInStock)
}

func TestNormalizedAttributeTuple_CaseInsensitive(t *testing.T) {
	a := []VariantAttribute{{Name: "Color", Value: "Red"}, {Name: "Size", Value: "S"}}
	b := []VariantAttribute{{Name: "size", Value: "s"}, {Name: "color", Value: "red"}}
	assert.Equal(t, NormalizedAttributeTuple(a), NormalizedAttributeTuple(b))
}

func TestProductValidate(t *testing.T) {
	p := Product{Name: "Shirt", Price: -1, VariationType: Standalone}
	assert.Error(t, p.Validate())

	p.Price = 0
	assert.NoError(t, p.Validate())

	child := Product{Name: "Shirt S", Price: 10, VariationType: Child}
	assert.Error(t, child.Validate(), "child without parentId/attrs is invalid")

	child.ParentID = "parent-1"
	child.VariantAttributes = []VariantAttribute{{Name: "size", Value: "S"}}
	assert.NoError(t, child.Validate())
}

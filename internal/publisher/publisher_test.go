package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aioutlet/product-catalog-core/internal/broker/memorybroker"
	"github.com/aioutlet/product-catalog-core/internal/eventcatalog"
)

func TestProductCreatedPublishesNamespacedEnvelope(t *testing.T) {
	b := memorybroker.New()
	p := New(b, nil)

	p.ProductCreated(context.Background(), "p1", "SKU-1", "Widget")

	published := b.Published[eventcatalog.EventProductCreated]
	require.Len(t, published, 1)
	assert.Equal(t, eventcatalog.EventProductCreated, published[0].Type)
	assert.Equal(t, "p1", published[0].Subject)

	var data eventcatalog.ProductCreatedData
	require.NoError(t, published[0].UnmarshalData(&data))
	assert.Equal(t, "SKU-1", data.SKU)
	assert.Equal(t, "Widget", data.Name)
}

func TestBadgeAutoAssignedUsesDistinctEventType(t *testing.T) {
	b := memorybroker.New()
	p := New(b, nil)

	p.BadgeAutoAssigned(context.Background(), "p1", "trending", map[string]any{"rule": "sales-spike"})

	assert.Empty(t, b.Published[eventcatalog.EventBadgeAssigned])
	require.Len(t, b.Published[eventcatalog.EventBadgeAutoAssigned], 1)
}

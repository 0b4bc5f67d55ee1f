package cloudevents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ProductID string `json:"productId"`
}

func TestNewPopulatesEnvelope(t *testing.T) {
	e, err := New("com.aioutlet.product.created.v1", payload{ProductID: "p1"},
		WithSubject("product/p1"), WithCorrelationID("corr-1"))
	require.NoError(t, err)

	assert.Equal(t, "1.0", e.SpecVersion)
	assert.Equal(t, Source, e.Source)
	assert.Equal(t, "com.aioutlet.product.created.v1", e.Type)
	assert.Equal(t, "product/p1", e.Subject)
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.Equal(t, "application/json", e.DataContentType)
	assert.NotEmpty(t, e.ID)
	_, err = time.Parse(time.RFC3339, e.Time)
	assert.NoError(t, err)

	var got payload
	require.NoError(t, e.UnmarshalData(&got))
	assert.Equal(t, "p1", got.ProductID)
}

func TestWithIDAndTimeOverride(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e, err := New("x", payload{}, WithID("fixed-id"), WithTime(fixed))
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", e.ID)
	assert.Equal(t, "2026-01-02T03:04:05Z", e.Time)
}

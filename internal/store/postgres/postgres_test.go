package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aioutlet/product-catalog-core/internal/store"
)

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(&Config{}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "host cannot be empty")
}

func TestBuildFilterRendersIncrementalPlaceholders(t *testing.T) {
	active := true
	min := 10.0
	where, args := buildFilter(store.Filter{
		IsActive: &active,
		Category: "shoes",
		MinPrice: &min,
		Tags:     []string{"red"},
	})

	assert.Contains(t, where, "is_active = $1")
	assert.Contains(t, where, "lower(category) = lower($2)")
	assert.Contains(t, where, "price >= $3")
	assert.Contains(t, where, "document->'tags' @> $4::jsonb")
	assert.Len(t, args, 4)
}

func TestBuildFilterWithNoConditions(t *testing.T) {
	where, args := buildFilter(store.Filter{})
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}

func TestOrderByClause(t *testing.T) {
	assert.Equal(t, "price ASC", orderByClause(store.SortPriceAsc))
	assert.Equal(t, "average_rating DESC", orderByClause(store.SortAverageRatingDesc))
	assert.Equal(t, "created_at DESC", orderByClause(store.SortCreatedAtDesc))
}

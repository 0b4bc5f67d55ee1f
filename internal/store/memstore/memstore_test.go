package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/store"
)

func TestCreateProductEnforcesSkuUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.CreateProduct(ctx, &catalog.Product{Name: "Shirt", SKU: "ABC-1", Price: 10})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	_, err = s.CreateProduct(ctx, &catalog.Product{Name: "Other Shirt", SKU: "abc-1", Price: 12})
	require.Error(t, err)
	assert.Equal(t, catalogerr.Conflict, catalogerr.KindOf(err))
	assert.Equal(t, catalogerr.ReasonDuplicateSku, catalogerr.ReasonOf(err))
}

func TestFindBySkuIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.CreateProduct(ctx, &catalog.Product{Name: "Shirt", SKU: "ABC-1", Price: 10, IsActive: true})
	require.NoError(t, err)

	p, err := s.FindBySku(ctx, "abc-1", true)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", p.Name)
}

func TestFindManyFiltersAndSorts(t *testing.T) {
	s := New()
	ctx := context.Background()
	active := true
	_, _ = s.CreateProduct(ctx, &catalog.Product{Name: "Cheap", Category: "shoes", Price: 10, IsActive: true})
	_, _ = s.CreateProduct(ctx, &catalog.Product{Name: "Mid", Category: "shoes", Price: 20, IsActive: true})
	_, _ = s.CreateProduct(ctx, &catalog.Product{Name: "Other Category", Category: "hats", Price: 5, IsActive: true})

	results, total, err := s.FindMany(ctx, store.Filter{IsActive: &active, Category: "shoes"}, store.SortPriceAsc, store.Paging{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
	assert.Equal(t, "Cheap", results[0].Name)
	assert.Equal(t, "Mid", results[1].Name)
}

func TestAtomicIncAndSet(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, err := s.CreateProduct(ctx, &catalog.Product{Name: "Widget", Price: 10})
	require.NoError(t, err)

	require.NoError(t, s.AtomicInc(ctx, id, "salesMetrics.last30Days.units", 3))
	n, err := s.AtomicSet(ctx, id, map[string]any{"isActive": true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := s.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, p.SalesMetrics.Last30Days.Units)
	assert.True(t, p.IsActive)
}

func TestInsertManyRejectsAnyDuplicateSkuAtomically(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.CreateProduct(ctx, &catalog.Product{Name: "Existing", SKU: "X-1", Price: 1})
	require.NoError(t, err)

	_, err = s.InsertMany(ctx, []*catalog.Product{
		{Name: "New One", SKU: "X-2", Price: 2},
		{Name: "Dup", SKU: "x-1", Price: 3},
	})
	require.Error(t, err)

	_, total, err := s.FindMany(ctx, store.Filter{}, store.SortCreatedAtDesc, store.Paging{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "partial batch must not have been committed")
}

func TestClaimImportJobIsSingleWinner(t *testing.T) {
	s := New()
	ctx := context.Background()
	job := &catalog.ImportJob{Filename: "batch.csv", Status: catalog.ImportPending, TotalRows: 10}
	require.NoError(t, s.CreateImportJob(ctx, job))

	won, err := s.ClaimImportJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.True(t, won)

	wonAgain, err := s.ClaimImportJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.False(t, wonAgain)
}

func TestCancelImportJobRequiresProcessing(t *testing.T) {
	s := New()
	ctx := context.Background()
	job := &catalog.ImportJob{Filename: "batch.csv", Status: catalog.ImportPending, TotalRows: 10}
	require.NoError(t, s.CreateImportJob(ctx, job))

	cancelledTooEarly, err := s.CancelImportJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.False(t, cancelledTooEarly, "a pending job is not yet processing")

	won, err := s.ClaimImportJob(ctx, job.JobID)
	require.NoError(t, err)
	require.True(t, won)

	cancelled, err := s.CancelImportJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	got, err := s.GetImportJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, catalog.ImportCancelled, got.Status)
	require.NotNil(t, got.CompletedAt)

	cancelledAgain, err := s.CancelImportJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.False(t, cancelledAgain, "a cancelled job is terminal")
}

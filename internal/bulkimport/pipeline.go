package bulkimport

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/publisher"
	"github.com/aioutlet/product-catalog-core/internal/store"
)

// BatchSize is the fixed batch granularity processing advances by (§4.6
// stage 3).
const BatchSize = 100

// Pipeline is the Bulk Import Pipeline (C6).
type Pipeline struct {
	store     store.Store
	publisher *publisher.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New builds a Bulk Import Pipeline around the shared store and publisher.
func New(st store.Store, pub *publisher.Publisher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: st, publisher: pub, logger: logger.With("component", "bulkimport"), now: time.Now}
}

// Submit persists a pending ImportJob for the already-validated rows and
// emits product.bulk.import.job.created, §4.6 stage 2. Invalid rows are
// counted in totalRows but contribute to errorCount immediately.
func (pl *Pipeline) Submit(ctx context.Context, filename string, rows []RowResult, mode catalog.ImportMode, createdBy string) (*catalog.ImportJob, error) {
	job := &catalog.ImportJob{
		JobID:      uuid.NewString(),
		Filename:   filename,
		Status:     catalog.ImportPending,
		TotalRows:  len(rows),
		ImportMode: mode,
		StartedAt:  pl.now(),
	}
	for _, r := range rows {
		if !r.Valid() {
			job.Errors = append(job.Errors, r.Errors...)
		}
	}
	job.ErrorCount = len(job.Errors)

	if err := pl.store.CreateImportJob(ctx, job); err != nil {
		return nil, err
	}

	products := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			continue
		}
		encoded, err := encodeRowProduct(r)
		if err != nil {
			pl.logger.Error("failed to encode row for event payload", "rowNumber", r.RowNumber, "error", err)
			continue
		}
		products = append(products, encoded)
	}
	pl.publisher.BulkImportJobCreated(ctx, job.JobID, products, string(mode))
	return job, nil
}

// encodeRowProduct flattens a valid row's product into the map shape carried
// by product.bulk.import.job.created, so a worker in a separate process can
// reconstruct the row from the event alone (§4.6 stage 2/3 decoupling).
func encodeRowProduct(r RowResult) (map[string]any, error) {
	raw, err := json.Marshal(r.Product)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["rowNumber"] = r.RowNumber
	return m, nil
}

// RowsFromEventProducts decodes the products carried in a
// product.bulk.import.job.created payload back into RowResults Run can
// process, the inverse of encodeRowProduct.
func RowsFromEventProducts(products []map[string]any) ([]RowResult, error) {
	rows := make([]RowResult, 0, len(products))
	for _, m := range products {
		rowNumber, _ := m["rowNumber"].(float64)
		delete(m, "rowNumber")
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		var p catalog.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		rows = append(rows, RowResult{RowNumber: int(rowNumber), Product: &p})
	}
	return rows, nil
}

// Run claims jobID (pending -> processing, §4.6's multi-worker CAS) and
// processes the valid rows in fixed-size batches under the job's import
// mode, reporting progress after each batch and completing at the end. If
// another worker already claimed the job, Run returns (false, nil).
func (pl *Pipeline) Run(ctx context.Context, jobID string, rows []RowResult) (bool, error) {
	claimed, err := pl.store.ClaimImportJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	job, err := pl.store.GetImportJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	valid := make([]RowResult, 0, len(rows))
	for _, r := range rows {
		if r.Valid() {
			valid = append(valid, r)
		}
	}

	successCount := job.SuccessCount
	errorCount := job.ErrorCount
	processedRows := 0
	errs := append([]catalog.ImportValidationError{}, job.Errors...)

	for start := 0; start < len(valid); start += BatchSize {
		if pl.cancelled(ctx, jobID) {
			pl.logger.Info("bulk import cancelled, stopping between batches", "jobId", jobID)
			return true, nil
		}

		end := start + BatchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]

		batchSuccess, batchErrors := pl.runBatch(ctx, job, batch)
		successCount += batchSuccess
		errorCount += len(batchErrors)
		errs = append(errs, batchErrors...)
		processedRows += len(batch)

		if err := pl.store.UpdateImportJob(ctx, jobID, map[string]any{
			"processedRows": processedRows,
			"successCount":  successCount,
			"errorCount":    errorCount,
			"errors":        errs,
		}); err != nil {
			pl.logger.Error("failed to update import job progress", "jobId", jobID, "error", err)
		}
		pl.publisher.BulkImportProgress(ctx, jobID, processedRows, successCount, errorCount, job.TotalRows)
	}

	now := pl.now()
	if err := pl.store.UpdateImportJob(ctx, jobID, map[string]any{
		"status":      catalog.ImportCompleted,
		"completedAt": now,
	}); err != nil {
		pl.logger.Error("failed to finalize import job", "jobId", jobID, "error", err)
		if failErr := pl.store.UpdateImportJob(ctx, jobID, map[string]any{
			"status":      catalog.ImportFailed,
			"completedAt": now,
		}); failErr != nil {
			pl.logger.Error("failed to mark import job failed after finalize error", "jobId", jobID, "error", failErr)
		}
		pl.publisher.BulkImportFailed(ctx, jobID, err.Error())
		pl.publisher.BulkFailed(ctx, jobID, err.Error())
		return true, err
	}
	pl.publisher.BulkImportCompleted(ctx, jobID, successCount, errorCount, job.TotalRows)
	pl.publisher.BulkCompleted(ctx, jobID, successCount, errorCount, job.TotalRows)
	return true, nil
}

// Cancel is the admin cancel operation (§5 cancellation, lifecycle
// processing -> cancelled): a CAS that only succeeds while the job is
// still processing. Run observes the transition in cancelled and stops
// between batches without ever reaching the completed transition.
func (pl *Pipeline) Cancel(ctx context.Context, jobID string) (bool, error) {
	return pl.store.CancelImportJob(ctx, jobID)
}

// cancelled reports whether Run should stop before starting the next
// batch: the caller's context was cancelled, or a concurrent Cancel call
// already moved the job's persisted status to cancelled.
func (pl *Pipeline) cancelled(ctx context.Context, jobID string) bool {
	if ctx.Err() != nil {
		return true
	}
	job, err := pl.store.GetImportJob(ctx, jobID)
	if err != nil {
		return false
	}
	return job.Status == catalog.ImportCancelled
}

// runBatch executes one batch under job.ImportMode, returning the number
// of products successfully created and any row-level errors.
func (pl *Pipeline) runBatch(ctx context.Context, job *catalog.ImportJob, batch []RowResult) (int, []catalog.ImportValidationError) {
	switch job.ImportMode {
	case catalog.ImportAllOrNothing:
		return pl.runAllOrNothingBatch(ctx, batch)
	default:
		return pl.runPartialBatch(ctx, batch)
	}
}

// runPartialBatch inserts each row independently: one bad row does not
// abort the batch (§4.6 stage 4, partial mode).
func (pl *Pipeline) runPartialBatch(ctx context.Context, batch []RowResult) (int, []catalog.ImportValidationError) {
	success := 0
	var errs []catalog.ImportValidationError
	for _, row := range batch {
		id, err := pl.store.CreateProduct(ctx, row.Product)
		if err != nil {
			errs = append(errs, rowError(row, err))
			continue
		}
		success++
		pl.publisher.ProductCreated(ctx, id, row.Product.SKU, row.Product.Name)
	}
	return success, errs
}

// runAllOrNothingBatch pre-checks the whole batch via InsertMany's
// transactional SKU check: any collision fails the batch wholesale with no
// product.created events emitted for it (§4.6 stage 4).
func (pl *Pipeline) runAllOrNothingBatch(ctx context.Context, batch []RowResult) (int, []catalog.ImportValidationError) {
	products := make([]*catalog.Product, len(batch))
	for i, row := range batch {
		products[i] = row.Product
	}
	ids, err := pl.store.InsertMany(ctx, products)
	if err != nil {
		errs := make([]catalog.ImportValidationError, len(batch))
		for i, row := range batch {
			errs[i] = rowError(row, err)
		}
		return 0, errs
	}
	for i, id := range ids {
		pl.publisher.ProductCreated(ctx, id, products[i].SKU, products[i].Name)
	}
	return len(ids), nil
}

func rowError(row RowResult, err error) catalog.ImportValidationError {
	desc := err.Error()
	if catalogerr.ReasonOf(err) == catalogerr.ReasonDuplicateSku {
		desc = "sku already exists: " + row.Product.SKU
	}
	return catalog.ImportValidationError{RowNumber: row.RowNumber, FieldName: "sku", Description: desc, CurrentValue: row.Product.SKU}
}

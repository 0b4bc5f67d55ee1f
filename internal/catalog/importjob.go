package catalog

import "time"

// ImportStatus is the lifecycle state of an ImportJob.
type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
	ImportCancelled  ImportStatus = "cancelled"
)

// IsTerminal reports whether s is one of completed/failed/cancelled, at
// which point the job is immutable except for observational fields.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportCompleted || s == ImportFailed || s == ImportCancelled
}

// ImportMode selects the batch execution strategy.
type ImportMode string

const (
	ImportPartial      ImportMode = "partial"
	ImportAllOrNothing ImportMode = "allOrNothing"
)

// ImportValidationError reports one per-row, per-field validation failure.
type ImportValidationError struct {
	RowNumber    int    `json:"rowNumber"`
	FieldName    string `json:"fieldName"`
	Description  string `json:"description"`
	Suggestion   string `json:"suggestion,omitempty"`
	CurrentValue string `json:"currentValue,omitempty"`
}

// ImportJob tracks one bulk-import upload through the pipeline.
type ImportJob struct {
	JobID          string       `json:"jobId" db:"job_id"`
	Filename       string       `json:"filename" db:"filename"`
	Status         ImportStatus `json:"status" db:"status"`
	TotalRows      int          `json:"totalRows" db:"total_rows"`
	ProcessedRows  int          `json:"processedRows" db:"processed_rows"`
	SuccessCount   int          `json:"successCount" db:"success_count"`
	ErrorCount     int          `json:"errorCount" db:"error_count"`
	ImportMode     ImportMode   `json:"importMode" db:"import_mode"`
	StartedAt      time.Time    `json:"startedAt" db:"started_at"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty" db:"completed_at"`
	ErrorReportRef string       `json:"errorReportRef,omitempty" db:"error_report_ref"`

	Errors []ImportValidationError `json:"errors,omitempty" db:"-"`
}

// SizeChart is a named table of size measurements a product or variation can
// be assigned, carried over from the original service's size-chart
// collection; the core exposes assign/unassign events for it (§6) even
// though its CRUD surface is an out-of-scope HTTP concern.
type SizeChart struct {
	ID        string            `json:"id" db:"id"`
	Name      string            `json:"name" db:"name"`
	Category  string            `json:"category,omitempty" db:"category"`
	Columns   []string          `json:"columns" db:"columns"`
	Rows      []map[string]string `json:"rows" db:"rows"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" db:"updated_at"`
}

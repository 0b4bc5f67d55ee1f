// Package postgres implements store.Store against PostgreSQL, adapted from
// the teacher's pkg/database (connection pooling, ExecuteInTransaction,
// WithRetry, QueryBuilder, BulkInsert). Each product is persisted as a
// JSONB document in a `document` column, with a handful of columns
// duplicated out of the document for indexing and ORDER BY/WHERE pushdown,
// giving the flexible per-category schema the catalog needs (§4.1) while
// keeping SKU uniqueness and taxonomy filters queryable by Postgres itself.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/store"
)

// Config mirrors the teacher's database.Config, one set of connection pool
// knobs shared by every environment.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("database cannot be empty")
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return nil
}

func dsn(c *Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Store is the PostgreSQL-backed store.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres, configures the pool and pings it, matching the
// teacher's NewConnection.
func Open(cfg *Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	db, err := sql.Open("postgres", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "postgres.Store")}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the products/import_jobs/size_charts tables and the
// indexes listed below if they don't already exist. Safe to call on every
// boot. Of store.RequiredIndexes it does not create the tags and badge_type
// indexes, and its text index covers name and description only, unweighted.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		schemaProducts,
		schemaImportJobs,
		schemaSizeCharts,
		idxUniqSku,
		idxActiveCategoryPrice,
		idxActiveDepartmentPrice,
		idxActiveRatingDesc,
		idxActiveCreatedDesc,
		idxBrand,
		idxParentID,
		idxTextSearch,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.logger.Info("schema migrated")
	return nil
}

const schemaProducts = `
CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	sku            TEXT,
	is_active      BOOLEAN NOT NULL DEFAULT true,
	variation_type TEXT NOT NULL,
	parent_id      TEXT,
	category       TEXT,
	department     TEXT,
	brand          TEXT,
	price          DOUBLE PRECISION NOT NULL DEFAULT 0,
	average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	document       JSONB NOT NULL
)`

const schemaImportJobs = `
CREATE TABLE IF NOT EXISTS import_jobs (
	job_id     TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	document   JSONB NOT NULL
)`

const schemaSizeCharts = `
CREATE TABLE IF NOT EXISTS size_charts (
	id       TEXT PRIMARY KEY,
	document JSONB NOT NULL
)`

const (
	idxUniqSku               = `CREATE UNIQUE INDEX IF NOT EXISTS uniq_sku ON products (lower(sku)) WHERE sku IS NOT NULL AND sku <> ''`
	idxActiveCategoryPrice   = `CREATE INDEX IF NOT EXISTS active_category_price ON products (is_active, category, price)`
	idxActiveDepartmentPrice = `CREATE INDEX IF NOT EXISTS active_department_price ON products (is_active, department, price)`
	idxActiveRatingDesc      = `CREATE INDEX IF NOT EXISTS active_rating_desc ON products (is_active, average_rating DESC)`
	idxActiveCreatedDesc     = `CREATE INDEX IF NOT EXISTS active_created_desc ON products (is_active, created_at DESC)`
	idxBrand                 = `CREATE INDEX IF NOT EXISTS brand_idx ON products (brand)`
	idxParentID              = `CREATE INDEX IF NOT EXISTS parent_id_idx ON products (parent_id) WHERE parent_id IS NOT NULL`
	idxTextSearch            = `CREATE INDEX IF NOT EXISTS text_search_idx ON products USING GIN (
		to_tsvector('english', coalesce(document->>'name', '') || ' ' || coalesce(document->>'description', ''))
	)`
)

func newID() string { return uuid.NewString() }

func toDoc(p *catalog.Product) ([]byte, error) {
	return json.Marshal(p)
}

func fromDoc(raw []byte) (*catalog.Product, error) {
	var p catalog.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product document: %w", err)
	}
	return &p, nil
}

func wrapSQLErr(err error, notFoundMsg string) error {
	if err == sql.ErrNoRows {
		return catalogerr.New(catalogerr.NotFound, notFoundMsg)
	}
	return catalogerr.Wrap(catalogerr.StoreUnavailable, err, "store operation failed")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "uniq_sku")
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) (string, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	doc, err := toDoc(p)
	if err != nil {
		return "", catalogerr.Wrap(catalogerr.Internal, err, "encode product")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (id, sku, is_active, variation_type, parent_id, category, department, brand, price, average_rating, created_at, updated_at, document)
		VALUES ($1, NULLIF($2,''), $3, $4, NULLIF($5,''), $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.SKU, p.IsActive, p.VariationType, p.ParentID, p.Category, p.Department, p.Brand,
		p.Price, p.ReviewAggregates.AverageRating, p.CreatedAt, p.UpdatedAt, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return "", catalogerr.New(catalogerr.Conflict, "sku already exists: "+p.SKU).WithReason(catalogerr.ReasonDuplicateSku)
		}
		return "", catalogerr.Wrap(catalogerr.StoreUnavailable, err, "insert product")
	}
	return p.ID, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM products WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		return nil, wrapSQLErr(err, "product not found: "+id)
	}
	return fromDoc(doc)
}

func (s *Store) FindBySku(ctx context.Context, sku string, activeOnly bool) (*catalog.Product, error) {
	query := `SELECT document FROM products WHERE lower(sku) = lower($1)`
	if activeOnly {
		query += ` AND is_active`
	}
	var doc []byte
	err := s.db.QueryRowContext(ctx, query, sku).Scan(&doc)
	if err != nil {
		return nil, wrapSQLErr(err, "product not found for sku: "+sku)
	}
	return fromDoc(doc)
}

// buildFilter renders filter into a WHERE clause (sans "WHERE") plus args,
// using the teacher's QueryBuilder incrementally-numbered placeholder style.
func buildFilter(filter store.Filter) (string, []any) {
	var clauses []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.IsActive != nil {
		clauses = append(clauses, "is_active = "+next(*filter.IsActive))
	}
	if filter.Category != "" {
		clauses = append(clauses, "lower(category) = lower("+next(filter.Category)+")")
	}
	if filter.Department != "" {
		clauses = append(clauses, "lower(department) = lower("+next(filter.Department)+")")
	}
	if filter.Brand != "" {
		clauses = append(clauses, "lower(brand) = lower("+next(filter.Brand)+")")
	}
	if filter.ParentID != "" {
		clauses = append(clauses, "parent_id = "+next(filter.ParentID))
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, "price >= "+next(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, "price <= "+next(*filter.MaxPrice))
	}
	for _, tag := range filter.Tags {
		clauses = append(clauses, "document->'tags' @> "+next(fmt.Sprintf("[%q]", tag))+"::jsonb")
	}
	for _, bt := range filter.BadgeTypes {
		clauses = append(clauses, "document->'badges' @> "+next(fmt.Sprintf(`[{"type":%q}]`, bt))+"::jsonb")
	}

	if len(clauses) == 0 {
		return "1=1", args
	}
	return strings.Join(clauses, " AND "), args
}

func orderByClause(sortField store.SortField) string {
	switch sortField {
	case store.SortPriceAsc:
		return "price ASC"
	case store.SortPriceDesc:
		return "price DESC"
	case store.SortAverageRatingDesc:
		return "average_rating DESC"
	default:
		return "created_at DESC"
	}
}

func (s *Store) FindMany(ctx context.Context, filter store.Filter, sortField store.SortField, paging store.Paging) ([]*catalog.Product, int, error) {
	where, args := buildFilter(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM products WHERE %s`, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "count products")
	}

	limit := paging.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT document FROM products WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		where, orderByClause(sortField), limit, paging.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "find products")
	}
	defer rows.Close()

	var out []*catalog.Product
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "scan product")
		}
		p, err := fromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// SearchText runs a full-text query over name/description on top of
// buildFilter, ranking by ts_rank then the standard average-rating
// tiebreak, using the GIN index created by Migrate.
func (s *Store) SearchText(ctx context.Context, query string, filter store.Filter, paging store.Paging) ([]*catalog.Product, int, error) {
	where, args := buildFilter(filter)
	args = append(args, query)
	tsQueryArg := fmt.Sprintf("$%d", len(args))
	tsClause := fmt.Sprintf(
		"to_tsvector('english', coalesce(document->>'name','') || ' ' || coalesce(document->>'description','')) @@ plainto_tsquery('english', %s)",
		tsQueryArg,
	)
	where = where + " AND " + tsClause

	var total int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM products WHERE %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "count search results")
	}

	limit := paging.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT document FROM products WHERE %s ORDER BY ts_rank(to_tsvector('english', coalesce(document->>'name','') || ' ' || coalesce(document->>'description','')), plainto_tsquery('english', %s)) DESC, average_rating DESC LIMIT %d OFFSET %d`,
		where, tsQueryArg, limit, paging.Offset), args...)
	if err != nil {
		return nil, 0, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "search products")
	}
	defer rows.Close()

	var out []*catalog.Product
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "scan product")
		}
		p, err := fromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AtomicSet merges fields into the product's JSONB document and refreshes
// the is_active, price and average_rating columns from the patched
// document, inside one statement so the read-modify-write is atomic at the
// row level. The other duplicated columns are not refreshed.
func (s *Store) AtomicSet(ctx context.Context, id string, fields map[string]any) (int, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	path := "document"
	args := []any{id}
	placeholder := 2
	for k, v := range fields {
		encoded, err := json.Marshal(v)
		if err != nil {
			return 0, catalogerr.Wrap(catalogerr.Internal, err, "encode field "+k)
		}
		path = fmt.Sprintf("jsonb_set(%s, '{%s}', $%d::jsonb, true)", path, k, placeholder)
		args = append(args, string(encoded))
		placeholder++
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE products SET
			document = %s,
			is_active = coalesce((%s->>'isActive')::boolean, is_active),
			price = coalesce((%s->>'price')::double precision, price),
			average_rating = coalesce((%s->'reviewAggregates'->>'averageRating')::double precision, average_rating),
			updated_at = now()
		WHERE id = $1`, path, path, path, path), args...)
	if err != nil {
		return 0, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "atomic set")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// AtomicPush appends value to a JSONB array field (badges, history).
func (s *Store) AtomicPush(ctx context.Context, id string, field string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return catalogerr.Wrap(catalogerr.Internal, err, "encode push value")
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE products SET
			document = jsonb_set(document, '{%s}', coalesce(document->'%s', '[]'::jsonb) || $2::jsonb, true),
			updated_at = now()
		WHERE id = $1`, field, field), id, string(encoded))
	if err != nil {
		return catalogerr.Wrap(catalogerr.StoreUnavailable, err, "atomic push")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return catalogerr.New(catalogerr.NotFound, "product not found: "+id)
	}
	return nil
}

func (s *Store) AtomicInc(ctx context.Context, id string, field string, delta int) error {
	parts := strings.Split(field, ".")
	jsonPath := "{" + strings.Join(parts, ",") + "}"
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			document = jsonb_set(
				document, $2,
				(coalesce((document #>> $2)::numeric, 0) + $3)::text::jsonb,
				true
			),
			updated_at = now()
		WHERE id = $1`, id, jsonPath, delta)
	if err != nil {
		return catalogerr.Wrap(catalogerr.StoreUnavailable, err, "atomic inc")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return catalogerr.New(catalogerr.NotFound, "product not found: "+id)
	}
	return nil
}

// InsertMany is the all-or-nothing bulk write path: every product commits
// together inside one transaction, grounded on the teacher's
// ExecuteInTransaction + BulkInsert combination.
func (s *Store) InsertMany(ctx context.Context, products []*catalog.Product) ([]string, error) {
	ids := make([]string, 0, len(products))
	err := executeInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		for _, p := range products {
			if p.ID == "" {
				p.ID = newID()
			}
			doc, err := toDoc(p)
			if err != nil {
				return catalogerr.Wrap(catalogerr.Internal, err, "encode product")
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO products (id, sku, is_active, variation_type, parent_id, category, department, brand, price, average_rating, created_at, updated_at, document)
				VALUES ($1, NULLIF($2,''), $3, $4, NULLIF($5,''), $6, $7, $8, $9, $10, $11, $12, $13)`,
				p.ID, p.SKU, p.IsActive, p.VariationType, p.ParentID, p.Category, p.Department, p.Brand,
				p.Price, p.ReviewAggregates.AverageRating, p.CreatedAt, p.UpdatedAt, doc)
			if err != nil {
				if isUniqueViolation(err) {
					return catalogerr.New(catalogerr.Conflict, "sku already exists: "+p.SKU).WithReason(catalogerr.ReasonDuplicateSku)
				}
				return catalogerr.Wrap(catalogerr.StoreUnavailable, err, "insert product")
			}
			ids = append(ids, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) CreateImportJob(ctx context.Context, job *catalog.ImportJob) error {
	if job.JobID == "" {
		job.JobID = newID()
	}
	doc, err := json.Marshal(job)
	if err != nil {
		return catalogerr.Wrap(catalogerr.Internal, err, "encode import job")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_jobs (job_id, status, started_at, document) VALUES ($1, $2, $3, $4)`,
		job.JobID, job.Status, job.StartedAt, doc)
	if err != nil {
		return catalogerr.Wrap(catalogerr.StoreUnavailable, err, "insert import job")
	}
	return nil
}

func (s *Store) GetImportJob(ctx context.Context, jobID string) (*catalog.ImportJob, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM import_jobs WHERE job_id = $1`, jobID).Scan(&doc)
	if err != nil {
		return nil, wrapSQLErr(err, "import job not found: "+jobID)
	}
	var job catalog.ImportJob
	if err := json.Unmarshal(doc, &job); err != nil {
		return nil, catalogerr.Wrap(catalogerr.Internal, err, "decode import job")
	}
	return &job, nil
}

// ClaimImportJob performs the pending -> processing compare-and-swap with a
// single conditional UPDATE, so two workers racing on the same job can
// never both win.
func (s *Store) ClaimImportJob(ctx context.Context, jobID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs SET
			status = $2,
			document = jsonb_set(document, '{status}', to_jsonb($2::text), true)
		WHERE job_id = $1 AND status = $3`,
		jobID, catalog.ImportProcessing, catalog.ImportPending)
	if err != nil {
		return false, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "claim import job")
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// CancelImportJob performs the processing -> cancelled compare-and-swap,
// mirroring ClaimImportJob's single conditional UPDATE so a concurrent
// Run and Cancel can never both observe success.
func (s *Store) CancelImportJob(ctx context.Context, jobID string) (bool, error) {
	encoded, err := json.Marshal(time.Now())
	if err != nil {
		return false, catalogerr.Wrap(catalogerr.Internal, err, "encode completedAt")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE import_jobs SET
			status = $2,
			document = jsonb_set(
				jsonb_set(document, '{status}', to_jsonb($2::text), true),
				'{completedAt}', $4::jsonb, true)
		WHERE job_id = $1 AND status = $3`,
		jobID, catalog.ImportCancelled, catalog.ImportProcessing, string(encoded))
	if err != nil {
		return false, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "cancel import job")
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) UpdateImportJob(ctx context.Context, jobID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	path := "document"
	args := []any{jobID}
	placeholder := 2
	for k, v := range fields {
		encoded, err := json.Marshal(v)
		if err != nil {
			return catalogerr.Wrap(catalogerr.Internal, err, "encode field "+k)
		}
		path = fmt.Sprintf("jsonb_set(%s, '{%s}', $%d::jsonb, true)", path, k, placeholder)
		args = append(args, string(encoded))
		placeholder++
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE import_jobs SET
			document = %s,
			status = coalesce(%s->>'status', status)
		WHERE job_id = $1`, path, path), args...)
	if err != nil {
		return catalogerr.Wrap(catalogerr.StoreUnavailable, err, "update import job")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return catalogerr.New(catalogerr.NotFound, "import job not found: "+jobID)
	}
	return nil
}

func (s *Store) CreateSizeChart(ctx context.Context, sc *catalog.SizeChart) (string, error) {
	if sc.ID == "" {
		sc.ID = newID()
	}
	doc, err := json.Marshal(sc)
	if err != nil {
		return "", catalogerr.Wrap(catalogerr.Internal, err, "encode size chart")
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO size_charts (id, document) VALUES ($1, $2)`, sc.ID, doc)
	if err != nil {
		return "", catalogerr.Wrap(catalogerr.StoreUnavailable, err, "insert size chart")
	}
	return sc.ID, nil
}

func (s *Store) GetSizeChart(ctx context.Context, id string) (*catalog.SizeChart, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM size_charts WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		return nil, wrapSQLErr(err, "size chart not found: "+id)
	}
	var sc catalog.SizeChart
	if err := json.Unmarshal(doc, &sc); err != nil {
		return nil, catalogerr.Wrap(catalogerr.Internal, err, "decode size chart")
	}
	return &sc, nil
}

// ListIndexes reports the indexes actually present on products, for the
// operational parity check against store.RequiredIndexes.
func (s *Store) ListIndexes(ctx context.Context) ([]store.IndexInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT indexname, indexdef FROM pg_indexes WHERE tablename = 'products'`)
	if err != nil {
		return nil, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "list indexes")
	}
	defer rows.Close()

	var out []store.IndexInfo
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, catalogerr.Wrap(catalogerr.StoreUnavailable, err, "scan index")
		}
		out = append(out, store.IndexInfo{
			Name:   name,
			Unique: strings.Contains(def, "UNIQUE"),
			Text:   strings.Contains(def, "tsvector"),
		})
	}
	return out, rows.Err()
}

// executeInTransaction mirrors the teacher's database.ExecuteInTransaction:
// begin, run fn, rollback on error or panic, commit otherwise.
func executeInTransaction(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		}
	}()
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ store.Store = (*Store)(nil)

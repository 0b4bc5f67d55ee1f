// Package memstore is an in-process store.Store used by engine unit tests,
// grounded on the teacher's pkg/testutil/mocks fakes: a map-backed
// substitute that implements the real Store contract instead of recording
// call expectations, since the projection/badge/variation/bulkimport
// engines exercise real read-modify-write semantics.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/store"
)

// Store is a goroutine-safe in-memory implementation of store.Store.
type Store struct {
	mu sync.Mutex

	products   map[string]*catalog.Product
	skuIndex   map[string]string // normalized sku -> product id
	importJobs map[string]*catalog.ImportJob
	sizeCharts map[string]*catalog.SizeChart
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		products:   make(map[string]*catalog.Product),
		skuIndex:   make(map[string]string),
		importJobs: make(map[string]*catalog.ImportJob),
		sizeCharts: make(map[string]*catalog.SizeChart),
	}
}

func clone(p *catalog.Product) *catalog.Product {
	cp := *p
	return &cp
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SKU != "" {
		key := strings.ToLower(p.SKU)
		if _, exists := s.skuIndex[key]; exists {
			return "", catalogerr.New(catalogerr.Conflict, "sku already exists: "+p.SKU).WithReason(catalogerr.ReasonDuplicateSku)
		}
		s.skuIndex[key] = p.ID
	}
	s.products[p.ID] = clone(p)
	return p.ID, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalogerr.New(catalogerr.NotFound, "product not found: "+id)
	}
	return clone(p), nil
}

func (s *Store) FindBySku(ctx context.Context, sku string, activeOnly bool) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.skuIndex[strings.ToLower(sku)]
	if !ok {
		return nil, catalogerr.New(catalogerr.NotFound, "product not found for sku: "+sku)
	}
	p := s.products[id]
	if activeOnly && !p.IsActive {
		return nil, catalogerr.New(catalogerr.NotFound, "product not found for sku: "+sku)
	}
	return clone(p), nil
}

func matches(p *catalog.Product, f store.Filter) bool {
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Department != "" && !strings.EqualFold(p.Department, f.Department) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	if f.ParentID != "" && p.ParentID != f.ParentID {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	for _, tag := range f.Tags {
		found := false
		for _, pt := range p.Tags {
			if strings.EqualFold(pt, tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, bt := range f.BadgeTypes {
		found := false
		for _, b := range p.Badges {
			if b.Type == bt {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortProducts(products []*catalog.Product, sortField store.SortField) {
	switch sortField {
	case store.SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case store.SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	case store.SortAverageRatingDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].ReviewAggregates.AverageRating > products[j].ReviewAggregates.AverageRating
		})
	default: // SortCreatedAtDesc
		sort.SliceStable(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	}
}

func (s *Store) FindMany(ctx context.Context, filter store.Filter, sortField store.SortField, paging store.Paging) ([]*catalog.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*catalog.Product
	for _, p := range s.products {
		if matches(p, filter) {
			all = append(all, clone(p))
		}
	}
	sortProducts(all, sortField)
	total := len(all)
	return page(all, paging), total, nil
}

func (s *Store) SearchText(ctx context.Context, query string, filter store.Filter, paging store.Paging) ([]*catalog.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var all []*catalog.Product
	for _, p := range s.products {
		if !matches(p, filter) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			match := false
			for _, kw := range p.SearchKeywords {
				if strings.Contains(strings.ToLower(kw), q) {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		all = append(all, clone(p))
	}
	sortProducts(all, store.SortAverageRatingDesc)
	total := len(all)
	return page(all, paging), total, nil
}

func page(all []*catalog.Product, paging store.Paging) []*catalog.Product {
	if paging.Offset >= len(all) {
		return nil
	}
	end := len(all)
	if paging.Limit > 0 && paging.Offset+paging.Limit < end {
		end = paging.Offset + paging.Limit
	}
	return all[paging.Offset:end]
}

// AtomicSet applies a flat field=value patch, returning the modified count
// (0 or 1), mirroring a single-document updateOne per §4.1.
func (s *Store) AtomicSet(ctx context.Context, id string, fields map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return 0, catalogerr.New(catalogerr.NotFound, "product not found: "+id)
	}
	applyFields(p, fields)
	return 1, nil
}

// AtomicPush appends value to a list-valued field (badges or history), the
// two append-only slices engines append to outside of AtomicSet.
func (s *Store) AtomicPush(ctx context.Context, id string, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return catalogerr.New(catalogerr.NotFound, "product not found: "+id)
	}
	switch field {
	case "badges":
		b, ok := value.(catalog.Badge)
		if !ok {
			return catalogerr.New(catalogerr.Validation, "value is not a Badge")
		}
		p.Badges = append(p.Badges, b)
	case "history":
		h, ok := value.(catalog.HistoryEntry)
		if !ok {
			return catalogerr.New(catalogerr.Validation, "value is not a HistoryEntry")
		}
		p.History = append(p.History, h)
	default:
		return catalogerr.New(catalogerr.Internal, "unsupported push field: "+field)
	}
	return nil
}

// AtomicInc increments a numeric counter field by delta (negative allowed).
func (s *Store) AtomicInc(ctx context.Context, id string, field string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return catalogerr.New(catalogerr.NotFound, "product not found: "+id)
	}
	switch field {
	case "salesMetrics.last30Days.units":
		p.SalesMetrics.Last30Days.Units += delta
	case "viewMetrics.viewsLast7Days":
		p.ViewMetrics.ViewsLast7Days += delta
	case "qaStats.totalQuestions":
		p.QAStats.TotalQuestions += delta
	case "qaStats.answeredQuestions":
		p.QAStats.AnsweredQuestions += delta
	case "availabilityStatus.availableQuantity":
		p.AvailabilityStatus.AvailableQuantity += delta
	case "variationCount":
		p.VariationCount += delta
	default:
		return catalogerr.New(catalogerr.Internal, "unsupported inc field: "+field)
	}
	return nil
}

func (s *Store) InsertMany(ctx context.Context, products []*catalog.Product) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if p.SKU != "" {
			if _, exists := s.skuIndex[strings.ToLower(p.SKU)]; exists {
				return nil, catalogerr.New(catalogerr.Conflict, "sku already exists: "+p.SKU).WithReason(catalogerr.ReasonDuplicateSku)
			}
		}
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.SKU != "" {
			s.skuIndex[strings.ToLower(p.SKU)] = p.ID
		}
		s.products[p.ID] = clone(p)
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *Store) CreateImportJob(ctx context.Context, job *catalog.ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	cp := *job
	s.importJobs[job.JobID] = &cp
	return nil
}

func (s *Store) GetImportJob(ctx context.Context, jobID string) (*catalog.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.importJobs[jobID]
	if !ok {
		return nil, catalogerr.New(catalogerr.NotFound, "import job not found: "+jobID)
	}
	cp := *j
	return &cp, nil
}

// ClaimImportJob atomically transitions a pending job to processing,
// returning false if it was already claimed (pending -> processing CAS).
func (s *Store) ClaimImportJob(ctx context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.importJobs[jobID]
	if !ok {
		return false, catalogerr.New(catalogerr.NotFound, "import job not found: "+jobID)
	}
	if j.Status != catalog.ImportPending {
		return false, nil
	}
	j.Status = catalog.ImportProcessing
	return true, nil
}

// CancelImportJob atomically transitions a processing job to cancelled,
// returning false if it was not in processing (e.g. already terminal).
func (s *Store) CancelImportJob(ctx context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.importJobs[jobID]
	if !ok {
		return false, catalogerr.New(catalogerr.NotFound, "import job not found: "+jobID)
	}
	if j.Status != catalog.ImportProcessing {
		return false, nil
	}
	now := time.Now()
	j.Status = catalog.ImportCancelled
	j.CompletedAt = &now
	return true, nil
}

func (s *Store) UpdateImportJob(ctx context.Context, jobID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.importJobs[jobID]
	if !ok {
		return catalogerr.New(catalogerr.NotFound, "import job not found: "+jobID)
	}
	applyImportJobFields(j, fields)
	return nil
}

func (s *Store) CreateSizeChart(ctx context.Context, sc *catalog.SizeChart) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	cp := *sc
	s.sizeCharts[sc.ID] = &cp
	return sc.ID, nil
}

func (s *Store) GetSizeChart(ctx context.Context, id string) (*catalog.SizeChart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.sizeCharts[id]
	if !ok {
		return nil, catalogerr.New(catalogerr.NotFound, "size chart not found: "+id)
	}
	cp := *sc
	return &cp, nil
}

func (s *Store) ListIndexes(ctx context.Context) ([]store.IndexInfo, error) {
	return store.RequiredIndexes(), nil
}

var _ store.Store = (*Store)(nil)

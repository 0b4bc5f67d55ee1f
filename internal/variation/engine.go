// Package variation is the Variation Engine (component C5): it models
// parent products with N children, enforces the attribute-tuple uniqueness
// and taxonomy-inheritance invariants, and assembles the unified
// parent+matrix view.
package variation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/publisher"
	"github.com/aioutlet/product-catalog-core/internal/store"
)

// MaxChildren bounds a single createParentWithChildren call (§4.5: supports
// 1-1,000 children).
const MaxChildren = 1000

// Engine owns the parent/child product model.
type Engine struct {
	store     store.Store
	publisher *publisher.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New builds a Variation Engine around the shared store and publisher.
func New(st store.Store, pub *publisher.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, publisher: pub, logger: logger.With("component", "variation"), now: time.Now}
}

func checkMutualUniqueness(children []*catalog.Product) error {
	skus := make(map[string]struct{}, len(children))
	tuples := make(map[string]struct{}, len(children))
	for _, c := range children {
		if c.SKU != "" {
			key := strings.ToLower(c.SKU)
			if _, dup := skus[key]; dup {
				return catalogerr.New(catalogerr.Validation, "duplicate sku within child set: "+c.SKU)
			}
			skus[key] = struct{}{}
		}
		tuple := catalog.NormalizedAttributeTuple(c.VariantAttributes)
		if _, dup := tuples[tuple]; dup {
			return catalogerr.New(catalogerr.Conflict, "duplicate variant attribute tuple within child set").WithReason(catalogerr.ReasonDuplicateAttributeTuple)
		}
		tuples[tuple] = struct{}{}
	}
	return nil
}

func (e *Engine) checkTupleUniqueAgainstExisting(ctx context.Context, parentID, tuple string, excludeChildID string) error {
	siblings, _, err := e.store.FindMany(ctx, store.Filter{ParentID: parentID, IsActive: boolPtr(true)}, store.SortCreatedAtDesc, store.Paging{})
	if err != nil {
		return err
	}
	for _, s := range siblings {
		if s.ID == excludeChildID {
			continue
		}
		if s.AttributeTupleKey() == tuple {
			return catalogerr.New(catalogerr.Conflict, "variant attribute tuple already used by a sibling").WithReason(catalogerr.ReasonDuplicateAttributeTuple)
		}
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

func inheritTaxonomy(child *catalog.Product, parent *catalog.Product) {
	child.Department = parent.Department
	child.Category = parent.Category
	child.Subcategory = parent.Subcategory
	child.Brand = parent.Brand
	child.ParentID = parent.ID
	child.VariationType = catalog.Child
	child.IsActive = true
}

// CreateParentWithChildren validates the full batch, then inserts the
// parent followed by every child, each carrying its inherited taxonomy
// fields (invariant 4). All-or-nothing: if any validation fails, nothing
// is written.
func (e *Engine) CreateParentWithChildren(ctx context.Context, parent *catalog.Product, children []*catalog.Product, creator string) (string, []string, error) {
	if len(children) == 0 {
		return "", nil, catalogerr.New(catalogerr.Validation, "at least one child is required")
	}
	if len(children) > MaxChildren {
		return "", nil, catalogerr.New(catalogerr.Validation, fmt.Sprintf("at most %d children supported", MaxChildren))
	}
	if err := checkMutualUniqueness(children); err != nil {
		return "", nil, err
	}

	parent.VariationType = catalog.Parent
	parent.ParentID = ""
	parent.VariationCount = len(children)
	parent.CreatedBy = creator
	parent.UpdatedBy = creator
	now := e.now()
	parent.CreatedAt, parent.UpdatedAt = now, now
	if err := parent.Validate(); err != nil {
		return "", nil, catalogerr.Wrap(catalogerr.Validation, err, "parent")
	}

	parentID, err := e.store.CreateProduct(ctx, parent)
	if err != nil {
		return "", nil, err
	}

	for _, c := range children {
		inheritTaxonomy(c, parent)
		c.CreatedBy, c.UpdatedBy = creator, creator
		c.CreatedAt, c.UpdatedAt = now, now
		if err := c.Validate(); err != nil {
			return parentID, nil, catalogerr.Wrap(catalogerr.Validation, err, "child "+c.SKU)
		}
	}

	childIDs, err := e.store.InsertMany(ctx, children)
	if err != nil {
		return parentID, nil, err
	}

	for _, id := range childIDs {
		e.publisher.VariationCreated(ctx, parentID, []string{id})
	}
	return parentID, childIDs, nil
}

// AddChild validates child against the existing active siblings and
// inserts it, incrementing the parent's variationCount.
func (e *Engine) AddChild(ctx context.Context, parentID string, child *catalog.Product, creator string) (string, error) {
	parent, err := e.store.GetProduct(ctx, parentID)
	if err != nil {
		return "", err
	}
	if parent.VariationType != catalog.Parent {
		return "", catalogerr.New(catalogerr.Validation, "target product is not a parent")
	}

	inheritTaxonomy(child, parent)
	tuple := catalog.NormalizedAttributeTuple(child.VariantAttributes)
	if err := e.checkTupleUniqueAgainstExisting(ctx, parentID, tuple, ""); err != nil {
		return "", err
	}
	now := e.now()
	child.CreatedBy, child.UpdatedBy = creator, creator
	child.CreatedAt, child.UpdatedAt = now, now
	if err := child.Validate(); err != nil {
		return "", catalogerr.Wrap(catalogerr.Validation, err, "child")
	}

	childID, err := e.store.CreateProduct(ctx, child)
	if err != nil {
		return "", err
	}
	if err := e.store.AtomicInc(ctx, parentID, "variationCount", 1); err != nil {
		e.logger.Error("failed to increment variationCount", "parentId", parentID, "error", err)
	}
	e.publisher.VariationCreated(ctx, parentID, []string{childID})
	return childID, nil
}

// childMutableFields is the restricted set updateChild may touch (§4.5).
var childMutableFields = map[string]struct{}{
	"name": {}, "price": {}, "images": {}, "description": {},
	"variantAttributes": {}, "specifications": {}, "tags": {}, "isActive": {},
}

// UpdateChild applies fields to a child product, restricted to
// child-scoped attributes; renaming variantAttributes re-checks the
// uniqueness invariant.
func (e *Engine) UpdateChild(ctx context.Context, childID string, fields map[string]any, actor string) error {
	for k := range fields {
		if _, ok := childMutableFields[k]; !ok {
			return catalogerr.New(catalogerr.Validation, "field not updatable on a child: "+k)
		}
	}
	child, err := e.store.GetProduct(ctx, childID)
	if err != nil {
		return err
	}
	if child.VariationType != catalog.Child {
		return catalogerr.New(catalogerr.Validation, "target product is not a child")
	}

	if rawAttrs, ok := fields["variantAttributes"]; ok {
		attrs, ok := rawAttrs.([]catalog.VariantAttribute)
		if !ok {
			return catalogerr.New(catalogerr.Validation, "variantAttributes must be a []VariantAttribute")
		}
		tuple := catalog.NormalizedAttributeTuple(attrs)
		if err := e.checkTupleUniqueAgainstExisting(ctx, child.ParentID, tuple, childID); err != nil {
			return err
		}
	}

	now := e.now()
	fields["updatedAt"] = now
	fields["updatedBy"] = actor
	if _, err := e.store.AtomicSet(ctx, childID, fields); err != nil {
		return err
	}
	if err := e.store.AtomicPush(ctx, childID, "history", catalog.HistoryEntry{Actor: actor, Timestamp: now, Changes: fields}); err != nil {
		e.logger.Error("failed to append history", "productId", childID, "error", err)
	}
	e.publisher.VariationUpdated(ctx, childID, fields)
	return nil
}

// DeleteChild soft-deletes a child and decrements the parent's
// variationCount.
func (e *Engine) DeleteChild(ctx context.Context, childID string, actor string) error {
	child, err := e.store.GetProduct(ctx, childID)
	if err != nil {
		return err
	}
	if child.VariationType != catalog.Child {
		return catalogerr.New(catalogerr.Validation, "target product is not a child")
	}
	now := e.now()
	if _, err := e.store.AtomicSet(ctx, childID, map[string]any{
		"isActive": false, "updatedAt": now, "updatedBy": actor,
	}); err != nil {
		return err
	}
	if err := e.store.AtomicInc(ctx, child.ParentID, "variationCount", -1); err != nil {
		e.logger.Error("failed to decrement variationCount", "parentId", child.ParentID, "error", err)
	}
	e.publisher.VariationDeleted(ctx, childID)
	return nil
}

// AssignSizeChart attaches a size chart to a product, verifying the chart
// exists before recording the reference (§12: size chart assignment is a
// thin foreign-key attachment, not a first-class component).
func (e *Engine) AssignSizeChart(ctx context.Context, productID, sizeChartID, actor string) error {
	if _, err := e.store.GetSizeChart(ctx, sizeChartID); err != nil {
		return err
	}
	if _, err := e.store.AtomicSet(ctx, productID, map[string]any{
		"sizeChartId": sizeChartID, "updatedAt": e.now(), "updatedBy": actor,
	}); err != nil {
		return err
	}
	e.publisher.SizeChartAssigned(ctx, productID, sizeChartID)
	return nil
}

// UnassignSizeChart clears a product's size chart reference.
func (e *Engine) UnassignSizeChart(ctx context.Context, productID, actor string) error {
	product, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	previous := product.SizeChartID
	if previous == "" {
		return nil
	}
	if _, err := e.store.AtomicSet(ctx, productID, map[string]any{
		"sizeChartId": "", "updatedAt": e.now(), "updatedBy": actor,
	}); err != nil {
		return err
	}
	e.publisher.SizeChartUnassigned(ctx, productID, previous)
	return nil
}

// MatrixEntry is one row of a parent's variation matrix.
type MatrixEntry struct {
	ProductID  string
	SKU        string
	Attributes map[string]string
	Price      float64
	Available  bool
	Images     []string
}

// ParentView is the unified parent-plus-children view.
type ParentView struct {
	Parent *catalog.Product
	Matrix []MatrixEntry
}

func toMatrixEntry(c *catalog.Product) MatrixEntry {
	attrs := make(map[string]string, len(c.VariantAttributes))
	for _, a := range c.VariantAttributes {
		attrs[a.Name] = a.Value
	}
	return MatrixEntry{
		ProductID:  c.ID,
		SKU:        c.SKU,
		Attributes: attrs,
		Price:      c.Price,
		Available:  c.AvailabilityStatus.State != catalog.OutOfStock,
		Images:     c.Images,
	}
}

// GetParentView returns the parent fields plus its variation matrix.
func (e *Engine) GetParentView(ctx context.Context, parentID string) (*ParentView, error) {
	parent, err := e.store.GetProduct(ctx, parentID)
	if err != nil {
		return nil, err
	}
	children, _, err := e.store.FindMany(ctx, store.Filter{ParentID: parentID, IsActive: boolPtr(true)}, store.SortCreatedAtDesc, store.Paging{})
	if err != nil {
		return nil, err
	}
	matrix := make([]MatrixEntry, len(children))
	for i, c := range children {
		matrix[i] = toMatrixEntry(c)
	}
	return &ParentView{Parent: parent, Matrix: matrix}, nil
}

// FilterChildren returns the matrix entries whose attributes match every
// constraint (exact match, case-insensitive).
func (e *Engine) FilterChildren(ctx context.Context, parentID string, constraints map[string]string) ([]MatrixEntry, error) {
	view, err := e.GetParentView(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if len(constraints) == 0 {
		return view.Matrix, nil
	}
	var out []MatrixEntry
	for _, entry := range view.Matrix {
		if matchesConstraints(entry.Attributes, constraints) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func matchesConstraints(attrs map[string]string, constraints map[string]string) bool {
	for name, want := range constraints {
		var found bool
		for attrName, attrValue := range attrs {
			if strings.EqualFold(attrName, name) && strings.EqualFold(attrValue, want) {
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

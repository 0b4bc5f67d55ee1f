// Package projection is the Projection Engine (component C3): it applies
// inbound upstream events to the denormalized fields on a product,
// idempotently per §4.3. Each handler resolves its target product, mutates
// the relevant projection, and writes back through a single atomicSet (or
// atomicInc for the Q&A counters) so a given field is never corrupted by a
// half-applied update.
//
// The review and inventory handlers read the current aggregate, recompute it
// in memory, then AtomicSet it back (§4.3's caution against read-modify-
// write): two events against the same product's same field racing between
// the read and the write can lose one update, since AtomicSet replaces the
// field wholesale rather than incrementing it. The per-topic dedup set
// covers redelivery (invariants 5-6 hold for retried events), not this
// concurrent-distinct-event race; AtomicInc is used instead wherever the
// update is a true increment (qaStats) for exactly this reason.
package projection

import (
	"context"
	"log/slog"
	"time"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/dedup"
	"github.com/aioutlet/product-catalog-core/internal/eventcatalog"
	"github.com/aioutlet/product-catalog-core/internal/publisher"
	"github.com/aioutlet/product-catalog-core/internal/store"
)

// BadgeEvaluator is the subset of the Badge Rule Engine the Projection
// Engine depends on, to avoid an import cycle between the two components:
// sales/view metric updates re-evaluate badge rules for the product they
// touch (§4.3).
type BadgeEvaluator interface {
	EvaluateProduct(ctx context.Context, productID string, badgeTypes []catalog.BadgeType) error
}

// Engine hosts one handler per inbound topic.
type Engine struct {
	store     store.Store
	publisher *publisher.Publisher
	badges    BadgeEvaluator
	logger    *slog.Logger
	now       func() time.Time

	// seen is a per-topic dedup log; see internal/dedup for the chosen
	// (process-local, best-effort) strategy for the spec's open
	// deduplication question.
	seen map[string]*dedup.Set
}

// New builds a Projection Engine. badges may be nil if no badge engine is
// wired yet (sales/views updates then only cache the metrics).
func New(st store.Store, pub *publisher.Publisher, badges BadgeEvaluator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:     st,
		publisher: pub,
		badges:    badges,
		logger:    logger.With("component", "projection"),
		now:       time.Now,
		seen:      make(map[string]*dedup.Set),
	}
	for _, topic := range eventcatalog.InboundTopics {
		e.seen[topic] = dedup.NewSet(10000)
	}
	return e
}

// dedupe reports whether (topic, eventID) was already handled.
func (e *Engine) dedupe(topic, eventID string) bool {
	s, ok := e.seen[topic]
	if !ok {
		return false
	}
	return s.SeenOrAdd(eventID)
}

// resolveTarget finds the product an event applies to, by productId then
// sku. Per §4.3, an event that resolves to no product is logged and
// treated as successfully delivered — it is never queued for replay.
func (e *Engine) resolveTarget(ctx context.Context, productID, sku string) (*catalog.Product, bool) {
	if productID != "" {
		p, err := e.store.GetProduct(ctx, productID)
		if err == nil {
			return p, true
		}
		if catalogerr.KindOf(err) != catalogerr.NotFound {
			e.logger.Error("lookup by productId failed", "productId", productID, "error", err)
			return nil, false
		}
	}
	if sku != "" {
		p, err := e.store.FindBySku(ctx, sku, false)
		if err == nil {
			return p, true
		}
		if catalogerr.KindOf(err) != catalogerr.NotFound {
			e.logger.Error("lookup by sku failed", "sku", sku, "error", err)
			return nil, false
		}
	}
	e.logger.Info("event target not found, dropping as delivered", "productId", productID, "sku", sku)
	return nil, false
}

// HandleReviewCreated implements review.created.
func (e *Engine) HandleReviewCreated(ctx context.Context, eventID string, data eventcatalog.ReviewCreatedData) error {
	if e.dedupe(eventcatalog.TopicReviewCreated, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	agg := p.ReviewAggregates
	agg.ApplyAdd(data.Rating, data.VerifiedPurchase)
	_, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"reviewAggregates": agg})
	return err
}

// HandleReviewUpdated implements review.updated.
func (e *Engine) HandleReviewUpdated(ctx context.Context, eventID string, data eventcatalog.ReviewUpdatedData) error {
	if e.dedupe(eventcatalog.TopicReviewUpdated, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	agg := p.ReviewAggregates
	agg.ApplyUpdate(data.OldRating, data.Rating, data.VerifiedPurchase)
	_, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"reviewAggregates": agg})
	return err
}

// HandleReviewDeleted implements review.deleted.
func (e *Engine) HandleReviewDeleted(ctx context.Context, eventID string, data eventcatalog.ReviewDeletedData) error {
	if e.dedupe(eventcatalog.TopicReviewDeleted, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	agg := p.ReviewAggregates
	agg.ApplyDelete(data.Rating, data.VerifiedPurchase)
	_, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"reviewAggregates": agg})
	return err
}

// HandleInventoryStockUpdated implements inventory.stock.updated, emitting
// product.back.in.stock on the outOfStock -> (inStock|lowStock) transition.
func (e *Engine) HandleInventoryStockUpdated(ctx context.Context, eventID string, data eventcatalog.InventoryStockUpdatedData) error {
	if e.dedupe(eventcatalog.TopicInventoryStockUpdated, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, data.SKU)
	if !ok {
		return nil
	}
	status := p.AvailabilityStatus
	backInStock := status.Recompute(data.AvailableQuantity, data.LowStockThreshold, e.now())
	if _, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"availabilityStatus": status}); err != nil {
		return err
	}
	if backInStock && e.publisher != nil {
		e.publisher.ProductBackInStock(ctx, p.ID, status.AvailableQuantity)
	}
	return nil
}

// HandleQuestionCreated implements product.question.created.
func (e *Engine) HandleQuestionCreated(ctx context.Context, eventID string, data eventcatalog.QuestionCreatedData) error {
	if e.dedupe(eventcatalog.TopicQuestionCreated, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	return e.store.AtomicInc(ctx, p.ID, "qaStats.totalQuestions", 1)
}

// HandleAnswerCreated implements product.answer.created.
func (e *Engine) HandleAnswerCreated(ctx context.Context, eventID string, data eventcatalog.AnswerCreatedData) error {
	if e.dedupe(eventcatalog.TopicAnswerCreated, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	return e.store.AtomicInc(ctx, p.ID, "qaStats.answeredQuestions", 1)
}

// HandleQuestionDeleted implements product.question.deleted, clamping at 0.
func (e *Engine) HandleQuestionDeleted(ctx context.Context, eventID string, data eventcatalog.QuestionDeletedData) error {
	if e.dedupe(eventcatalog.TopicQuestionDeleted, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	if p.QAStats.TotalQuestions <= 0 {
		return nil
	}
	return e.store.AtomicInc(ctx, p.ID, "qaStats.totalQuestions", -1)
}

var bestSellerAndTrending = []catalog.BadgeType{catalog.BadgeBestSeller, catalog.BadgeTrending}
var trendingOnly = []catalog.BadgeType{catalog.BadgeTrending}

// HandleSalesUpdated implements analytics.product.sales.updated, caching
// the metrics and re-evaluating {bestSeller, trending} rules.
func (e *Engine) HandleSalesUpdated(ctx context.Context, eventID string, data eventcatalog.AnalyticsSalesUpdatedData) error {
	if e.dedupe(eventcatalog.TopicAnalyticsSalesUpdated, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	metrics := catalog.SalesMetrics{
		Last30Days:   catalog.SalesPeriod{Units: data.SalesLast30Days},
		CategoryRank: data.CategoryRank,
	}
	if _, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"salesMetrics": metrics}); err != nil {
		return err
	}
	if e.badges != nil {
		if err := e.badges.EvaluateProduct(ctx, p.ID, bestSellerAndTrending); err != nil {
			e.logger.Error("badge re-evaluation after sales update failed", "productId", p.ID, "error", err)
		}
	}
	return nil
}

// HandleViewsUpdated implements analytics.product.views.updated, caching
// the metrics and re-evaluating {trending}.
func (e *Engine) HandleViewsUpdated(ctx context.Context, eventID string, data eventcatalog.AnalyticsViewsUpdatedData) error {
	if e.dedupe(eventcatalog.TopicAnalyticsViewsUpdated, eventID) {
		return nil
	}
	p, ok := e.resolveTarget(ctx, data.ProductID, "")
	if !ok {
		return nil
	}
	metrics := catalog.ViewMetrics{
		ViewsLast7Days:  data.ViewsLast7Days,
		ViewsPrior7Days: data.ViewsPrior7Days,
	}
	if _, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"viewMetrics": metrics}); err != nil {
		return err
	}
	if e.badges != nil {
		if err := e.badges.EvaluateProduct(ctx, p.ID, trendingOnly); err != nil {
			e.logger.Error("badge re-evaluation after views update failed", "productId", p.ID, "error", err)
		}
	}
	return nil
}

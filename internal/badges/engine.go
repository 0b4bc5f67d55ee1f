package badges

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aioutlet/product-catalog-core/internal/catalog"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/publisher"
	"github.com/aioutlet/product-catalog-core/internal/store"
)

// scanBatchSize bounds how many products the engine pulls per FindMany call
// when scanning the whole catalog (evaluateRules, removeExpiredBadges,
// getStatistics).
const scanBatchSize = 200

// Engine is the Badge Rule Engine (C4).
type Engine struct {
	store     store.Store
	publisher *publisher.Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.RWMutex
	rules []Rule
}

// New builds a Badge Rule Engine around the shared store and publisher.
func New(st store.Store, pub *publisher.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     st,
		publisher: pub,
		logger:    logger.With("component", "badges"),
		now:       time.Now,
	}
}

// SetRules replaces the installed rule set (admin configuration surface;
// the spec treats rule installation as out of scope for the core's wire
// contract, but the engine needs somewhere to hold them).
func (e *Engine) SetRules(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

func (e *Engine) activeRules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// AssignBadge manually assigns a badge, failing with Conflict/DuplicateBadge
// if one of that type is already present.
func (e *Engine) AssignBadge(ctx context.Context, productID string, badgeType catalog.BadgeType, assignedBy *string, expiresAt *time.Time, metadata map[string]any) error {
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if _, found := catalog.FindBadge(p.Badges, badgeType); found {
		return catalogerr.New(catalogerr.Conflict, "badge already present: "+string(badgeType)).WithReason(catalogerr.ReasonDuplicateBadge)
	}
	badge := catalog.Badge{Type: badgeType, AssignedAt: e.now(), AssignedBy: assignedBy, ExpiresAt: expiresAt, Metadata: metadata}
	if err := e.store.AtomicPush(ctx, productID, "badges", badge); err != nil {
		return err
	}
	assignedByStr := ""
	if assignedBy != nil {
		assignedByStr = *assignedBy
	}
	if assignedBy != nil {
		e.publisher.BadgeAssigned(ctx, productID, string(badgeType), assignedByStr, metadata)
	} else {
		e.publisher.BadgeAutoAssigned(ctx, productID, string(badgeType), metadata)
	}
	return nil
}

// RemoveBadge manually removes a badge, failing with NotFound/BadgeNotPresent
// if absent.
func (e *Engine) RemoveBadge(ctx context.Context, productID string, badgeType catalog.BadgeType) error {
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if _, found := catalog.FindBadge(p.Badges, badgeType); !found {
		return catalogerr.New(catalogerr.NotFound, "badge not present: "+string(badgeType)).WithReason(catalogerr.ReasonBadgeNotPresent)
	}
	remaining := catalog.RemoveBadgeType(p.Badges, badgeType)
	if _, err := e.store.AtomicSet(ctx, productID, map[string]any{"badges": remaining}); err != nil {
		return err
	}
	e.publisher.BadgeRemoved(ctx, productID, string(badgeType))
	return nil
}

// BulkOutcome classifies one product's result within a bulkAssign call.
type BulkOutcome string

const (
	BulkSuccess        BulkOutcome = "success"
	BulkSkippedPresent BulkOutcome = "skipped:already-present"
	BulkFailed         BulkOutcome = "failed"
)

// BulkAssignResult is one per-product line of a bulkAssign call.
type BulkAssignResult struct {
	ProductID string
	Outcome   BulkOutcome
	Error     string
}

// BulkAssign assigns badgeType to every product in productIDs, classifying
// each as success/skipped(already-present)/failed — a collision with
// AssignBadge's Conflict error is downgraded to "skipped", not "failed".
func (e *Engine) BulkAssign(ctx context.Context, productIDs []string, badgeType catalog.BadgeType, assignedBy *string, expiresAt *time.Time, metadata map[string]any) []BulkAssignResult {
	results := make([]BulkAssignResult, 0, len(productIDs))
	for _, id := range productIDs {
		err := e.AssignBadge(ctx, id, badgeType, assignedBy, expiresAt, metadata)
		switch {
		case err == nil:
			results = append(results, BulkAssignResult{ProductID: id, Outcome: BulkSuccess})
		case catalogerr.ReasonOf(err) == catalogerr.ReasonDuplicateBadge:
			results = append(results, BulkAssignResult{ProductID: id, Outcome: BulkSkippedPresent})
		default:
			results = append(results, BulkAssignResult{ProductID: id, Outcome: BulkFailed, Error: err.Error()})
		}
	}
	return results
}

// GetProductBadges returns the active (non-expired) badges for productID
// plus the single highest-priority display badge.
func (e *Engine) GetProductBadges(ctx context.Context, productID string) ([]catalog.Badge, *catalog.Badge, error) {
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	active := catalog.ActiveBadges(p.Badges, e.now())
	display, ok := catalog.DisplayBadge(p.Badges, e.now())
	if !ok {
		return active, nil, nil
	}
	return active, &display, nil
}

// RemoveExpiredBadges scans every product and drops badge entries whose
// expiresAt has passed, returning the count of products touched.
func (e *Engine) RemoveExpiredBadges(ctx context.Context) (int, error) {
	touched := 0
	err := e.eachProduct(ctx, func(p *catalog.Product) error {
		if len(p.Badges) == 0 {
			return nil
		}
		now := e.now()
		kept := p.Badges[:0:0]
		changed := false
		for _, b := range p.Badges {
			if b.IsExpired(now) {
				changed = true
				continue
			}
			kept = append(kept, b)
		}
		if !changed {
			return nil
		}
		if _, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"badges": kept}); err != nil {
			return err
		}
		touched++
		return nil
	})
	return touched, err
}

// Statistics summarizes badge usage across the catalog.
type Statistics struct {
	TotalBadges        int
	BadgesByType       map[catalog.BadgeType]int
	ProductsWithBadges int
	AutomatedBadges    int
	ManualBadges       int
	ExpiredBadges      int
}

// GetStatistics scans every product and tallies badge counts.
func (e *Engine) GetStatistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{BadgesByType: make(map[catalog.BadgeType]int)}
	now := e.now()
	err := e.eachProduct(ctx, func(p *catalog.Product) error {
		if len(p.Badges) == 0 {
			return nil
		}
		stats.ProductsWithBadges++
		for _, b := range p.Badges {
			stats.TotalBadges++
			stats.BadgesByType[b.Type]++
			if b.IsAutomated() {
				stats.AutomatedBadges++
			} else {
				stats.ManualBadges++
			}
			if b.IsExpired(now) {
				stats.ExpiredBadges++
			}
		}
		return nil
	})
	return stats, err
}

// RuleOutcome classifies what evaluateRules decided for one (product, rule)
// pairing.
type RuleOutcome string

const (
	RuleAdded         RuleOutcome = "added"
	RuleRemoved       RuleOutcome = "removed"
	RuleNoChange      RuleOutcome = "no-change"
	RuleSkippedManual RuleOutcome = "skipped:manual-precedence"
	RuleSkippedDryRun RuleOutcome = "skipped:dry-run"
)

// EvaluationResult is one (product, badgeType) line from evaluateRules.
type EvaluationResult struct {
	ProductID string
	BadgeType catalog.BadgeType
	RuleName  string
	Outcome   RuleOutcome
}

// EvaluateOptions scopes an evaluateRules call.
type EvaluateOptions struct {
	ProductIDs []string
	BadgeTypes []catalog.BadgeType
	DryRun     bool
}

func wantsBadgeType(badgeTypes []catalog.BadgeType, t catalog.BadgeType) bool {
	if len(badgeTypes) == 0 {
		return true
	}
	for _, want := range badgeTypes {
		if want == t {
			return true
		}
	}
	return false
}

// EvaluateRules runs every active rule against every targeted product,
// adding or removing badges per §4.4's manual-precedence semantics: a rule
// never adds over a manually-assigned badge of the same type, and never
// auto-removes a manually-assigned badge, regardless of autoRemoveWhenInvalid.
func (e *Engine) EvaluateRules(ctx context.Context, opts EvaluateOptions) ([]EvaluationResult, error) {
	rules := e.activeRules()
	if len(rules) == 0 {
		return nil, nil
	}

	var results []EvaluationResult
	apply := func(p *catalog.Product) error {
		doc := p.FieldMap()
		for _, r := range rules {
			badgeType := catalog.BadgeType(r.BadgeType)
			if !wantsBadgeType(opts.BadgeTypes, badgeType) {
				continue
			}
			existing, present := catalog.FindBadge(p.Badges, badgeType)
			holds := r.Holds(doc)

			var outcome RuleOutcome
			switch {
			case holds && present:
				if !existing.IsAutomated() {
					outcome = RuleSkippedManual
				} else {
					outcome = RuleNoChange
				}
			case holds && !present:
				outcome = e.applyAdd(ctx, p, badgeType, opts.DryRun)
			case !holds && present:
				outcome = e.applyRemove(ctx, p, existing, badgeType, r.AutoRemoveWhenInvalid, opts.DryRun)
			default:
				outcome = RuleNoChange
			}
			results = append(results, EvaluationResult{ProductID: p.ID, BadgeType: badgeType, RuleName: r.Name, Outcome: outcome})
		}
		return nil
	}

	if len(opts.ProductIDs) > 0 {
		for _, id := range opts.ProductIDs {
			p, err := e.store.GetProduct(ctx, id)
			if err != nil {
				if catalogerr.KindOf(err) == catalogerr.NotFound {
					continue
				}
				return results, err
			}
			if err := apply(p); err != nil {
				return results, err
			}
		}
		return results, nil
	}

	err := e.eachProduct(ctx, apply)
	return results, err
}

func (e *Engine) applyAdd(ctx context.Context, p *catalog.Product, badgeType catalog.BadgeType, dryRun bool) RuleOutcome {
	if dryRun {
		return RuleSkippedDryRun
	}
	badge := catalog.Badge{Type: badgeType, AssignedAt: e.now()}
	if err := e.store.AtomicPush(ctx, p.ID, "badges", badge); err != nil {
		e.logger.Error("auto-assign failed", "productId", p.ID, "badgeType", badgeType, "error", err)
		return RuleNoChange
	}
	p.Badges = append(p.Badges, badge)
	e.publisher.BadgeAutoAssigned(ctx, p.ID, string(badgeType), nil)
	return RuleAdded
}

func (e *Engine) applyRemove(ctx context.Context, p *catalog.Product, existing catalog.Badge, badgeType catalog.BadgeType, autoRemoveWhenInvalid, dryRun bool) RuleOutcome {
	if !existing.IsAutomated() {
		// Manual assignments are never touched by rule evaluation.
		return RuleSkippedManual
	}
	if !autoRemoveWhenInvalid {
		return RuleNoChange
	}
	if dryRun {
		return RuleSkippedDryRun
	}
	remaining := catalog.RemoveBadgeType(p.Badges, badgeType)
	if _, err := e.store.AtomicSet(ctx, p.ID, map[string]any{"badges": remaining}); err != nil {
		e.logger.Error("auto-remove failed", "productId", p.ID, "badgeType", badgeType, "error", err)
		return RuleNoChange
	}
	p.Badges = remaining
	e.publisher.BadgeAutoRemoved(ctx, p.ID, string(badgeType))
	return RuleRemoved
}

// EvaluateProduct re-evaluates the active rules for badgeTypes against a
// single product. It satisfies projection.BadgeEvaluator so the Projection
// Engine can trigger re-evaluation after a sales/views metric update without
// importing this package.
func (e *Engine) EvaluateProduct(ctx context.Context, productID string, badgeTypes []catalog.BadgeType) error {
	_, err := e.EvaluateRules(ctx, EvaluateOptions{ProductIDs: []string{productID}, BadgeTypes: badgeTypes})
	return err
}

// eachProduct pages through every product in the store, invoking fn for
// each. Used by the catalog-wide scans (expiry sweep, statistics,
// evaluateRules with no productIds filter).
func (e *Engine) eachProduct(ctx context.Context, fn func(p *catalog.Product) error) error {
	offset := 0
	for {
		batch, _, err := e.store.FindMany(ctx, store.Filter{}, store.SortCreatedAtDesc, store.Paging{Offset: offset, Limit: scanBatchSize})
		if err != nil {
			return err
		}
		for _, p := range batch {
			if err := fn(p); err != nil {
				return err
			}
		}
		if len(batch) < scanBatchSize {
			return nil
		}
		offset += scanBatchSize
	}
}

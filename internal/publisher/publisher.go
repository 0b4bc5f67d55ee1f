// Package publisher is the Event Publisher (component C2): the only place
// in the service that builds a CloudEvents envelope and hands it to the
// broker. Every other component calls through here instead of touching
// internal/broker directly, so the "publish failures never roll back
// state" policy lives in one spot.
package publisher

import (
	"context"
	"log/slog"

	"github.com/aioutlet/product-catalog-core/internal/broker"
	"github.com/aioutlet/product-catalog-core/internal/cloudevents"
	"github.com/aioutlet/product-catalog-core/internal/eventcatalog"
)

// Publisher emits the service's outbound domain events.
type Publisher struct {
	broker broker.Publisher
	logger *slog.Logger
}

// New wraps a broker.Publisher. A nil logger defaults to slog.Default().
func New(b broker.Publisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{broker: b, logger: logger.With("component", "publisher")}
}

// emit builds the envelope and publishes it. A build or publish failure is
// only logged: emit and the event methods built on it return nothing, so
// the caller never sees the failure and its operation is not rolled back.
func (p *Publisher) emit(ctx context.Context, eventType string, data any, opts ...cloudevents.Option) {
	env, err := cloudevents.New(eventType, data, opts...)
	if err != nil {
		p.logger.Error("failed to build envelope", "type", eventType, "error", err)
		return
	}
	if err := p.broker.Publish(ctx, eventType, env); err != nil {
		p.logger.Error("failed to publish event", "type", eventType, "id", env.ID, "error", err)
	}
}

func (p *Publisher) ProductCreated(ctx context.Context, productID, sku, name string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventProductCreated, eventcatalog.ProductCreatedData{
		ProductID: productID, SKU: sku, Name: name,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) ProductUpdated(ctx context.Context, productID string, changes map[string]any, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventProductUpdated, eventcatalog.ProductUpdatedData{
		ProductID: productID, Changes: changes,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) ProductDeleted(ctx context.Context, productID string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventProductDeleted, eventcatalog.ProductDeletedData{
		ProductID: productID,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) ProductBackInStock(ctx context.Context, productID string, availableQuantity int, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventProductBackInStock, eventcatalog.ProductBackInStockData{
		ProductID: productID, AvailableQuantity: availableQuantity,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) BadgeAssigned(ctx context.Context, productID, badgeType, assignedBy string, metadata map[string]any, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBadgeAssigned, eventcatalog.BadgeAssignedData{
		ProductID: productID, BadgeType: badgeType, AssignedBy: assignedBy, Metadata: metadata,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) BadgeRemoved(ctx context.Context, productID, badgeType string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBadgeRemoved, eventcatalog.BadgeRemovedData{
		ProductID: productID, BadgeType: badgeType,
	}, withSubject(productID, opts)...)
}

// BadgeAutoAssigned/BadgeAutoRemoved use the same payload shape as their
// manual counterparts but a distinct event type, so downstream consumers
// can tell rule-driven badge changes from admin actions without inspecting
// assignedBy.
func (p *Publisher) BadgeAutoAssigned(ctx context.Context, productID, badgeType string, metadata map[string]any, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBadgeAutoAssigned, eventcatalog.BadgeAssignedData{
		ProductID: productID, BadgeType: badgeType, Metadata: metadata,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) BadgeAutoRemoved(ctx context.Context, productID, badgeType string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBadgeAutoRemoved, eventcatalog.BadgeRemovedData{
		ProductID: productID, BadgeType: badgeType,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) VariationCreated(ctx context.Context, parentID string, childIDs []string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventVariationCreated, eventcatalog.VariationCreatedData{
		ParentID: parentID, ChildIDs: childIDs,
	}, withSubject(parentID, opts)...)
}

func (p *Publisher) VariationUpdated(ctx context.Context, childID string, changes map[string]any, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventVariationUpdated, eventcatalog.VariationUpdatedData{
		ChildID: childID, Changes: changes,
	}, withSubject(childID, opts)...)
}

func (p *Publisher) VariationDeleted(ctx context.Context, childID string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventVariationDeleted, eventcatalog.VariationDeletedData{
		ChildID: childID,
	}, withSubject(childID, opts)...)
}

func (p *Publisher) SizeChartAssigned(ctx context.Context, productID, sizeChartID string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventSizeChartAssigned, eventcatalog.SizeChartAssignedData{
		ProductID: productID, SizeChartID: sizeChartID,
	}, withSubject(productID, opts)...)
}

func (p *Publisher) SizeChartUnassigned(ctx context.Context, productID, sizeChartID string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventSizeChartUnassigned, eventcatalog.SizeChartUnassignedData{
		ProductID: productID, SizeChartID: sizeChartID,
	}, withSubject(productID, opts)...)
}

// BulkImportJobCreated publishes to TopicBulkImportJobCreated, the same
// topic the event router subscribes to on this service's behalf — job
// creation and job processing are decoupled so either can run in a
// separate process.
func (p *Publisher) BulkImportJobCreated(ctx context.Context, jobID string, products []map[string]any, importMode string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.TopicBulkImportJobCreated, eventcatalog.BulkImportJobCreatedData{
		JobID: jobID, Products: products, ImportMode: importMode,
	}, withSubject(jobID, opts)...)
}

func (p *Publisher) BulkImportProgress(ctx context.Context, jobID string, processedRows, successCount, errorCount, totalRows int, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBulkImportProgress, eventcatalog.BulkImportProgressData{
		JobID: jobID, ProcessedRows: processedRows, SuccessCount: successCount, ErrorCount: errorCount, TotalRows: totalRows,
	}, withSubject(jobID, opts)...)
}

func (p *Publisher) BulkImportCompleted(ctx context.Context, jobID string, successCount, errorCount, totalRows int, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBulkImportCompleted, eventcatalog.BulkImportCompletedData{
		JobID: jobID, SuccessCount: successCount, ErrorCount: errorCount, TotalRows: totalRows,
	}, withSubject(jobID, opts)...)
}

func (p *Publisher) BulkImportFailed(ctx context.Context, jobID, reason string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBulkImportFailed, eventcatalog.BulkImportFailedData{
		JobID: jobID, Reason: reason,
	}, withSubject(jobID, opts)...)
}

// BulkCompleted and BulkFailed emit the legacy-compatible bulk.completed/
// bulk.failed aliases alongside BulkImportCompleted/BulkImportFailed, both
// named in §6's outbound topic list for the same transition.
func (p *Publisher) BulkCompleted(ctx context.Context, jobID string, successCount, errorCount, totalRows int, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBulkCompleted, eventcatalog.BulkCompletedData{
		JobID: jobID, SuccessCount: successCount, ErrorCount: errorCount, TotalCount: totalRows,
	}, withSubject(jobID, opts)...)
}

func (p *Publisher) BulkFailed(ctx context.Context, jobID, errorMessage string, opts ...cloudevents.Option) {
	p.emit(ctx, eventcatalog.EventBulkFailed, eventcatalog.BulkFailedData{
		JobID: jobID, ErrorMessage: errorMessage,
	}, withSubject(jobID, opts)...)
}

func withSubject(subject string, opts []cloudevents.Option) []cloudevents.Option {
	return append([]cloudevents.Option{cloudevents.WithSubject(subject)}, opts...)
}

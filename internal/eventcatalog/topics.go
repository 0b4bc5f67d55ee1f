// Package eventcatalog is the single source of truth for every event type
// this service subscribes to or publishes, plus the typed payload shapes
// that travel inside a cloudevents.Event's data field. Mirrors the
// teacher's pkg/events catalog: one file of constants, one payload struct
// per event, and small helpers to build the envelope data.
package eventcatalog

// Namespace is the CloudEvents type prefix for everything this service
// publishes: com.aioutlet.product.<name>.v1.
const Namespace = "com.aioutlet.product."

// Inbound topics this service subscribes to (§6).
const (
	TopicReviewCreated           = "review.created"
	TopicReviewUpdated           = "review.updated"
	TopicReviewDeleted           = "review.deleted"
	TopicInventoryStockUpdated   = "inventory.stock.updated"
	TopicAnalyticsSalesUpdated   = "analytics.product.sales.updated"
	TopicAnalyticsViewsUpdated  = "analytics.product.views.updated"
	TopicQuestionCreated         = "product.question.created"
	TopicAnswerCreated           = "product.answer.created"
	TopicQuestionDeleted         = "product.question.deleted"
	TopicBulkImportJobCreated    = "product.bulk.import.job.created"
)

// InboundTopics enumerates every topic the event router subscribes to,
// the discovery operation required by §4.7.
var InboundTopics = []string{
	TopicReviewCreated,
	TopicReviewUpdated,
	TopicReviewDeleted,
	TopicInventoryStockUpdated,
	TopicAnalyticsSalesUpdated,
	TopicAnalyticsViewsUpdated,
	TopicQuestionCreated,
	TopicAnswerCreated,
	TopicQuestionDeleted,
	TopicBulkImportJobCreated,
}

// Outbound event types (published, namespaced under Namespace per §6).
const (
	EventProductCreated           = Namespace + "created.v1"
	EventProductUpdated           = Namespace + "updated.v1"
	EventProductDeleted           = Namespace + "deleted.v1"
	EventProductBackInStock       = Namespace + "back.in.stock.v1"
	EventBadgeAssigned            = Namespace + "badge.assigned.v1"
	EventBadgeRemoved             = Namespace + "badge.removed.v1"
	EventBadgeAutoAssigned        = Namespace + "badge.auto.assigned.v1"
	EventBadgeAutoRemoved         = Namespace + "badge.auto.removed.v1"
	EventVariationCreated         = Namespace + "variation.created.v1"
	EventVariationUpdated         = Namespace + "variation.updated.v1"
	EventVariationDeleted         = Namespace + "variation.deleted.v1"
	EventSizeChartAssigned        = Namespace + "sizechart.assigned.v1"
	EventSizeChartUnassigned      = Namespace + "sizechart.unassigned.v1"
	EventBulkImportProgress       = Namespace + "bulk.import.progress.v1"
	EventBulkImportCompleted      = Namespace + "bulk.import.completed.v1"
	EventBulkImportFailed         = Namespace + "bulk.import.failed.v1"

	// EventBulkCompleted and EventBulkFailed are legacy-compatible aliases
	// of EventBulkImportCompleted/EventBulkImportFailed (the original
	// service's dapr publisher emitted both pairs for the same
	// transition); Pipeline.Run emits both from its completion path.
	EventBulkCompleted = Namespace + "bulk.completed.v1"
	EventBulkFailed    = Namespace + "bulk.failed.v1"
)

// Package router is the Event Router (component C7): it subscribes to the
// declared set of inbound topics and dispatches each delivered envelope to
// the projection or bulk-import handler that owns it (badge re-evaluation
// is reached through the projection handlers), classifying
// the handler's outcome into the broker's ack/nack/dead-letter signal per
// §4.7. Grounded on the teacher's pkg/redis StreamConsumer dispatch loop,
// adapted from a single fixed handler to a topic-keyed routing table.
package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aioutlet/product-catalog-core/internal/bulkimport"
	"github.com/aioutlet/product-catalog-core/internal/catalogerr"
	"github.com/aioutlet/product-catalog-core/internal/cloudevents"
	"github.com/aioutlet/product-catalog-core/internal/eventcatalog"
	"github.com/aioutlet/product-catalog-core/internal/projection"
)

// Outcome is the three-valued classification §4.7 requires the router to
// produce for every dispatched envelope.
type Outcome string

const (
	Success Outcome = "success"
	Retry   Outcome = "retry"
	Drop    Outcome = "drop"
)

// RouteInfo is one entry in the discovery operation §4.7 requires: the
// subscribed topic and the internal identifier handling it.
type RouteInfo struct {
	Topic string
	Route string
}

// route pairs a topic with the function that decodes its envelope and
// invokes the owning engine.
type route struct {
	id       string
	dispatch func(ctx context.Context, envelope *cloudevents.Event) error
}

// Router owns one route per inbound topic and turns broker.Handler calls
// into ack/nack decisions.
type Router struct {
	routes map[string]route
	logger *slog.Logger
}

// New builds a Router wired to the given projection engine, badge engine's
// EvaluateProduct-satisfying wiring already inside proj, and bulk-import
// pipeline. proj may not be nil; pipeline may be nil if bulk import is not
// wired (its topic is then dropped with a warning, same as any unknown one).
func New(proj *projection.Engine, pipeline *bulkimport.Pipeline, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{logger: logger.With("component", "router")}
	r.routes = map[string]route{
		eventcatalog.TopicReviewCreated: {
			id:       "handleReviewCreated",
			dispatch: typedDispatch(proj.HandleReviewCreated),
		},
		eventcatalog.TopicReviewUpdated: {
			id:       "handleReviewUpdated",
			dispatch: typedDispatch(proj.HandleReviewUpdated),
		},
		eventcatalog.TopicReviewDeleted: {
			id:       "handleReviewDeleted",
			dispatch: typedDispatch(proj.HandleReviewDeleted),
		},
		eventcatalog.TopicInventoryStockUpdated: {
			id:       "handleInventoryStockUpdated",
			dispatch: typedDispatch(proj.HandleInventoryStockUpdated),
		},
		eventcatalog.TopicAnalyticsSalesUpdated: {
			id:       "handleSalesUpdated",
			dispatch: typedDispatch(proj.HandleSalesUpdated),
		},
		eventcatalog.TopicAnalyticsViewsUpdated: {
			id:       "handleViewsUpdated",
			dispatch: typedDispatch(proj.HandleViewsUpdated),
		},
		eventcatalog.TopicQuestionCreated: {
			id:       "handleQuestionCreated",
			dispatch: typedDispatch(proj.HandleQuestionCreated),
		},
		eventcatalog.TopicAnswerCreated: {
			id:       "handleAnswerCreated",
			dispatch: typedDispatch(proj.HandleAnswerCreated),
		},
		eventcatalog.TopicQuestionDeleted: {
			id:       "handleQuestionDeleted",
			dispatch: typedDispatch(proj.HandleQuestionDeleted),
		},
	}
	if pipeline != nil {
		r.routes[eventcatalog.TopicBulkImportJobCreated] = route{
			id:       "runBulkImportJob",
			dispatch: bulkImportDispatch(pipeline),
		}
	}
	return r
}

// Routes is the discovery operation §4.7 requires: every subscribed topic
// paired with its internal route identifier.
func (r *Router) Routes() []RouteInfo {
	infos := make([]RouteInfo, 0, len(r.routes))
	for topic, rt := range r.routes {
		infos = append(infos, RouteInfo{Topic: topic, Route: rt.id})
	}
	return infos
}

// Dispatch satisfies broker.Handler: it looks up envelope.Type's route,
// invokes it, and translates the result into an ack/nack decision for the
// broker by its own return value — nil means ack (Success or Drop), a
// non-nil error means nack-and-redeliver (Retry). The outcome actually
// reached is always observable via logs; Classify exposes it for callers
// (tests, metrics) that want it without re-deriving from the error.
func (r *Router) Dispatch(ctx context.Context, envelope *cloudevents.Event) error {
	outcome, err := r.route(ctx, envelope)
	switch outcome {
	case Retry:
		return err
	default:
		return nil
	}
}

// Classify runs the same dispatch r.Dispatch does but returns the outcome
// directly, for callers that want the classification without reinterpreting
// Dispatch's ack/nack error convention.
func (r *Router) Classify(ctx context.Context, envelope *cloudevents.Event) Outcome {
	outcome, _ := r.route(ctx, envelope)
	return outcome
}

func (r *Router) route(ctx context.Context, envelope *cloudevents.Event) (Outcome, error) {
	rt, ok := r.routes[envelope.Type]
	if !ok {
		r.logger.Warn("no route for event type, dropping", "type", envelope.Type, "id", envelope.ID)
		return Drop, nil
	}

	err := rt.dispatch(ctx, envelope)
	if err == nil {
		return Success, nil
	}

	if catalogerr.IsTransient(err) {
		r.logger.Warn("handler failed transiently, will retry", "route", rt.id, "id", envelope.ID, "error", err)
		return Retry, err
	}

	r.logger.Error("handler failed permanently, dead-lettering", "route", rt.id, "id", envelope.ID,
		"type", envelope.Type, "correlationId", envelope.CorrelationID, "error", err)
	return Drop, nil
}

// typedDispatch adapts a projection engine handler of shape
// func(ctx, eventID string, data T) error into the envelope-level dispatch
// function every route needs, decoding envelope.Data into T. A JSON decode
// failure classifies as Drop (malformed payload, §4.7).
func typedDispatch[T any](handle func(ctx context.Context, eventID string, data T) error) func(context.Context, *cloudevents.Event) error {
	return func(ctx context.Context, envelope *cloudevents.Event) error {
		var data T
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return catalogerr.Wrap(catalogerr.Validation, err, "malformed event payload")
		}
		return handle(ctx, envelope.ID, data)
	}
}

// bulkImportDispatch decodes a product.bulk.import.job.created envelope and
// runs the job to completion synchronously in the dispatching task, per the
// concurrency model's "independent task per event" scheduling (§5); the
// router has no per-handler deadline, so a long job runs to its own
// completion rather than blocking other topics' dispatch.
func bulkImportDispatch(pipeline *bulkimport.Pipeline) func(context.Context, *cloudevents.Event) error {
	return func(ctx context.Context, envelope *cloudevents.Event) error {
		var data eventcatalog.BulkImportJobCreatedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return catalogerr.Wrap(catalogerr.Validation, err, "malformed event payload")
		}
		rows, err := bulkimport.RowsFromEventProducts(data.Products)
		if err != nil {
			return catalogerr.Wrap(catalogerr.Validation, err, "malformed bulk import row payload")
		}
		_, err = pipeline.Run(ctx, data.JobID, rows)
		return err
	}
}

// Package cloudevents is a minimal CloudEvents 1.0 compatible envelope (no
// runtime SDK dependency) used for every event this service publishes and
// consumes.
package cloudevents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Source identifies this service as the origin of every event it emits.
const Source = "/product-service"

// Event is the wire shape exchanged with the broker: {specversion, type,
// source, id, time, subject?, correlationid?, datacontenttype, data}.
type Event struct {
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	ID              string          `json:"id"`
	Time            string          `json:"time"`
	Subject         string          `json:"subject,omitempty"`
	CorrelationID   string          `json:"correlationid,omitempty"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// Option customizes an Event at construction time.
type Option func(*Event)

// WithSubject sets the CloudEvents subject (e.g. "product/{id}").
func WithSubject(subject string) Option { return func(e *Event) { e.Subject = subject } }

// WithCorrelationID propagates the inbound X-Correlation-ID.
func WithCorrelationID(id string) Option { return func(e *Event) { e.CorrelationID = id } }

// WithID overrides the generated event id (used by tests for determinism).
func WithID(id string) Option { return func(e *Event) { e.ID = id } }

// WithTime overrides the generated timestamp (used by tests for determinism).
func WithTime(t time.Time) Option { return func(e *Event) { e.Time = t.UTC().Format(time.RFC3339) } }

// New builds a new CloudEvents envelope around data, namespaced under
// com.aioutlet.product.<name>.v1 by convention of the caller.
func New(eventType string, data any, opts ...Option) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	e := &Event{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          Source,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC().Format(time.RFC3339),
		DataContentType: "application/json",
		Data:            payload,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// UnmarshalData decodes the envelope's data payload into v.
func (e *Event) UnmarshalData(v any) error {
	return json.Unmarshal(e.Data, v)
}

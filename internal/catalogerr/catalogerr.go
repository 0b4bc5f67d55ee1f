// Package catalogerr defines the domain error taxonomy shared by every
// component of the catalog core. Handlers and HTTP collaborators switch on
// Kind rather than matching error strings.
package catalogerr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error into the taxonomy described in the core
// specification. Each kind maps to an HTTP status at the transport edge,
// but the core never imports net/http.
type Kind string

const (
	Validation      Kind = "validation"       // 400
	NotFound        Kind = "not_found"        // 404
	Conflict        Kind = "conflict"         // 409
	Forbidden       Kind = "forbidden"        // 403
	Unauthorized    Kind = "unauthorized"     // 401
	StoreUnavailable Kind = "store_unavailable" // 503, transient
	Internal        Kind = "internal"         // 500
)

// Reason enumerates the specific Conflict sub-cases callers branch on.
type Reason string

const (
	ReasonDuplicateSku            Reason = "duplicate_sku"
	ReasonDuplicateBadge          Reason = "duplicate_badge"
	ReasonDuplicateAttributeTuple Reason = "duplicate_attribute_tuple"
	ReasonAlreadyActive           Reason = "already_active"
	ReasonBadgeNotPresent         Reason = "badge_not_present"
)

// Error is the concrete error type returned across component boundaries.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Context map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is allows errors.Is(err, catalogerr.New(catalogerr.NotFound, "")) style
// checks: a target *Error matches on its Kind and Reason, each only when
// set; see KindOf for the common case.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Reason != "" && t.Reason != e.Reason {
		return false
	}
	return true
}

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithReason attaches a Reason sub-classification.
func (e *Error) WithReason(r Reason) *Error {
	e.Reason = r
	return e
}

// WithContext attaches structured context (logged, never returned raw to a
// caller over an untrusted boundary).
func (e *Error) WithContext(kv map[string]any) *Error {
	e.Context = kv
	return e
}

// Wrap attaches an underlying cause for error chains / logging.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the Kind of err, defaulting to Internal for anything that
// isn't a *Error (a bug surface, per the spec's error taxonomy).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// ReasonOf extracts the Reason of err, or "" if not present / not an *Error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsTransient reports whether err should be retried by a broker/router.
func IsTransient(err error) bool {
	return KindOf(err) == StoreUnavailable
}

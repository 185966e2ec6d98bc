// Package fault defines the stable error classifications the service
// surfaces to its transport layer. Every failure that crosses a package
// boundary is wrapped with exactly one class so operators can tell
// "our bug" from "their outage" from "we're being throttled".
package fault

import (
	"errors"
	"fmt"
)

type Class string

const (
	InvalidInput         Class = "invalid_input"
	NotFound             Class = "not_found"
	StorageUnavailable   Class = "storage_unavailable"
	EmbeddingUnavailable Class = "embedding_unavailable"
	Unauthorized         Class = "upstream_unauthorized"
	RateLimited          Class = "upstream_rate_limited"
	BadUpstreamRequest   Class = "bad_upstream_request"
	UpstreamUnavailable  Class = "upstream_unavailable"
)

// Fault carries a classification alongside the underlying cause.
type Fault struct {
	Class Class
	Err   error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return string(f.Class)
	}
	return fmt.Sprintf("%s: %v", f.Class, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Is lets errors.Is match two faults by class only.
func (f *Fault) Is(target error) bool {
	var other *Fault
	if errors.As(target, &other) {
		return f.Class == other.Class
	}
	return false
}

// New wraps err with a classification. A nil err is legal; the class
// alone is the message.
func New(class Class, err error) error {
	return &Fault{Class: class, Err: err}
}

func Errorf(class Class, format string, args ...any) error {
	return &Fault{Class: class, Err: fmt.Errorf(format, args...)}
}

// ClassOf extracts the classification from err, or ok=false if err was
// never classified.
func ClassOf(err error) (Class, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Class, true
	}
	return "", false
}

// IsClass reports whether err carries the given classification.
func IsClass(err error, class Class) bool {
	got, ok := ClassOf(err)
	return ok && got == class
}

// SafeMessage is the client-facing text for a classification. The
// wrapped cause stays in logs and never crosses the transport
// boundary.
func SafeMessage(class Class) string {
	switch class {
	case InvalidInput:
		return "invalid request input"
	case NotFound:
		return "resource not found"
	case StorageUnavailable:
		return "storage is unavailable"
	case EmbeddingUnavailable:
		return "embedding backend is unavailable"
	case Unauthorized:
		return "upstream rejected our credentials"
	case RateLimited:
		return "upstream rate limit exceeded"
	case BadUpstreamRequest:
		return "upstream rejected the request"
	case UpstreamUnavailable:
		return "generation backend is unavailable"
	default:
		return "internal error"
	}
}

// SafeMessageOf resolves err's class to its client-facing text.
func SafeMessageOf(err error) string {
	class, ok := ClassOf(err)
	if !ok {
		return "internal error"
	}
	return SafeMessage(class)
}

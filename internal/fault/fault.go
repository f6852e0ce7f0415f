package fault

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Kind classifies an Error. The set is closed: every error the hub reports
// to a client is one of these.
type Kind int

const (
	// KindInternal is an unexpected failure. It is the zero value so that an
	// unclassified Error never masquerades as a client mistake.
	KindInternal Kind = iota
	// KindValidation is rejected input.
	KindValidation
	// KindNotFound is a missing sensor or reading.
	KindNotFound
	// KindRouteNotFound is an unknown route or unsupported method.
	KindRouteNotFound
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRouteNotFound:
		return "route_not_found"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code reported for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindRouteNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels matching any *Error of the corresponding kind via errors.Is:
//
//	if errors.Is(err, fault.ErrNotFound) {
//	    // sensor or reading missing
//	}
var (
	ErrInternal      = errors.New("internal error")
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrRouteNotFound = errors.New("route not found")
)

// InternalMessage is reported for failures that are not an *Error.
const InternalMessage = "Internal Server Error"

// Error is a classified failure carrying the client-visible message.
type Error struct {
	Kind    Kind
	Message string

	pcs []uintptr
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

// Stack renders the call stack captured when the error was constructed:
// a "kind: message" line followed by one "at function (file:line)" line
// per frame.
func (e *Error) Stack() string {
	if len(e.pcs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	frames := runtime.CallersFrames(e.pcs)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "\n    at %s (%s:%d)", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

func sentinel(k Kind) error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindRouteNotFound:
		return ErrRouteNotFound
	default:
		return ErrInternal
	}
}

// New returns an Error of the given kind. Callers outside this package
// normally use the kind-specific constructors.
func New(kind Kind, message string) *Error {
	return newError(kind, message)
}

// Validation returns a KindValidation error with the rule-specific message.
func Validation(message string) *Error {
	return newError(KindValidation, message)
}

// Validationf is Validation with fmt formatting.
func Validationf(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// NotFound returns a KindNotFound error reading "<Entity> with ID <id> not found".
// id may be any value; non-numeric path segments are reported verbatim.
func NotFound(entity string, id any) *Error {
	return newError(KindNotFound, fmt.Sprintf("%s with ID %v not found", entity, id))
}

// RouteNotFound returns a KindRouteNotFound error reading "Route <METHOD> <path> not found".
func RouteNotFound(method, path string) *Error {
	return newError(KindRouteNotFound, fmt.Sprintf("Route %s %s not found", method, path))
}

// Internal returns a KindInternal error with an operation-supplied message.
func Internal(message string) *Error {
	return newError(KindInternal, message)
}

// newError skips runtime.Callers, newError and the exported constructor.
func newError(kind Kind, message string) *Error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	return &Error{Kind: kind, Message: message, pcs: pcs[:n]}
}

// As extracts the *Error from err's chain. Anything else is reported as an
// internal error with InternalMessage, so callers always get a renderable value.
func As(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: KindInternal, Message: InternalMessage}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

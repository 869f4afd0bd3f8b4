package apierr

import "fmt"

// Kind is the closed set of error kinds carried across every transport
// boundary (§6.5).
type Kind string

const (
	KindProtocol      Kind = "PROTOCOL_ERROR"
	KindValidation    Kind = "VALIDATION_ERROR"
	KindRouteNotFound Kind = "ROUTE_NOT_FOUND"
	KindBadRequest    Kind = "BAD_REQUEST"
	KindInternal      Kind = "INTERNAL_ERROR"
	KindBackend       Kind = "BACKEND_ERROR"
	KindIO            Kind = "IO_ERROR"
	KindJSON          Kind = "JSON_ERROR"
	KindRateLimit     Kind = "RATE_LIMIT_EXCEEDED"
	KindAuth          Kind = "AUTH_ERROR"
)

// clientKinds classifies which kinds map to the 4xx family. Every other
// kind is a server error (5xx). Note the asymmetry worth stating
// explicitly: JSON_ERROR is a client mistake, IO_ERROR is a server fault
// (§6.5, §12).
var clientKinds = map[Kind]bool{
	KindProtocol:      true,
	KindValidation:    true,
	KindRouteNotFound: true,
	KindBadRequest:    true,
	KindJSON:          true,
	KindRateLimit:     true,
	KindAuth:          true,
}

// IsClientError reports whether k belongs to the 4xx family.
func IsClientError(k Kind) bool { return clientKinds[k] }

// HTTPStatus maps k to the HTTP status code the HTTP transport should
// return.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation, KindBadRequest, KindJSON, KindProtocol:
		return 400
	case KindAuth:
		return 401
	case KindRateLimit:
		return 429
	case KindRouteNotFound:
		return 404
	default:
		return 500
	}
}

// Error is the error envelope shared across transports (§6.2, §6.5): a
// kind, a human-readable message, optional structured details, and the
// request id the logging middleware generated for correlation.
type Error struct {
	Kind      Kind        `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithRequestID returns a copy of e carrying requestID.
func (e *Error) WithRequestID(requestID string) *Error {
	cp := *e
	cp.RequestID = requestID
	return &cp
}

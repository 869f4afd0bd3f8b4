package routedispatch

import "github.com/kodewerx/memoria/pkg/backend"

// TestCase is one fixture a Route can self-report, letting transport-level
// tests exercise boundary behavior without reinventing invalid payloads
// for every route (§8.3 boundary-behavior list).
type TestCase struct {
	Name    string
	Request *backend.Request
	WantErr bool
}

// Route is the unit the dispatcher registers: metadata, a validator, a
// handler, and self-describing test fixtures. New operations are added by
// writing a new Route, not by subclassing (§4.9).
type Route interface {
	Metadata() Metadata
	ValidateRequest(req *backend.Request) error
	Handle(req *backend.Request, app backend.AppStateProvider) (*backend.Response, error)
	TestCases() []TestCase
}

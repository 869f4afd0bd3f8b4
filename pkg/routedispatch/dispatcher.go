package routedispatch

import (
	"github.com/kodewerx/memoria/pkg/apierr"
	"github.com/kodewerx/memoria/pkg/backend"
)

// Dispatcher owns the registered routes and the middleware chain every
// request passes through before reaching a route's Handle (§4.9).
type Dispatcher struct {
	routes map[string]Route
	chain  Middleware
	app    backend.AppStateProvider
}

// NewDispatcher constructs a Dispatcher over app, wrapping every route
// invocation in chain.
func NewDispatcher(app backend.AppStateProvider, chain Middleware) *Dispatcher {
	return &Dispatcher{routes: make(map[string]Route), chain: chain, app: app}
}

// Register adds a route, keyed by its metadata ID. Registering the same ID
// twice replaces the previous route, matching the original router's
// alias-as-re-registration behavior (§12's HTTP alias routes).
func (d *Dispatcher) Register(r Route) {
	d.routes[r.Metadata().ID] = r
}

// Alias registers targetID as an additional name for the route already
// registered under canonicalID, matching the original's thin re-dispatch
// aliases (§12: /v1/halt -> generation/stop, etc).
func (d *Dispatcher) Alias(canonicalID, targetID string) {
	if r, ok := d.routes[canonicalID]; ok {
		d.routes[targetID] = r
	}
}

// Route looks up a registered route by id.
func (d *Dispatcher) Route(id string) (Route, bool) {
	r, ok := d.routes[id]
	return r, ok
}

// Dispatch runs the middleware chain and, if it admits the request, the
// matched route's validator and handler.
func (d *Dispatcher) Dispatch(routeID string, inv *Invocation, req *backend.Request) (*backend.Response, error) {
	r, ok := d.routes[routeID]
	if !ok {
		return nil, apierr.Newf(apierr.KindRouteNotFound, "no route registered for %q", routeID)
	}
	inv.Route = r

	handler := d.chain(func(inv *Invocation, req *backend.Request) (*backend.Response, error) {
		if err := r.ValidateRequest(req); err != nil {
			return nil, err
		}
		return r.Handle(req, d.app)
	})

	return handler(inv, req)
}

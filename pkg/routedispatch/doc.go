/*
Package routedispatch implements the Route Dispatch layer (§4.9): route
metadata, composable request validators, the Route interface every
transport registers against, and the default middleware chain every
request passes through before reaching a route's handler.

The middleware order — Logging, then RateLimit, then Auth, then
ErrorHandling — and the rate limiter's (client_id, tier) sliding window are
carried over unchanged from the Rust original's
native-messaging/src/middleware.rs::create_default_middleware (§12). Route
metadata and the Validator helpers are grounded in the same original's
route trait shape, expressed here as a Go interface plus small composable
validator functions rather than a trait object.
*/
package routedispatch

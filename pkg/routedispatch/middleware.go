package routedispatch

import (
	"time"

	"github.com/kodewerx/memoria/pkg/apierr"
	"github.com/kodewerx/memoria/pkg/backend"
	"github.com/kodewerx/memoria/pkg/log"
)

// Invocation carries the per-request context the middleware chain and the
// final handler share: who is calling, under what correlation id, against
// which route.
type Invocation struct {
	ClientID  string
	RequestID string
	AuthToken string
	Route     Route
}

// Handler is the terminal or intermediate step in a middleware chain.
type Handler func(inv *Invocation, req *backend.Request) (*backend.Response, error)

// Middleware wraps a Handler with additional behavior.
type Middleware func(next Handler) Handler

// Chain composes middlewares so that mws[0] is outermost (runs first on
// the way in, last on the way out) and the final handler is innermost.
func Chain(mws ...Middleware) Middleware {
	return func(final Handler) Handler {
		h := final
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

// LoggingMiddleware logs route id, client id, request id, duration and
// outcome for every request. It runs outermost in the default chain so it
// observes the true end-to-end latency including rate-limit and auth
// rejections (§12).
func LoggingMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(inv *Invocation, req *backend.Request) (*backend.Response, error) {
			start := time.Now()
			logger := log.WithRoute(inv.Route.Metadata().ID).With().
				Str("client_id", inv.ClientID).
				Str("request_id", inv.RequestID).
				Logger()

			resp, err := next(inv, req)

			ev := logger.Info()
			if err != nil {
				ev = logger.Warn().Err(err)
			}
			ev.Dur("duration", time.Since(start)).Msg("request handled")
			return resp, err
		}
	}
}

// RateLimitMiddleware enforces the (client_id, tier) sliding window
// before the request reaches Auth or the handler (§12).
func RateLimitMiddleware(rl *RateLimiter) Middleware {
	return func(next Handler) Handler {
		return func(inv *Invocation, req *backend.Request) (*backend.Response, error) {
			meta := inv.Route.Metadata()
			tier := meta.RateLimitTier
			if tier == "" {
				tier = TierFor(meta.ID)
			}
			if !rl.Allow(inv.ClientID, tier) {
				return nil, apierr.Newf(apierr.KindRateLimit, "rate limit exceeded for client %q tier %q", inv.ClientID, tier)
			}
			return next(inv, req)
		}
	}
}

// AuthMiddleware rejects requests to an auth-required route whose token is
// not in validTokens. Routes that don't require auth pass through
// unconditionally.
func AuthMiddleware(validTokens map[string]bool) Middleware {
	return func(next Handler) Handler {
		return func(inv *Invocation, req *backend.Request) (*backend.Response, error) {
			meta := inv.Route.Metadata()
			if meta.RequiresAuth && !validTokens[inv.AuthToken] {
				return nil, apierr.New(apierr.KindAuth, "missing or invalid auth token")
			}
			return next(inv, req)
		}
	}
}

// ErrorHandlingMiddleware normalizes whatever the handler returns into an
// *apierr.Error carrying the request's correlation id: a handler that
// already returned one is passed through with the id attached, any other
// error becomes an INTERNAL_ERROR rather than leaking an unclassified
// error type across the transport boundary.
func ErrorHandlingMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(inv *Invocation, req *backend.Request) (*backend.Response, error) {
			resp, err := next(inv, req)
			if err == nil {
				return resp, nil
			}
			if apiErr, ok := err.(*apierr.Error); ok {
				return nil, apiErr.WithRequestID(inv.RequestID)
			}
			return nil, apierr.New(apierr.KindInternal, err.Error()).WithRequestID(inv.RequestID)
		}
	}
}

// DefaultChain builds the exact middleware order the Rust original uses:
// Logging -> RateLimit -> Auth -> ErrorHandling (§12).
func DefaultChain(rl *RateLimiter, validTokens map[string]bool) Middleware {
	return Chain(
		LoggingMiddleware(),
		RateLimitMiddleware(rl),
		AuthMiddleware(validTokens),
		ErrorHandlingMiddleware(),
	)
}

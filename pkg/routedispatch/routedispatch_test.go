package routedispatch

import (
	"testing"

	"github.com/kodewerx/memoria/pkg/apierr"
	"github.com/kodewerx/memoria/pkg/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubApp is a minimal AppStateProvider used to test dispatch/middleware
// mechanics in isolation from the real backend.
type stubApp struct{}

func (stubApp) HandleRequest(req *backend.Request) (*backend.Response, error) {
	return &backend.Response{Kind: req.Kind}, nil
}

func TestRouteTestCasesMatchTheirOwnValidator(t *testing.T) {
	routes := []Route{
		ChatCompletionRoute(), CompletionRoute(), EmbeddingsRoute(),
		RAGQueryRoute(), RerankRoute(), StopGenerationRoute(),
		AudioStreamConfigRoute(), WebRTCSessionRoute(),
		BatchApplyRoute(), StructuralIndexRoute(), StructuralQueryRoute(),
	}
	for _, r := range routes {
		for _, tc := range r.TestCases() {
			err := r.ValidateRequest(tc.Request)
			if tc.WantErr {
				assert.Error(t, err, "%s/%s should fail validation", r.Metadata().ID, tc.Name)
			} else {
				assert.NoError(t, err, "%s/%s should pass validation", r.Metadata().ID, tc.Name)
			}
		}
	}
}

func newTestDispatcher() *Dispatcher {
	rl := NewRateLimiter(map[string]int{"standard": 2, "inference": 2})
	chain := DefaultChain(rl, map[string]bool{"good-token": true})
	d := NewDispatcher(stubApp{}, chain)
	RegisterDefaultRoutes(d)
	return d
}

func TestDispatchRejectsInvalidRequest(t *testing.T) {
	d := newTestDispatcher()
	inv := &Invocation{ClientID: "c1", RequestID: "r1", AuthToken: "good-token"}

	_, err := d.Dispatch("chat_completion", inv, &backend.Request{
		Kind: backend.ReqChatCompletion,
		ChatCompletion: &backend.ChatCompletionRequest{
			Model: "m", Messages: []backend.ChatMessage{{Role: "user", Content: "hi"}}, Temperature: 5.0, MaxTokens: 10,
		},
	})
	require.Error(t, err)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, apierr.KindValidation, apiErr.Kind)
	assert.Equal(t, "r1", apiErr.RequestID)
}

func TestDispatchRejectsUnknownRoute(t *testing.T) {
	d := newTestDispatcher()
	inv := &Invocation{ClientID: "c1", RequestID: "r1"}

	_, err := d.Dispatch("does_not_exist", inv, &backend.Request{})
	require.Error(t, err)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, apierr.KindRouteNotFound, apiErr.Kind)
}

func TestDispatchAllowsUnauthenticatedClientOnRouteThatDoesNotRequireAuth(t *testing.T) {
	d := newTestDispatcher()
	inv := &Invocation{ClientID: "c1", RequestID: "r1", AuthToken: "bad-token"}

	_, err := d.Dispatch("system_info", inv, &backend.Request{Kind: backend.ReqSystemInfo})
	require.NoError(t, err)
}

func TestDispatchRejectsBadAuthTokenOnProtectedRoute(t *testing.T) {
	d := newTestDispatcher()
	inv := &Invocation{ClientID: "c2", RequestID: "r2", AuthToken: "bad-token"}

	_, err := d.Dispatch("stop_generation", inv, &backend.Request{
		Kind:           backend.ReqStopGeneration,
		StopGeneration: &backend.StopGenerationRequest{GenID: "g1"},
	})
	require.Error(t, err)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, apierr.KindAuth, apiErr.Kind)
}

func TestDispatchAliasReachesCanonicalRoute(t *testing.T) {
	d := newTestDispatcher()
	inv := &Invocation{ClientID: "c1", RequestID: "r1", AuthToken: "good-token"}

	resp, err := d.Dispatch("halt", inv, &backend.Request{
		Kind:           backend.ReqStopGeneration,
		StopGeneration: &backend.StopGenerationRequest{GenID: "g1"},
	})
	require.NoError(t, err)
	assert.Equal(t, backend.ReqStopGeneration, resp.Kind)
}

func TestDispatchRateLimitsAfterLimitReached(t *testing.T) {
	d := newTestDispatcher()
	req := &backend.Request{Kind: backend.ReqSystemInfo}

	for i := 0; i < 2; i++ {
		inv := &Invocation{ClientID: "c1", RequestID: "r1", AuthToken: "good-token"}
		_, err := d.Dispatch("system_info", inv, req)
		require.NoError(t, err)
	}

	inv := &Invocation{ClientID: "c1", RequestID: "r1", AuthToken: "good-token"}
	_, err := d.Dispatch("system_info", inv, req)
	require.Error(t, err)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, apierr.KindRateLimit, apiErr.Kind)
}

func TestRateLimiterAllowsDistinctClientsIndependently(t *testing.T) {
	rl := NewRateLimiter(map[string]int{"standard": 1})
	assert.True(t, rl.Allow("a", "standard"))
	assert.False(t, rl.Allow("a", "standard"))
	assert.True(t, rl.Allow("b", "standard"))
}

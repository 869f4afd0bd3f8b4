package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kodewerx/memoria/pkg/backend"
	"github.com/kodewerx/memoria/pkg/routedispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoApp is a minimal AppStateProvider that reflects enough of the request
// back to exercise routing and JSON translation without a real backend.
type echoApp struct{}

func (echoApp) HandleRequest(req *backend.Request) (*backend.Response, error) {
	resp := &backend.Response{Kind: req.Kind}
	switch req.Kind {
	case backend.ReqChatCompletion:
		resp.ChatCompletion = &backend.CompletionResponse{Model: req.ChatCompletion.Model}
	case backend.ReqStopGeneration:
		resp.StopGeneration = &backend.StopGenerationResponse{GenID: req.StopGeneration.GenID}
	case backend.ReqSystemInfo:
		resp.SystemInfo = &backend.SystemInfoResponse{Version: "test"}
	case backend.ReqModelPull:
		resp.ModelOp = &backend.ModelOpResult{Model: req.ModelPull.Model, Status: "pulling"}
	case backend.ReqWebRTCSession:
		state := req.WebRTCSession.State
		if state == "" {
			state = "unknown"
		}
		resp.WebRTCSession = &backend.WebRTCSessionStateResponse{SessionID: req.WebRTCSession.SessionID, State: state}
	case backend.ReqBatchApply:
		resp.BatchApply = &backend.BatchApplyResponse{VectorSuccesses: len(req.BatchOperation.Ops)}
	case backend.ReqStructuralQuery:
		resp.StructuralQuery = &backend.StructuralQueryResponse{NodeIDs: []string{"n1"}}
	}
	return resp, nil
}

func newTestServer() *httptest.Server {
	rl := routedispatch.NewRateLimiter(map[string]int{"standard": 1000, "inference": 1000})
	chain := routedispatch.DefaultChain(rl, map[string]bool{"good-token": true})
	d := routedispatch.NewDispatcher(echoApp{}, chain)
	routedispatch.RegisterDefaultRoutes(d)
	return httptest.NewServer(NewServer(d).Handler())
}

func TestChatCompletionsRouteReturnsChatCompletionResponse(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body, _ := json.Marshal(backend.ChatCompletionRequest{
		Model:       "m",
		Messages:    []backend.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: 0.5,
		MaxTokens:   10,
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/chat/completions", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "m", got["model"])
}

func TestInvalidChatCompletionReturns400(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body, _ := json.Marshal(backend.ChatCompletionRequest{
		Model:       "m",
		Messages:    []backend.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: 5.0,
		MaxTokens:   10,
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/chat/completions", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestStopGenerationAliasRouteWorks(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body, _ := json.Marshal(backend.StopGenerationRequest{GenID: "g1"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/halt", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSystemInfoRouteRequiresNoBody(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/system/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestModelPullRouteDecodesModelName(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"model": "llama"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/models/pull", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "llama", got["model"])
}

func TestWebRTCSessionGetRouteReadsPathValue(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/webrtc/session/s1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "s1", got["session_id"])
}

func TestBatchApplyRouteRejectsEmptyOps(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/memory/batch", bytes.NewReader([]byte(`{"ops":[]}`)))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStructuralQueryRouteReadsQueryString(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/memory/structural?property=topic&value=go")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []interface{}{"n1"}, got["node_ids"])
}

func TestWebRTCOfferRouteRequiresSessionID(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/webrtc/offer", bytes.NewReader([]byte(`{}`)))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/kodewerx/memoria/pkg/backend"
)

// decodeBody JSON-decodes r's body into dst, treating an empty body as a
// no-op that leaves dst at its zero value; the route's validator then
// decides whether that is acceptable (e.g. rag_query accepts it, while
// stop_generation rejects the empty gen_id).
func decodeBody(r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func decodeChatCompletion(r *http.Request) (*backend.Request, error) {
	var body backend.ChatCompletionRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqChatCompletion, ChatCompletion: &body}, nil
}

func decodeCompletion(r *http.Request) (*backend.Request, error) {
	var body backend.CompletionRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqCompletion, Completion: &body}, nil
}

func decodeEmbeddings(r *http.Request) (*backend.Request, error) {
	var body backend.EmbeddingsRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqEmbeddings, Embeddings: &body}, nil
}

func decodeRAGQuery(r *http.Request) (*backend.Request, error) {
	var body backend.RAGQueryRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqRAGQuery, RAGQuery: &body}, nil
}

func decodeRerank(r *http.Request) (*backend.Request, error) {
	var body backend.RerankRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqRerank, Rerank: &body}, nil
}

func decodeStopGeneration(r *http.Request) (*backend.Request, error) {
	var body backend.StopGenerationRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqStopGeneration, StopGeneration: &body}, nil
}

func decodeBatchApply(r *http.Request) (*backend.Request, error) {
	var body backend.BatchOperationRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqBatchApply, BatchOperation: &body}, nil
}

func decodeStructuralIndex(r *http.Request) (*backend.Request, error) {
	var body backend.StructuralIndexRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqStructuralIndex, StructuralIndex: &body}, nil
}

// decodeStructuralQuery reads property/value from the query string, since
// GET /v1/memory/structural carries no body.
func decodeStructuralQuery(r *http.Request) (*backend.Request, error) {
	q := r.URL.Query()
	return &backend.Request{Kind: backend.ReqStructuralQuery, StructuralQuery: &backend.StructuralQueryRequest{
		Property: q.Get("property"), Value: q.Get("value"),
	}}, nil
}

func decodeAudioStreamConfig(r *http.Request) (*backend.Request, error) {
	var body backend.AudioStreamConfigRequest
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return &backend.Request{Kind: backend.ReqAudioStreamConfig, AudioStreamConfig: &body}, nil
}

// decodeModelName builds a decoder for the four model-lifecycle routes,
// which all share a {"model": "..."} body shape.
func decodeModelName(kind backend.RequestKind) decoder {
	return func(r *http.Request) (*backend.Request, error) {
		var body struct {
			Model string `json:"model"`
		}
		if err := decodeBody(r, &body); err != nil {
			return nil, err
		}
		req := &backend.Request{Kind: kind}
		switch kind {
		case backend.ReqModelPull:
			req.ModelPull = &backend.ModelPullRequest{Model: body.Model}
		case backend.ReqModelDelete:
			req.ModelDelete = &backend.ModelDeleteRequest{Model: body.Model}
		case backend.ReqModelLoad:
			req.ModelLoad = &backend.ModelLoadRequest{Model: body.Model}
		case backend.ReqModelUnload:
			req.ModelUnload = &backend.ModelUnloadRequest{Model: body.Model}
		}
		return req, nil
	}
}

// decodeEmpty builds a decoder for GET routes that carry no body.
func decodeEmpty(kind backend.RequestKind) decoder {
	return func(r *http.Request) (*backend.Request, error) {
		return &backend.Request{Kind: kind}, nil
	}
}

// decodeWebRTCSessionGet builds the ReqWebRTCSession decoder for
// GET /v1/webrtc/session/{session_id}: the path segment names the session,
// State is left empty so the backend treats the call as a pure query
// (§6.1, §6.3).
func decodeWebRTCSessionGet(r *http.Request) (*backend.Request, error) {
	id := r.PathValue("session_id")
	return &backend.Request{Kind: backend.ReqWebRTCSession, WebRTCSession: &backend.WebRTCSessionStateRequest{SessionID: id}}, nil
}

// decodeWebRTCSignaling builds a decoder for the offer/answer/ice signaling
// routes: the SDP/ICE payload itself is an external collaborator's concern
// (§1, §6.3 — negotiation below the data-channel message level is out of
// scope), so these routes only extract session_id and mark the session's
// state, giving the core something to log and the session-state route
// something to report.
func decodeWebRTCSignaling(fixedState string) decoder {
	return func(r *http.Request) (*backend.Request, error) {
		var body struct {
			SessionID string `json:"session_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqWebRTCSession, WebRTCSession: &backend.WebRTCSessionStateRequest{
			SessionID: body.SessionID, State: fixedState,
		}}, nil
	}
}

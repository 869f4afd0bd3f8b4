package native

import (
	"encoding/json"
	"fmt"

	"github.com/kodewerx/memoria/pkg/apierr"
	"github.com/kodewerx/memoria/pkg/backend"
)

// requestEnvelope is the wire shape of one incoming native-messaging frame
// (§6.2).
type requestEnvelope struct {
	RequestID string          `json:"request_id"`
	Route     string          `json:"route"`
	Payload   json.RawMessage `json:"payload"`
}

// responseEnvelope is the wire shape of one outgoing frame (§6.2).
type responseEnvelope struct {
	RequestID string        `json:"request_id"`
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *apierr.Error `json:"error,omitempty"`
}

// routeAliases maps the native-messaging route_id vocabulary (§6.2: "chat",
// "pull_model", "get_hardware_info", ...) onto the dispatcher's canonical
// route ids, which the HTTP transport addresses directly by path.
var routeAliases = map[string]string{
	"chat":                  "chat_completion",
	"generate":              "completion",
	"completion":            "completion",
	"completions":           "completion",
	"embeddings":            "embeddings",
	"rag_query":             "rag_query",
	"rerank":                "rerank",
	"pull_model":            "model_pull",
	"delete_model":          "model_delete",
	"load_model":            "model_load",
	"unload_model":          "model_unload",
	"loaded_models":         "loaded_models",
	"get_hardware_info":     "system_info",
	"system_info":           "system_info",
	"resources":             "resources",
	"stop_generation":       "stop_generation",
	"halt":                  "stop_generation",
	"audio_stream_config":   "audio_stream_config",
	"webrtc_session_state":  "webrtc_session_state",
	"batch_apply":           "batch_apply",
	"structural_index":      "structural_index",
	"structural_query":      "structural_query",
}

// canonicalRoute resolves a wire route_id to the dispatcher's route id.
func canonicalRoute(wireRoute string) string {
	if canon, ok := routeAliases[wireRoute]; ok {
		return canon
	}
	return wireRoute
}

// decodeEnvelope turns a raw frame body into the canonical route id plus a
// backend.Request built from its payload.
func decodeEnvelope(body []byte) (string, string, *backend.Request, error) {
	var env requestEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", "", nil, fmt.Errorf("native: decode envelope: %w", err)
	}
	routeID := canonicalRoute(env.Route)

	req, err := payloadToRequest(routeID, env.Payload)
	if err != nil {
		return env.RequestID, routeID, nil, err
	}
	return env.RequestID, routeID, req, nil
}

// payloadToRequest unmarshals env.Payload into the backend.Request variant
// routeID expects, mirroring the per-route decoders in
// pkg/transport/http/decode.go for the stdio wire format.
func payloadToRequest(routeID string, payload json.RawMessage) (*backend.Request, error) {
	unmarshal := func(dst interface{}) error {
		if len(payload) == 0 {
			return nil
		}
		return json.Unmarshal(payload, dst)
	}

	switch backend.RequestKind(routeID) {
	case backend.ReqChatCompletion:
		var body backend.ChatCompletionRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqChatCompletion, ChatCompletion: &body}, nil
	case backend.ReqCompletion:
		var body backend.CompletionRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqCompletion, Completion: &body}, nil
	case backend.ReqEmbeddings:
		var body backend.EmbeddingsRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqEmbeddings, Embeddings: &body}, nil
	case backend.ReqRAGQuery:
		var body backend.RAGQueryRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqRAGQuery, RAGQuery: &body}, nil
	case backend.ReqRerank:
		var body backend.RerankRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqRerank, Rerank: &body}, nil
	case backend.ReqStopGeneration:
		var body backend.StopGenerationRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqStopGeneration, StopGeneration: &body}, nil
	case backend.ReqAudioStreamConfig:
		var body backend.AudioStreamConfigRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqAudioStreamConfig, AudioStreamConfig: &body}, nil
	case backend.ReqWebRTCSession:
		var body backend.WebRTCSessionStateRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqWebRTCSession, WebRTCSession: &body}, nil
	case backend.ReqModelPull:
		var body backend.ModelPullRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqModelPull, ModelPull: &body}, nil
	case backend.ReqModelDelete:
		var body backend.ModelDeleteRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqModelDelete, ModelDelete: &body}, nil
	case backend.ReqModelLoad:
		var body backend.ModelLoadRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqModelLoad, ModelLoad: &body}, nil
	case backend.ReqModelUnload:
		var body backend.ModelUnloadRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqModelUnload, ModelUnload: &body}, nil
	case backend.ReqLoadedModels:
		return &backend.Request{Kind: backend.ReqLoadedModels}, nil
	case backend.ReqSystemInfo:
		return &backend.Request{Kind: backend.ReqSystemInfo}, nil
	case backend.ReqResources:
		return &backend.Request{Kind: backend.ReqResources}, nil
	case backend.ReqBatchApply:
		var body backend.BatchOperationRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqBatchApply, BatchOperation: &body}, nil
	case backend.ReqStructuralIndex:
		var body backend.StructuralIndexRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqStructuralIndex, StructuralIndex: &body}, nil
	case backend.ReqStructuralQuery:
		var body backend.StructuralQueryRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqStructuralQuery, StructuralQuery: &body}, nil
	default:
		return nil, fmt.Errorf("native: unknown route %q", routeID)
	}
}

// encodeSuccess builds the wire response envelope for a successful
// dispatch.
func encodeSuccess(requestID string, resp *backend.Response) ([]byte, error) {
	data, err := resp.ToJSONValue()
	if err != nil {
		return nil, err
	}
	return json.Marshal(responseEnvelope{RequestID: requestID, Success: true, Data: data})
}

// encodeError builds the wire response envelope for a failed dispatch.
func encodeError(requestID string, err error) []byte {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		apiErr = apierr.New(apierr.KindInternal, err.Error())
	}
	data, marshalErr := json.Marshal(responseEnvelope{RequestID: requestID, Success: false, Error: apiErr})
	if marshalErr != nil {
		return []byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"failed to encode error"}}`)
	}
	return data
}

package webrtc

import (
	"encoding/json"
	"fmt"

	"github.com/kodewerx/memoria/pkg/apierr"
	"github.com/kodewerx/memoria/pkg/backend"
)

// messageEnvelope is the wire shape of one incoming data-channel message
// (§6.3: identical to the native-messaging envelope of §6.2).
type messageEnvelope struct {
	RequestID string          `json:"request_id"`
	Route     string          `json:"route"`
	Payload   json.RawMessage `json:"payload"`
}

// replyEnvelope is the wire shape of one outgoing data-channel message.
type replyEnvelope struct {
	RequestID string        `json:"request_id"`
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *apierr.Error `json:"error,omitempty"`
}

// routeAliases maps the wire-level route vocabulary used by audio/media
// and session routes onto the dispatcher's canonical route ids (mirrors
// pkg/transport/native's alias table for the subset of routes a data
// channel actually carries: media config and session-state reports).
var routeAliases = map[string]string{
	"audio_stream_config": "audio_stream_config",
	"webrtc_session_state": "webrtc_session_state",
	"session_state":        "webrtc_session_state",
}

func canonicalRoute(wireRoute string) string {
	if canon, ok := routeAliases[wireRoute]; ok {
		return canon
	}
	return wireRoute
}

// decodeMessage turns a raw data-channel message into the canonical route
// id plus the backend.Request its payload describes.
func decodeMessage(data []byte) (string, string, *backend.Request, error) {
	var env messageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", "", nil, fmt.Errorf("webrtc: decode envelope: %w", err)
	}
	routeID := canonicalRoute(env.Route)

	req, err := payloadToRequest(routeID, env.Payload)
	if err != nil {
		return env.RequestID, routeID, nil, err
	}
	return env.RequestID, routeID, req, nil
}

// payloadToRequest unmarshals payload into the backend.Request variant
// routeID expects. A data channel only ever carries the media and session
// routes plus whatever inference routes a caller chooses to expose over
// it; the switch below covers every route this transport's metadata marks
// SupportsStreaming/SupportsBinary or session-related (§4.9, §6.3).
func payloadToRequest(routeID string, payload json.RawMessage) (*backend.Request, error) {
	unmarshal := func(dst interface{}) error {
		if len(payload) == 0 {
			return nil
		}
		return json.Unmarshal(payload, dst)
	}

	switch backend.RequestKind(routeID) {
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
	case backend.ReqChatCompletion:
		var body backend.ChatCompletionRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqChatCompletion, ChatCompletion: &body}, nil
	case backend.ReqRAGQuery:
		var body backend.RAGQueryRequest
		if err := unmarshal(&body); err != nil {
			return nil, err
		}
		return &backend.Request{Kind: backend.ReqRAGQuery, RAGQuery: &body}, nil
	default:
		return nil, fmt.Errorf("webrtc: unknown route %q", routeID)
	}
}

// encodeSuccess builds the wire reply for a successful dispatch.
func encodeSuccess(requestID string, resp *backend.Response) ([]byte, error) {
	data, err := resp.ToJSONValue()
	if err != nil {
		return nil, err
	}
	return json.Marshal(replyEnvelope{RequestID: requestID, Success: true, Data: data})
}

// encodeError builds the wire reply for a failed dispatch.
func encodeError(requestID string, err error) []byte {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		apiErr = apierr.New(apierr.KindInternal, err.Error())
	}
	data, marshalErr := json.Marshal(replyEnvelope{RequestID: requestID, Success: false, Error: apiErr})
	if marshalErr != nil {
		return []byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"failed to encode error"}}`)
	}
	return data
}

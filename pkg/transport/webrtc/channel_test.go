package webrtc

import (
	"encoding/json"
	"testing"

	"github.com/kodewerx/memoria/pkg/backend"
	"github.com/kodewerx/memoria/pkg/routedispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoApp struct{}

func (echoApp) HandleRequest(req *backend.Request) (*backend.Response, error) {
	resp := &backend.Response{Kind: req.Kind}
	switch req.Kind {
	case backend.ReqAudioStreamConfig:
		resp.AudioStreamConfig = &backend.AudioStreamConfigResponse{Accepted: *req.AudioStreamConfig}
	case backend.ReqWebRTCSession:
		resp.WebRTCSession = &backend.WebRTCSessionStateResponse{
			SessionID: req.WebRTCSession.SessionID, State: req.WebRTCSession.State,
		}
	}
	return resp, nil
}

func newTestDispatcher() *routedispatch.Dispatcher {
	rl := routedispatch.NewRateLimiter(map[string]int{"standard": 1000, "inference": 1000})
	chain := routedispatch.DefaultChain(rl, map[string]bool{"good-token": true})
	d := routedispatch.NewDispatcher(echoApp{}, chain)
	routedispatch.RegisterDefaultRoutes(d)
	return d
}

func encodeFrame(t *testing.T, requestID, route string, payload interface{}) []byte {
	t.Helper()
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(messageEnvelope{RequestID: requestID, Route: route, Payload: payloadBytes})
	require.NoError(t, err)
	return body
}

func TestChannelHandleMessageDispatchesAudioStreamConfig(t *testing.T) {
	ch := NewChannel(newTestDispatcher(), "session-1", "good-token")

	in := encodeFrame(t, "r1", "audio_stream_config", backend.AudioStreamConfigRequest{
		SampleRateHz: 48000, Channels: 1, BitrateKbps: 64, Codec: "opus",
	})
	out := ch.HandleMessage(in)

	var resp replyEnvelope
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "r1", resp.RequestID)
	assert.True(t, resp.Success)
}

func TestChannelHandleMessageRejectsBadSampleRate(t *testing.T) {
	ch := NewChannel(newTestDispatcher(), "session-1", "good-token")

	in := encodeFrame(t, "r2", "audio_stream_config", backend.AudioStreamConfigRequest{
		SampleRateHz: 44100, Channels: 1, BitrateKbps: 64, Codec: "opus",
	})
	out := ch.HandleMessage(in)

	var resp replyEnvelope
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", string(resp.Error.Kind))
}

func TestChannelOpenAndCloseReportSessionState(t *testing.T) {
	ch := NewChannel(newTestDispatcher(), "session-2", "good-token")

	require.NoError(t, ch.Open())
	require.NoError(t, ch.Close())
}

func TestChannelHandleMessageRejectsUnknownRoute(t *testing.T) {
	ch := NewChannel(newTestDispatcher(), "session-1", "good-token")

	in := encodeFrame(t, "r3", "does_not_exist", struct{}{})
	out := ch.HandleMessage(in)

	var resp replyEnvelope
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
}

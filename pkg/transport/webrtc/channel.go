package webrtc

import (
	"github.com/google/uuid"
	"github.com/kodewerx/memoria/pkg/backend"
	"github.com/kodewerx/memoria/pkg/routedispatch"
)

// Channel drives the request/response loop for one peer connection's data
// channel. It holds no reference to the underlying peer connection itself
// (negotiation is out of scope, §1); callers feed it inbound messages and
// take its outbound replies.
type Channel struct {
	dispatcher *routedispatch.Dispatcher
	sessionID  string
	clientID   string
	authToken  string
}

// NewChannel builds a Channel dispatching onto d for the peer identified by
// sessionID (used both for rate limiting, as clientID, and for correlating
// ReqWebRTCSession state reports).
func NewChannel(d *routedispatch.Dispatcher, sessionID, authToken string) *Channel {
	return &Channel{dispatcher: d, sessionID: sessionID, clientID: sessionID, authToken: authToken}
}

// HandleMessage decodes one inbound data-channel message (text or binary,
// both carry the same JSON envelope, §6.3) and returns the reply message
// to send back on the same channel.
func (c *Channel) HandleMessage(data []byte) []byte {
	requestID, routeID, req, err := decodeMessage(data)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if err != nil {
		return encodeError(requestID, err)
	}

	inv := &routedispatch.Invocation{ClientID: c.clientID, RequestID: requestID, AuthToken: c.authToken}
	resp, err := c.dispatcher.Dispatch(routeID, inv, req)
	if err != nil {
		return encodeError(requestID, err)
	}

	out, err := encodeSuccess(requestID, resp)
	if err != nil {
		return encodeError(requestID, err)
	}
	return out
}

// Open records the session as connected with the backend (§6.3, §13 — the
// core tracks session state without performing negotiation itself).
func (c *Channel) Open() error {
	return c.setSessionState("connected")
}

// Close records the session as closed. It is safe to call more than once;
// ReqWebRTCSession's handler treats state reports as idempotent writes.
func (c *Channel) Close() error {
	return c.setSessionState("closed")
}

func (c *Channel) setSessionState(state string) error {
	inv := &routedispatch.Invocation{ClientID: c.clientID, RequestID: uuid.NewString(), AuthToken: c.authToken}
	req := &backend.Request{Kind: backend.ReqWebRTCSession, WebRTCSession: &backend.WebRTCSessionStateRequest{
		SessionID: c.sessionID, State: state,
	}}
	_, err := c.dispatcher.Dispatch("webrtc_session_state", inv, req)
	return err
}

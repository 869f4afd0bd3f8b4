/*
Package webrtc implements the WebRTC data-channel transport (§6.3): one
route-dispatch client per peer connection's data channel, using the same
envelope JSON shape as native messaging (request_id, route, payload in;
request_id, success, data|error out), but framed as whole messages rather
than length-prefixed stdio frames, since a data channel already delivers
discrete messages.

SDP offer/answer negotiation and ICE candidate exchange happen below the
data-channel message level and are an external collaborator's concern
(§1); this package starts from an already-open channel. Session lifecycle
(open/close) is reported to the backend as a ReqWebRTCSession state
transition so the HTTP session-state route and the native/WebRTC peers
agree on one source of truth.
*/
package webrtc

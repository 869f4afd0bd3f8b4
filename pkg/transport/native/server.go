package native

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/kodewerx/memoria/pkg/routedispatch"
)

// Server drives the native-messaging request/response loop over an
// arbitrary io.Reader/io.Writer pair — os.Stdin/os.Stdout in production,
// an in-memory pipe in tests.
type Server struct {
	dispatcher *routedispatch.Dispatcher
}

// NewServer builds a Server dispatching onto d.
func NewServer(d *routedispatch.Dispatcher) *Server {
	return &Server{dispatcher: d}
}

// Serve reads frames from r and writes response frames to w until r
// reaches EOF or ctx-independent I/O fails. clientID identifies the
// connected extension/peer for rate limiting; auth token comes from each
// envelope's own fields in a fuller protocol, but this transport has none
// to carry beyond the frame itself, so every request runs as the same
// client.
func (s *Server) Serve(r io.Reader, w io.Writer, clientID string, authToken string) error {
	for {
		body, err := ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.handleFrame(body, w, clientID, authToken); err != nil {
			return err
		}
	}
}

func (s *Server) handleFrame(body []byte, w io.Writer, clientID, authToken string) error {
	requestID, routeID, req, err := decodeEnvelope(body)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if err != nil {
		return WriteFrame(w, encodeError(requestID, err))
	}

	inv := &routedispatch.Invocation{ClientID: clientID, RequestID: requestID, AuthToken: authToken}
	resp, err := s.dispatcher.Dispatch(routeID, inv, req)
	if err != nil {
		return WriteFrame(w, encodeError(requestID, err))
	}

	out, err := encodeSuccess(requestID, resp)
	if err != nil {
		return WriteFrame(w, encodeError(requestID, err))
	}
	return WriteFrame(w, out)
}

package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kodewerx/memoria/pkg/apierr"
	"github.com/kodewerx/memoria/pkg/backend"
	"github.com/kodewerx/memoria/pkg/routedispatch"
)

// Server is the HTTP transport: one net/http.ServeMux routing onto a
// routedispatch.Dispatcher (§6.1).
type Server struct {
	mux        *http.ServeMux
	dispatcher *routedispatch.Dispatcher
}

// NewServer builds a Server with every route from
// routedispatch.RegisterDefaultRoutes mounted at its HTTP path.
func NewServer(dispatcher *routedispatch.Dispatcher) *Server {
	s := &Server{mux: http.NewServeMux(), dispatcher: dispatcher}
	s.routes()
	return s
}

// Handler returns the underlying http.Handler, for embedding in another
// server or a test httptest.Server.
func (s *Server) Handler() http.Handler { return s.mux }

// Start blocks serving addr, following the teacher's
// &http.Server{ReadTimeout, WriteTimeout, IdleTimeout} idiom
// (pkg/api/health.go).
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) routes() {
	mux := s.mux

	mux.HandleFunc("POST /v1/chat/completions", s.route("chat_completion", decodeChatCompletion))
	mux.HandleFunc("POST /v1/completions", s.route("completion", decodeCompletion))
	mux.HandleFunc("POST /v1/embeddings", s.route("embeddings", decodeEmbeddings))
	mux.HandleFunc("POST /v1/rag/query", s.route("rag_query", decodeRAGQuery))
	mux.HandleFunc("POST /v1/memory/query", s.route("rag_query", decodeRAGQuery))
	mux.HandleFunc("POST /v1/rerank", s.route("rerank", decodeRerank))

	mux.HandleFunc("POST /v1/generation/stop", s.route("stop_generation", decodeStopGeneration))
	mux.HandleFunc("POST /v1/halt", s.route("halt", decodeStopGeneration))

	mux.HandleFunc("POST /v1/models/pull", s.route("model_pull", decodeModelName(backend.ReqModelPull)))
	mux.HandleFunc("DELETE /v1/models/delete", s.route("model_delete", decodeModelName(backend.ReqModelDelete)))
	mux.HandleFunc("POST /v1/models/load", s.route("model_load", decodeModelName(backend.ReqModelLoad)))
	mux.HandleFunc("POST /v1/load", s.route("load", decodeModelName(backend.ReqModelLoad)))
	mux.HandleFunc("POST /v1/models/unload", s.route("model_unload", decodeModelName(backend.ReqModelUnload)))
	mux.HandleFunc("POST /v1/unload", s.route("unload", decodeModelName(backend.ReqModelUnload)))

	mux.HandleFunc("GET /v1/models/loaded", s.route("loaded_models", decodeEmpty(backend.ReqLoadedModels)))
	mux.HandleFunc("GET /v1/resources/loaded-models", s.route("resources/loaded-models", decodeEmpty(backend.ReqLoadedModels)))
	mux.HandleFunc("GET /v1/system/info", s.route("system_info", decodeEmpty(backend.ReqSystemInfo)))
	mux.HandleFunc("GET /v1/resources", s.route("resources", decodeEmpty(backend.ReqResources)))

	mux.HandleFunc("POST /v1/audio/stream", s.route("audio_stream_config", decodeAudioStreamConfig))

	mux.HandleFunc("POST /v1/webrtc/offer", s.route("webrtc_session_state", decodeWebRTCSignaling("offer_received")))
	mux.HandleFunc("POST /v1/webrtc/answer", s.route("webrtc_session_state", decodeWebRTCSignaling("answer_received")))
	mux.HandleFunc("POST /v1/webrtc/ice", s.route("webrtc_session_state", decodeWebRTCSignaling("ice_candidate_received")))
	mux.HandleFunc("GET /v1/webrtc/session/{session_id}", s.route("webrtc_session_state", decodeWebRTCSessionGet))

	mux.HandleFunc("POST /v1/memory/batch", s.route("batch_apply", decodeBatchApply))
	mux.HandleFunc("POST /v1/memory/structural", s.route("structural_index", decodeStructuralIndex))
	mux.HandleFunc("GET /v1/memory/structural", s.route("structural_query", decodeStructuralQuery))
}

// decoder turns an incoming HTTP request body into the union request its
// route expects.
type decoder func(r *http.Request) (*backend.Request, error)

// route builds the http.HandlerFunc shared by every endpoint: decode body,
// run it through the dispatcher (which applies the full middleware chain),
// encode the result or the classified error.
func (s *Server) route(routeID string, decode decoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decode(r)
		if err != nil {
			writeError(w, "", apierr.Newf(apierr.KindJSON, "decode request body: %v", err))
			return
		}

		inv := &routedispatch.Invocation{
			ClientID:  clientID(r),
			RequestID: uuid.NewString(),
			AuthToken: bearerToken(r),
		}

		resp, err := s.dispatcher.Dispatch(routeID, inv, req)
		if err != nil {
			writeError(w, inv.RequestID, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func clientID(r *http.Request) string {
	if id := r.Header.Get("X-Client-Id"); id != "" {
		return id
	}
	return r.RemoteAddr
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	return strings.TrimPrefix(h, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, resp *backend.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := resp.ToJSON()
	if err != nil {
		return
	}
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, requestID string, err error) {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		apiErr = apierr.New(apierr.KindInternal, err.Error())
	}
	if apiErr.RequestID == "" && requestID != "" {
		apiErr = apiErr.WithRequestID(requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apierr.HTTPStatus(apiErr.Kind))
	_ = json.NewEncoder(w).Encode(apiErr)
}

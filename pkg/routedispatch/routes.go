package routedispatch

import "github.com/kodewerx/memoria/pkg/backend"

// funcRoute is a Route built from plain functions rather than a dedicated
// type per operation — the union-of-requests shape of backend.Request
// already carries the type information each operation needs, so a route
// is just metadata plus a validate func plus a dispatch to
// AppStateProvider.HandleRequest (§4.9, §4.10).
type funcRoute struct {
	meta      Metadata
	validate  func(req *backend.Request) error
	testCases []TestCase
}

func (r *funcRoute) Metadata() Metadata { return r.meta }

func (r *funcRoute) ValidateRequest(req *backend.Request) error {
	if r.validate == nil {
		return nil
	}
	return r.validate(req)
}

func (r *funcRoute) Handle(req *backend.Request, app backend.AppStateProvider) (*backend.Response, error) {
	return app.HandleRequest(req)
}

func (r *funcRoute) TestCases() []TestCase { return r.testCases }

// NewRoute constructs a Route from metadata, a validator and its test
// fixtures. Handle always funnels through AppStateProvider.HandleRequest;
// routes differ in metadata and validation, not in dispatch mechanics.
func NewRoute(meta Metadata, validate func(req *backend.Request) error, testCases []TestCase) Route {
	return &funcRoute{meta: meta, validate: validate, testCases: testCases}
}

// ChatCompletionRoute validates temperature in [0,2] and max_tokens in
// [1,100000] (§12, carried verbatim from api/src/routes/generate.rs).
func ChatCompletionRoute() Route {
	return NewRoute(
		Metadata{ID: "chat_completion", Path: "/v1/chat/completions", Method: "POST", RequiresAuth: true, RateLimitTier: "inference"},
		func(req *backend.Request) error {
			c := req.ChatCompletion
			if c == nil {
				return Run(NotEmpty("messages", ""))
			}
			if len(c.Messages) == 0 {
				return Run(NotEmpty("messages", ""))
			}
			return Run(
				InRange("temperature", c.Temperature, 0.0, 2.0),
				InIntRange("max_tokens", c.MaxTokens, 1, 100000),
			)
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqChatCompletion, ChatCompletion: &backend.ChatCompletionRequest{Model: "m", Messages: []backend.ChatMessage{{Role: "user", Content: "hi"}}, Temperature: 0.7, MaxTokens: 64}}},
			{Name: "temperature too high", WantErr: true, Request: &backend.Request{Kind: backend.ReqChatCompletion, ChatCompletion: &backend.ChatCompletionRequest{Model: "m", Messages: []backend.ChatMessage{{Role: "user", Content: "hi"}}, Temperature: 2.1, MaxTokens: 64}}},
			{Name: "max_tokens too large", WantErr: true, Request: &backend.Request{Kind: backend.ReqChatCompletion, ChatCompletion: &backend.ChatCompletionRequest{Model: "m", Messages: []backend.ChatMessage{{Role: "user", Content: "hi"}}, Temperature: 0.7, MaxTokens: 100001}}},
		},
	)
}

// CompletionRoute mirrors ChatCompletionRoute's bounds for the plain
// text-completion operation (§12).
func CompletionRoute() Route {
	return NewRoute(
		Metadata{ID: "completion", Path: "/v1/completions", Method: "POST", RequiresAuth: true, RateLimitTier: "inference"},
		func(req *backend.Request) error {
			c := req.Completion
			if c == nil {
				return Run(NotEmpty("prompt", ""))
			}
			return Run(
				NotEmpty("prompt", c.Prompt),
				InRange("temperature", c.Temperature, 0.0, 2.0),
				InIntRange("max_tokens", c.MaxTokens, 1, 100000),
			)
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqCompletion, Completion: &backend.CompletionRequest{Model: "m", Prompt: "once upon a time", Temperature: 1.0, MaxTokens: 32}}},
			{Name: "empty prompt", WantErr: true, Request: &backend.Request{Kind: backend.ReqCompletion, Completion: &backend.CompletionRequest{Model: "m", Temperature: 1.0, MaxTokens: 32}}},
		},
	)
}

// EmbeddingsRoute requires at least one input string.
func EmbeddingsRoute() Route {
	return NewRoute(
		Metadata{ID: "embeddings", Path: "/v1/embeddings", Method: "POST", RequiresAuth: true, RateLimitTier: "inference"},
		func(req *backend.Request) error {
			e := req.Embeddings
			if e == nil || len(e.Input) == 0 {
				return Run(NotEmpty("input", ""))
			}
			return nil
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqEmbeddings, Embeddings: &backend.EmbeddingsRequest{Model: "m", Input: []string{"hello"}}}},
			{Name: "empty input", WantErr: true, Request: &backend.Request{Kind: backend.ReqEmbeddings, Embeddings: &backend.EmbeddingsRequest{Model: "m"}}},
		},
	)
}

// RAGQueryRoute validates k is in [1,1000] (§12, default 10 applied by the
// backend when k is zero).
func RAGQueryRoute() Route {
	return NewRoute(
		Metadata{ID: "rag_query", Path: "/v1/rag/query", Method: "POST", RequiresAuth: true, RateLimitTier: "standard"},
		func(req *backend.Request) error {
			q := req.RAGQuery
			if q == nil {
				return Run(NotEmpty("query", ""))
			}
			if q.K == 0 {
				return nil // backend defaults to 10
			}
			return Run(InIntRange("k", q.K, 1, 1000))
		},
		[]TestCase{
			{Name: "valid default k", Request: &backend.Request{Kind: backend.ReqRAGQuery, RAGQuery: &backend.RAGQueryRequest{Query: "q"}}},
			{Name: "k too large", WantErr: true, Request: &backend.Request{Kind: backend.ReqRAGQuery, RAGQuery: &backend.RAGQueryRequest{Query: "q", K: 1001}}},
		},
	)
}

// RerankRoute validates top_n does not exceed the document count (§12).
func RerankRoute() Route {
	return NewRoute(
		Metadata{ID: "rerank", Path: "/v1/rerank", Method: "POST", RequiresAuth: true, RateLimitTier: "standard"},
		func(req *backend.Request) error {
			rr := req.Rerank
			if rr == nil || len(rr.Documents) == 0 {
				return Run(NotEmpty("documents", ""))
			}
			if rr.TopN == 0 {
				return nil
			}
			return Run(TopNWithinBounds(rr.TopN, len(rr.Documents)))
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqRerank, Rerank: &backend.RerankRequest{Query: "q", Documents: []string{"a", "b"}, TopN: 1}}},
			{Name: "top_n exceeds documents", WantErr: true, Request: &backend.Request{Kind: backend.ReqRerank, Rerank: &backend.RerankRequest{Query: "q", Documents: []string{"a"}, TopN: 5}}},
		},
	)
}

// StopGenerationRoute requires a non-empty gen_id; stopping an unknown id
// is a successful no-op handled by the backend, not a validation error.
func StopGenerationRoute() Route {
	return NewRoute(
		Metadata{ID: "stop_generation", Path: "/v1/generation/stop", Method: "POST", RequiresAuth: true, RateLimitTier: "standard", Idempotent: true},
		func(req *backend.Request) error {
			return Run(NotEmpty("gen_id", req.StopGeneration.GenID))
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqStopGeneration, StopGeneration: &backend.StopGenerationRequest{GenID: "g1"}}},
			{Name: "empty gen_id", WantErr: true, Request: &backend.Request{Kind: backend.ReqStopGeneration, StopGeneration: &backend.StopGenerationRequest{}}},
		},
	)
}

// AudioStreamConfigRoute is a WebRTC/native media route; its metadata
// carries the transport-specific fields from §12.
func AudioStreamConfigRoute() Route {
	return NewRoute(
		Metadata{
			ID: "audio_stream_config", Path: "/v1/audio/stream", Method: "POST",
			RequiresAuth: true, RateLimitTier: "standard",
			SupportsStreaming: true, SupportsBinary: true,
			MaxPayloadSize: 1 << 20, MediaType: "audio/opus",
		},
		func(req *backend.Request) error {
			c := req.AudioStreamConfig
			if c == nil {
				return Run(NotEmpty("codec", ""))
			}
			return Run(
				ValidSampleRate(c.SampleRateHz),
				ValidAudioCodec(c.Codec),
				ValidChannels(c.Channels),
				ValidBitrate(c.BitrateKbps),
			)
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqAudioStreamConfig, AudioStreamConfig: &backend.AudioStreamConfigRequest{SampleRateHz: 48000, Channels: 1, BitrateKbps: 64, Codec: "opus"}}},
			{Name: "bad sample rate", WantErr: true, Request: &backend.Request{Kind: backend.ReqAudioStreamConfig, AudioStreamConfig: &backend.AudioStreamConfigRequest{SampleRateHz: 44100, Channels: 1, BitrateKbps: 64, Codec: "opus"}}},
			{Name: "bad channel count", WantErr: true, Request: &backend.Request{Kind: backend.ReqAudioStreamConfig, AudioStreamConfig: &backend.AudioStreamConfigRequest{SampleRateHz: 48000, Channels: 0, BitrateKbps: 64, Codec: "opus"}}},
		},
	)
}

// WebRTCSessionRoute requires a session id. It backs the HTTP session-state
// query (GET /v1/webrtc/session/{session_id}) as well as the three
// signaling routes (offer/answer/ice) and native/WebRTC data-channel state
// reports, all of which funnel through the same ReqWebRTCSession variant.
func WebRTCSessionRoute() Route {
	return NewRoute(
		Metadata{ID: "webrtc_session_state", Path: "/v1/webrtc/session/{session_id}", Method: "GET", RequiresAuth: true, RateLimitTier: "standard"},
		func(req *backend.Request) error {
			return Run(NotEmpty("session_id", req.WebRTCSession.SessionID))
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqWebRTCSession, WebRTCSession: &backend.WebRTCSessionStateRequest{SessionID: "s1", State: "connected"}}},
			{Name: "empty session id", WantErr: true, Request: &backend.Request{Kind: backend.ReqWebRTCSession, WebRTCSession: &backend.WebRTCSessionStateRequest{}}},
		},
	)
}

// BatchApplyRoute requires at least one operation (§4.7).
func BatchApplyRoute() Route {
	return NewRoute(
		Metadata{ID: "batch_apply", Path: "/v1/memory/batch", Method: "POST", RequiresAuth: true, RateLimitTier: "standard"},
		func(req *backend.Request) error {
			b := req.BatchOperation
			if b == nil || len(b.Ops) == 0 {
				return Run(NotEmpty("ops", ""))
			}
			return nil
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqBatchApply, BatchOperation: &backend.BatchOperationRequest{Ops: []backend.BatchOpRequest{{Kind: "add_node", ID: "n1"}}}}},
			{Name: "empty ops", WantErr: true, Request: &backend.Request{Kind: backend.ReqBatchApply, BatchOperation: &backend.BatchOperationRequest{}}},
		},
	)
}

// StructuralIndexRoute requires property and node_id (§4.6).
func StructuralIndexRoute() Route {
	return NewRoute(
		Metadata{ID: "structural_index", Path: "/v1/memory/structural", Method: "POST", RequiresAuth: true, RateLimitTier: "standard"},
		func(req *backend.Request) error {
			s := req.StructuralIndex
			if s == nil {
				return Run(NotEmpty("property", ""))
			}
			return Run(NotEmpty("property", s.Property), NotEmpty("node_id", s.NodeID))
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqStructuralIndex, StructuralIndex: &backend.StructuralIndexRequest{Property: "topic", Value: "go", NodeID: "n1"}}},
			{Name: "missing node_id", WantErr: true, Request: &backend.Request{Kind: backend.ReqStructuralIndex, StructuralIndex: &backend.StructuralIndexRequest{Property: "topic", Value: "go"}}},
		},
	)
}

// StructuralQueryRoute requires property (§4.6); value may be empty, in
// which case only ids recorded with an empty value match.
func StructuralQueryRoute() Route {
	return NewRoute(
		Metadata{ID: "structural_query", Path: "/v1/memory/structural", Method: "GET", RateLimitTier: "standard"},
		func(req *backend.Request) error {
			q := req.StructuralQuery
			if q == nil {
				return Run(NotEmpty("property", ""))
			}
			return Run(NotEmpty("property", q.Property))
		},
		[]TestCase{
			{Name: "valid", Request: &backend.Request{Kind: backend.ReqStructuralQuery, StructuralQuery: &backend.StructuralQueryRequest{Property: "topic", Value: "go"}}},
			{Name: "missing property", WantErr: true, Request: &backend.Request{Kind: backend.ReqStructuralQuery, StructuralQuery: &backend.StructuralQueryRequest{}}},
		},
	)
}

// modelRoute builds the pull/delete/load/unload routes,
// which all share the same "model name required" validation shape.
func modelRoute(id, path string, nameOf func(req *backend.Request) string) Route {
	return NewRoute(
		Metadata{ID: id, Path: path, Method: "POST", RequiresAuth: true, RateLimitTier: "standard"},
		func(req *backend.Request) error {
			return Run(NotEmpty("model", nameOf(req)))
		},
		nil,
	)
}

// ModelPullRoute, ModelDeleteRoute, ModelLoadRoute, ModelUnloadRoute are
// the model-lifecycle routes (§4.10).
func ModelPullRoute() Route {
	return modelRoute("model_pull", "/v1/models/pull", func(r *backend.Request) string { return r.ModelPull.Model })
}
func ModelDeleteRoute() Route {
	return modelRoute("model_delete", "/v1/models/delete", func(r *backend.Request) string { return r.ModelDelete.Model })
}
func ModelLoadRoute() Route {
	return modelRoute("model_load", "/v1/models/load", func(r *backend.Request) string { return r.ModelLoad.Model })
}
func ModelUnloadRoute() Route {
	return modelRoute("model_unload", "/v1/models/unload", func(r *backend.Request) string { return r.ModelUnload.Model })
}

// LoadedModelsRoute, SystemInfoRoute, ResourcesRoute take no request body
// fields to validate.
func LoadedModelsRoute() Route {
	return NewRoute(Metadata{ID: "loaded_models", Path: "/v1/models/loaded", Method: "GET", RateLimitTier: "standard"}, nil, nil)
}
func SystemInfoRoute() Route {
	return NewRoute(Metadata{ID: "system_info", Path: "/v1/system/info", Method: "GET", RateLimitTier: "standard"}, nil, nil)
}
func ResourcesRoute() Route {
	return NewRoute(Metadata{ID: "resources", Path: "/v1/resources", Method: "GET", RateLimitTier: "standard"}, nil, nil)
}

// RegisterDefaultRoutes registers every standard route plus the §12 HTTP
// aliases (/v1/halt, /v1/load, /v1/unload, /v1/resources/loaded-models)
// onto d.
func RegisterDefaultRoutes(d *Dispatcher) {
	d.Register(ChatCompletionRoute())
	d.Register(CompletionRoute())
	d.Register(EmbeddingsRoute())
	d.Register(RAGQueryRoute())
	d.Register(RerankRoute())
	d.Register(StopGenerationRoute())
	d.Register(AudioStreamConfigRoute())
	d.Register(WebRTCSessionRoute())
	d.Register(ModelPullRoute())
	d.Register(ModelDeleteRoute())
	d.Register(ModelLoadRoute())
	d.Register(ModelUnloadRoute())
	d.Register(LoadedModelsRoute())
	d.Register(SystemInfoRoute())
	d.Register(ResourcesRoute())
	d.Register(BatchApplyRoute())
	d.Register(StructuralIndexRoute())
	d.Register(StructuralQueryRoute())

	d.Alias("stop_generation", "halt")
	d.Alias("model_load", "load")
	d.Alias("model_unload", "unload")
	d.Alias("loaded_models", "resources/loaded-models")
}

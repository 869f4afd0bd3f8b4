package backend

// RequestKind is the closed set of operations the backend accepts,
// mirrored one-to-one by a route in pkg/routedispatch (§4.9, §4.10).
type RequestKind string

const (
	ReqChatCompletion    RequestKind = "chat_completion"
	ReqCompletion        RequestKind = "completion"
	ReqEmbeddings        RequestKind = "embeddings"
	ReqRAGQuery          RequestKind = "rag_query"
	ReqRerank            RequestKind = "rerank"
	ReqModelPull         RequestKind = "model_pull"
	ReqModelDelete       RequestKind = "model_delete"
	ReqModelLoad         RequestKind = "model_load"
	ReqModelUnload       RequestKind = "model_unload"
	ReqLoadedModels      RequestKind = "loaded_models"
	ReqSystemInfo        RequestKind = "system_info"
	ReqResources         RequestKind = "resources"
	ReqMemoryEstimate    RequestKind = "memory_estimate"
	ReqStopGeneration    RequestKind = "stop_generation"
	ReqAudioStreamConfig RequestKind = "audio_stream_config"
	ReqWebRTCSession     RequestKind = "webrtc_session_state"
	ReqBatchApply        RequestKind = "batch_apply"
	ReqStructuralIndex   RequestKind = "structural_index"
	ReqStructuralQuery   RequestKind = "structural_query"
)

// ChatMessage is one turn in a ChatCompletionRequest.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest mirrors the OpenAI chat-completions shape the HTTP
// transport exposes (§12).
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
	GenID       string        `json:"-"` // not read or set by the backend; the id for StopGeneration is returned in CompletionResponse.GenID
}

// CompletionRequest is the plain (non-chat) text completion request.
type CompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
	GenID       string  `json:"-"`
}

// EmbeddingsRequest asks for embeddings of one or more input strings.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// RAGQueryRequest retrieves the k nearest stored memories to a query
// embedding (§12: k in [1,1000], default 10).
type RAGQueryRequest struct {
	Query string    `json:"query"`
	Vec   []float32 `json:"vector"`
	K     int       `json:"k"`
}

// RerankRequest reorders documents by relevance to query. TopN defaults to
// len(Documents) and must not exceed it (§12).
type RerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// ModelPullRequest/ModelDeleteRequest/ModelLoadRequest/ModelUnloadRequest
// name a model in the model-cache class (§4.10).
type ModelPullRequest struct{ Model string }
type ModelDeleteRequest struct{ Model string }
type ModelLoadRequest struct{ Model string }
type ModelUnloadRequest struct{ Model string }

// StopGenerationRequest cancels an in-flight chat/completion by its
// generation id, cooperatively, via the scheduler's CancelToken mechanism
// (§5, §13).
type StopGenerationRequest struct {
	GenID string `json:"gen_id"`
}

// AudioStreamConfigRequest describes a WebRTC/native audio stream's
// parameters before streaming begins (§12: sample rate in
// {8000,16000,24000,48000}).
type AudioStreamConfigRequest struct {
	SampleRateHz int    `json:"sample_rate_hz"`
	Channels     int    `json:"channels"`
	BitrateKbps  int    `json:"bitrate_kbps"`
	Codec        string `json:"codec"`
}

// WebRTCSessionStateRequest reports a peer connection's local session
// state; this backend tracks it without performing SDP/ICE negotiation
// itself (§6.3, §13 — negotiation is explicitly out of scope).
type WebRTCSessionStateRequest struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"` // "connecting", "connected", "closed", ...
}

// BatchOpRequest is the wire shape of one batchprocessor.Op. Only the
// fields relevant to Kind are consulted, matching batchprocessor's own
// tolerance for heterogeneous batches (§4.7).
type BatchOpRequest struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id,omitempty"`
	Vector    []float32 `json:"vector,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Weight    float32   `json:"weight,omitempty"`
	HasWeight bool      `json:"has_weight,omitempty"`
}

// BatchOperationRequest carries a list of heterogeneous vector/graph index
// operations to apply in one call (§4.7).
type BatchOperationRequest struct {
	Ops []BatchOpRequest `json:"ops"`
}

// StructuralIndexRequest records or removes a property=value membership
// fact for a node in the structural index (§4.6). Remove selects deletion
// instead of insertion.
type StructuralIndexRequest struct {
	Property string `json:"property"`
	Value    string `json:"value"`
	NodeID   string `json:"node_id"`
	Remove   bool   `json:"remove"`
}

// StructuralQueryRequest looks up every node id recorded against
// property=value (§4.6).
type StructuralQueryRequest struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Request is a closed discriminated union: Kind selects exactly one
// populated payload field, the same tagged-union shape as pkg/types.Node.
type Request struct {
	Kind RequestKind

	ChatCompletion    *ChatCompletionRequest
	Completion        *CompletionRequest
	Embeddings        *EmbeddingsRequest
	RAGQuery          *RAGQueryRequest
	Rerank            *RerankRequest
	ModelPull         *ModelPullRequest
	ModelDelete       *ModelDeleteRequest
	ModelLoad         *ModelLoadRequest
	ModelUnload       *ModelUnloadRequest
	StopGeneration    *StopGenerationRequest
	AudioStreamConfig *AudioStreamConfigRequest
	WebRTCSession     *WebRTCSessionStateRequest
	BatchOperation    *BatchOperationRequest
	StructuralIndex   *StructuralIndexRequest
	StructuralQuery   *StructuralQueryRequest
}

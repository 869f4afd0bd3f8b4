package backend

import "encoding/json"

// Choice is one generated completion in the OpenAI-shaped response (§12).
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message,omitempty"`
	Text         string      `json:"text,omitempty"`
	FinishReason string      `json:"finish_reason"`
}

// Usage reports token accounting for a completion response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the OpenAI-shaped response body shared by both
// chat and plain completions (§12).
type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	GenID   string   `json:"-"`
}

// EmbeddingVector pairs one input with its generated embedding.
type EmbeddingVector struct {
	Index  int       `json:"index"`
	Vector []float32 `json:"embedding"`
}

// EmbeddingsResponse is the result of ReqEmbeddings.
type EmbeddingsResponse struct {
	Model string            `json:"model"`
	Data  []EmbeddingVector `json:"data"`
}

// RAGResult is one retrieved memory, with its similarity score.
type RAGResult struct {
	NodeID string  `json:"node_id"`
	Score  float32 `json:"score"`
}

// RAGQueryResponse is the result of ReqRAGQuery.
type RAGQueryResponse struct {
	Results []RAGResult `json:"results"`
}

// RerankResult pairs a document's original index with its relevance score.
type RerankResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// RerankResponse is the result of ReqRerank, sorted by descending score.
type RerankResponse struct {
	Results []RerankResult `json:"results"`
}

// ModelOpResult reports the outcome of a pull/delete/load/unload.
type ModelOpResult struct {
	Model   string `json:"model"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// LoadedModelsResponse lists currently loaded models (§12 — backs the
// /v1/resources/loaded-models alias route).
type LoadedModelsResponse struct {
	Models []string `json:"models"`
}

// SystemInfoResponse reports static host/runtime information. Hardware
// probing is an external collaborator (§1); this backend reports what it
// knows about itself.
type SystemInfoResponse struct {
	Version      string `json:"version"`
	GoVersion    string `json:"go_version"`
	StorageClass int    `json:"storage_classes"`
}

// ResourcesResponse reports current resource usage as tracked by the
// backend's own counters (hot index sizes, scheduler queue depth), not a
// full OS-level probe.
type ResourcesResponse struct {
	VectorCount     int            `json:"vector_count"`
	GraphNodeCount  int            `json:"graph_node_count"`
	GraphEdgeCount  int            `json:"graph_edge_count"`
	SchedulerQueues map[string]int `json:"scheduler_queues"`
}

// MemoryEstimateResponse estimates bytes resident for a model of the given
// parameter count and quantization, using the common bytes-per-parameter
// rule of thumb rather than an actual model load.
type MemoryEstimateResponse struct {
	Model         string `json:"model"`
	EstimatedByte int64  `json:"estimated_bytes"`
}

// StopGenerationResponse reports whether a generation id was found and
// cancelled; stopping an unknown or already-finished id is not an error
// (§5, §13 — idempotent by design).
type StopGenerationResponse struct {
	GenID   string `json:"gen_id"`
	Stopped bool   `json:"stopped"`
}

// AudioStreamConfigResponse echoes back the accepted stream configuration.
type AudioStreamConfigResponse struct {
	Accepted AudioStreamConfigRequest `json:"accepted"`
}

// WebRTCSessionStateResponse echoes the session state now on record.
type WebRTCSessionStateResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// BatchApplyResponse reports how many of each operation family succeeded
// (§4.7); a batch never fails as a whole, so there is no overall error
// here, only per-family counts.
type BatchApplyResponse struct {
	VectorSuccesses int `json:"vector_successes"`
	GraphSuccesses  int `json:"graph_successes"`
}

// StructuralIndexResponse confirms a structural index/remove call applied.
type StructuralIndexResponse struct {
	Property string `json:"property"`
	Value    string `json:"value"`
	NodeID   string `json:"node_id"`
	Removed  bool   `json:"removed"`
}

// StructuralQueryResponse lists the node ids recorded against a
// property=value membership fact (§4.6).
type StructuralQueryResponse struct {
	NodeIDs []string `json:"node_ids"`
}

// Response is the closed discriminated union returned by HandleRequest:
// exactly one payload field is populated, selected by the originating
// Request's Kind.
type Response struct {
	Kind RequestKind

	ChatCompletion    *CompletionResponse
	Completion        *CompletionResponse
	Embeddings        *EmbeddingsResponse
	RAGQuery          *RAGQueryResponse
	Rerank            *RerankResponse
	ModelOp           *ModelOpResult
	LoadedModels      *LoadedModelsResponse
	SystemInfo        *SystemInfoResponse
	Resources         *ResourcesResponse
	MemoryEstimate    *MemoryEstimateResponse
	StopGeneration    *StopGenerationResponse
	AudioStreamConfig *AudioStreamConfigResponse
	WebRTCSession     *WebRTCSessionStateResponse
	BatchApply        *BatchApplyResponse
	StructuralIndex   *StructuralIndexResponse
	StructuralQuery   *StructuralQueryResponse
}

// AsChatCompletion returns the populated chat-completion payload, if any.
func (r *Response) AsChatCompletion() (*CompletionResponse, bool) {
	return r.ChatCompletion, r.ChatCompletion != nil
}

// AsEmbeddings returns the populated embeddings payload, if any.
func (r *Response) AsEmbeddings() (*EmbeddingsResponse, bool) {
	return r.Embeddings, r.Embeddings != nil
}

// AsRAGQuery returns the populated RAG query payload, if any.
func (r *Response) AsRAGQuery() (*RAGQueryResponse, bool) {
	return r.RAGQuery, r.RAGQuery != nil
}

// AsRerank returns the populated rerank payload, if any.
func (r *Response) AsRerank() (*RerankResponse, bool) {
	return r.Rerank, r.Rerank != nil
}

// AsPullResult returns the populated model-pull result, if any.
func (r *Response) AsPullResult() (*ModelOpResult, bool) {
	if r.Kind != ReqModelPull {
		return nil, false
	}
	return r.ModelOp, r.ModelOp != nil
}

// AsDeleteResult returns the populated model-delete result, if any.
func (r *Response) AsDeleteResult() (*ModelOpResult, bool) {
	if r.Kind != ReqModelDelete {
		return nil, false
	}
	return r.ModelOp, r.ModelOp != nil
}

// AsLoadedModels returns the populated loaded-models payload, if any.
func (r *Response) AsLoadedModels() (*LoadedModelsResponse, bool) {
	return r.LoadedModels, r.LoadedModels != nil
}

// AsResources returns the populated resources payload, if any.
func (r *Response) AsResources() (*ResourcesResponse, bool) {
	return r.Resources, r.Resources != nil
}

// AsMemoryEstimate returns the populated memory-estimate payload, if any.
func (r *Response) AsMemoryEstimate() (*MemoryEstimateResponse, bool) {
	return r.MemoryEstimate, r.MemoryEstimate != nil
}

// AsGenerate returns the populated completion payload, whether it came
// from a chat or a plain-completion request — both share CompletionResponse.
func (r *Response) AsGenerate() (*CompletionResponse, bool) {
	if r.ChatCompletion != nil {
		return r.ChatCompletion, true
	}
	return r.Completion, r.Completion != nil
}

// AsBatchApply returns the populated batch-apply payload, if any.
func (r *Response) AsBatchApply() (*BatchApplyResponse, bool) {
	return r.BatchApply, r.BatchApply != nil
}

// AsStructuralQuery returns the populated structural-query payload, if any.
func (r *Response) AsStructuralQuery() (*StructuralQueryResponse, bool) {
	return r.StructuralQuery, r.StructuralQuery != nil
}

// AsHealth returns the populated system-info payload, the closest this
// union has to a dedicated health-check variant (health/readiness/liveness
// are served directly by pkg/metrics rather than through the request
// union; see pkg/metrics/health.go).
func (r *Response) AsHealth() (*SystemInfoResponse, bool) {
	return r.SystemInfo, r.SystemInfo != nil
}

// payload returns whichever single field on r is populated, for JSON
// encoding without exposing the rest of the union as null siblings.
func (r *Response) payload() interface{} {
	switch {
	case r.ChatCompletion != nil:
		return r.ChatCompletion
	case r.Completion != nil:
		return r.Completion
	case r.Embeddings != nil:
		return r.Embeddings
	case r.RAGQuery != nil:
		return r.RAGQuery
	case r.Rerank != nil:
		return r.Rerank
	case r.ModelOp != nil:
		return r.ModelOp
	case r.LoadedModels != nil:
		return r.LoadedModels
	case r.SystemInfo != nil:
		return r.SystemInfo
	case r.Resources != nil:
		return r.Resources
	case r.MemoryEstimate != nil:
		return r.MemoryEstimate
	case r.StopGeneration != nil:
		return r.StopGeneration
	case r.AudioStreamConfig != nil:
		return r.AudioStreamConfig
	case r.WebRTCSession != nil:
		return r.WebRTCSession
	case r.BatchApply != nil:
		return r.BatchApply
	case r.StructuralIndex != nil:
		return r.StructuralIndex
	case r.StructuralQuery != nil:
		return r.StructuralQuery
	default:
		return struct{}{}
	}
}

// ToJSON encodes the populated payload as a JSON document, the shape every
// transport serializes to the wire.
func (r *Response) ToJSON() ([]byte, error) {
	return json.Marshal(r.payload())
}

// ToJSONValue decodes ToJSON's output back into a generic map, useful for
// transports (native messaging, WebRTC) that wrap the payload in an outer
// envelope.
func (r *Response) ToJSONValue() (map[string]interface{}, error) {
	data, err := r.ToJSON()
	if err != nil {
		return nil, err
	}
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

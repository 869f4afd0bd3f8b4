package backend

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kodewerx/memoria/pkg/apierr"
	"github.com/kodewerx/memoria/pkg/batchprocessor"
	"github.com/kodewerx/memoria/pkg/coordinator"
	"github.com/kodewerx/memoria/pkg/graphindex"
	"github.com/kodewerx/memoria/pkg/log"
	"github.com/kodewerx/memoria/pkg/scheduler"
	"github.com/kodewerx/memoria/pkg/structuralindex"
	"github.com/kodewerx/memoria/pkg/types"
	"github.com/kodewerx/memoria/pkg/vectorindex"
	"github.com/rs/zerolog"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// bytesPerParamByQuant is the rule-of-thumb bytes-per-parameter table used
// by MemoryEstimate, keyed by quantization label.
var bytesPerParamByQuant = map[string]float64{
	"f32": 4, "f16": 2, "q8_0": 1, "q4_0": 0.5, "q4_k_m": 0.5625,
}

// AppStateProvider is the single entry point every transport funnels
// through (§4.10): one method, dispatching on Request.Kind.
type AppStateProvider interface {
	HandleRequest(req *Request) (*Response, error)
}

// MemoryBackend implements AppStateProvider over the coordinator, the two
// hot indexes and the task scheduler. Model inference itself is delegated
// to a nil-safe stub generator, since the inference engine is an external
// collaborator (§1) outside this spec's boundary.
type MemoryBackend struct {
	coord    *coordinator.Coordinator
	vectors  *vectorindex.Index
	graph    *graphindex.Index
	sched    *scheduler.Scheduler
	log      zerolog.Logger
	modelsMu sync.Mutex
	loaded   map[string]bool

	genMu  sync.Mutex
	genTok map[string]*scheduler.CancelToken

	sessionsMu sync.Mutex
	sessions   map[string]string

	batch      *batchprocessor.CombinedBatchProcessor
	structural *structuralindex.Index
}

// structuralIndexStorage is the registry storage name the structural
// index is opened under, alongside the coordinator's own routed trees.
const structuralIndexStorage = "structural-index"

// New constructs a MemoryBackend wired to the given coordinator and hot
// indexes. sched may be nil if background task scheduling is handled
// elsewhere; HandleRequest never blocks on it either way.
func New(coord *coordinator.Coordinator, vectors *vectorindex.Index, graph *graphindex.Index, sched *scheduler.Scheduler) (*MemoryBackend, error) {
	structural, err := structuralindex.Open(coord.Registry(), structuralIndexStorage)
	if err != nil {
		return nil, fmt.Errorf("backend: open structural index: %w", err)
	}

	return &MemoryBackend{
		coord:      coord,
		vectors:    vectors,
		graph:      graph,
		sched:      sched,
		log:        log.WithComponent("backend"),
		loaded:     make(map[string]bool),
		genTok:     make(map[string]*scheduler.CancelToken),
		sessions:   make(map[string]string),
		batch:      batchprocessor.NewCombinedBatchProcessor(vectors, graph),
		structural: structural,
	}, nil
}

// HandleRequest dispatches req to the handler for its Kind. This is the
// single funnel point every transport calls through (§4.10).
func (b *MemoryBackend) HandleRequest(req *Request) (*Response, error) {
	switch req.Kind {
	case ReqChatCompletion:
		return b.handleChatCompletion(req.ChatCompletion)
	case ReqCompletion:
		return b.handleCompletion(req.Completion)
	case ReqEmbeddings:
		return b.handleEmbeddings(req.Embeddings)
	case ReqRAGQuery:
		return b.handleRAGQuery(req.RAGQuery)
	case ReqRerank:
		return b.handleRerank(req.Rerank)
	case ReqModelPull:
		return b.handleModelOp(ReqModelPull, req.ModelPull.Model, "pulled", true)
	case ReqModelDelete:
		return b.handleModelDelete(req.ModelDelete)
	case ReqModelLoad:
		return b.handleModelOp(ReqModelLoad, req.ModelLoad.Model, "loaded", true)
	case ReqModelUnload:
		return b.handleModelOp(ReqModelUnload, req.ModelUnload.Model, "unloaded", false)
	case ReqLoadedModels:
		return b.handleLoadedModels()
	case ReqSystemInfo:
		return b.handleSystemInfo()
	case ReqResources:
		return b.handleResources()
	case ReqMemoryEstimate:
		return nil, apierr.New(apierr.KindBadRequest, "memory_estimate requires model and quantization")
	case ReqStopGeneration:
		return b.handleStopGeneration(req.StopGeneration)
	case ReqAudioStreamConfig:
		return b.handleAudioStreamConfig(req.AudioStreamConfig)
	case ReqWebRTCSession:
		return b.handleWebRTCSession(req.WebRTCSession)
	case ReqBatchApply:
		return b.handleBatchApply(req.BatchOperation)
	case ReqStructuralIndex:
		return b.handleStructuralIndex(req.StructuralIndex)
	case ReqStructuralQuery:
		return b.handleStructuralQuery(req.StructuralQuery)
	default:
		return nil, apierr.Newf(apierr.KindBadRequest, "unknown request kind %q", req.Kind)
	}
}

// MemoryEstimate computes MemoryEstimateResponse for a model of the given
// parameter count under the given quantization label. Exposed as a direct
// method (rather than a union request variant) because it takes numeric
// arguments no other request needs.
func (b *MemoryBackend) MemoryEstimate(model string, paramCount int64, quant string) (*Response, error) {
	perParam, ok := bytesPerParamByQuant[quant]
	if !ok {
		return nil, apierr.Newf(apierr.KindValidation, "unknown quantization %q", quant)
	}
	return &Response{
		Kind: ReqMemoryEstimate,
		MemoryEstimate: &MemoryEstimateResponse{
			Model:         model,
			EstimatedByte: int64(float64(paramCount) * perParam),
		},
	}, nil
}

func (b *MemoryBackend) handleChatCompletion(req *ChatCompletionRequest) (*Response, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, apierr.New(apierr.KindValidation, "chat completion requires at least one message")
	}

	genID := uuid.NewString()
	token := &scheduler.CancelToken{}
	b.genMu.Lock()
	b.genTok[genID] = token
	b.genMu.Unlock()
	defer b.forgetGeneration(genID)

	last := req.Messages[len(req.Messages)-1]
	now := nowMs()

	msg := &types.Node{
		Id:    types.NodeId(uuid.NewString()),
		Class: types.NodeClassMessage,
		Message: &types.MessagePayload{
			Sender:    last.Role,
			Text:      last.Content,
			Timestamp: now,
		},
	}
	if err := b.coord.InsertMessage(msg); err != nil {
		return nil, apierr.Newf(apierr.KindBackend, "persist message: %v", err)
	}

	if token.Cancelled() {
		return &Response{Kind: ReqChatCompletion, ChatCompletion: &CompletionResponse{
			ID: genID, Object: "chat.completion", Model: req.Model,
			Choices: []Choice{{Index: 0, FinishReason: "cancelled"}},
		}}, nil
	}

	reply := stubCompletion(last.Content)
	return &Response{
		Kind: ReqChatCompletion,
		ChatCompletion: &CompletionResponse{
			ID:     genID,
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []Choice{{
				Index:        0,
				Message:      ChatMessage{Role: "assistant", Content: reply},
				FinishReason: "stop",
			}},
			Usage: stubUsage(last.Content, reply),
			GenID: genID,
		},
	}, nil
}

func (b *MemoryBackend) handleCompletion(req *CompletionRequest) (*Response, error) {
	if req == nil || req.Prompt == "" {
		return nil, apierr.New(apierr.KindValidation, "completion requires a non-empty prompt")
	}
	genID := uuid.NewString()
	text := stubCompletion(req.Prompt)
	return &Response{
		Kind: ReqCompletion,
		Completion: &CompletionResponse{
			ID:      genID,
			Object:  "text_completion",
			Model:   req.Model,
			Choices: []Choice{{Index: 0, Text: text, FinishReason: "stop"}},
			Usage:   stubUsage(req.Prompt, text),
			GenID:   genID,
		},
	}, nil
}

func (b *MemoryBackend) handleEmbeddings(req *EmbeddingsRequest) (*Response, error) {
	if req == nil || len(req.Input) == 0 {
		return nil, apierr.New(apierr.KindValidation, "embeddings requires at least one input")
	}

	out := make([]EmbeddingVector, 0, len(req.Input))
	for i, text := range req.Input {
		vec := stubEmbed(text)
		id := types.EmbeddingId(uuid.NewString())
		if err := b.coord.InsertEmbedding(&types.Embedding{Id: id, Vector: vec, Model: req.Model}); err != nil {
			return nil, apierr.Newf(apierr.KindBackend, "persist embedding: %v", err)
		}
		b.vectors.Add(string(id), vec)
		out = append(out, EmbeddingVector{Index: i, Vector: vec})
	}

	return &Response{Kind: ReqEmbeddings, Embeddings: &EmbeddingsResponse{Model: req.Model, Data: out}}, nil
}

func (b *MemoryBackend) handleRAGQuery(req *RAGQueryRequest) (*Response, error) {
	if req == nil {
		return nil, apierr.New(apierr.KindValidation, "rag_query requires a query")
	}
	k := req.K
	if k <= 0 {
		k = 10
	}

	query := req.Vec
	if len(query) == 0 {
		query = stubEmbed(req.Query)
	}

	hits := b.vectors.Search(query, k)
	results := make([]RAGResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, RAGResult{NodeID: h.Id, Score: h.Score})
	}
	return &Response{Kind: ReqRAGQuery, RAGQuery: &RAGQueryResponse{Results: results}}, nil
}

func (b *MemoryBackend) handleRerank(req *RerankRequest) (*Response, error) {
	if req == nil || len(req.Documents) == 0 {
		return nil, apierr.New(apierr.KindValidation, "rerank requires at least one document")
	}
	topN := req.TopN
	if topN <= 0 || topN > len(req.Documents) {
		topN = len(req.Documents)
	}

	scored := make([]RerankResult, len(req.Documents))
	for i, doc := range req.Documents {
		scored[i] = RerankResult{Index: i, Score: overlapScore(req.Query, doc)}
	}
	sortRerankByScore(scored)
	if topN < len(scored) {
		scored = scored[:topN]
	}

	return &Response{Kind: ReqRerank, Rerank: &RerankResponse{Results: scored}}, nil
}

func (b *MemoryBackend) handleModelOp(kind RequestKind, model, verb string, mark bool) (*Response, error) {
	if model == "" {
		return nil, apierr.New(apierr.KindValidation, "model name is required")
	}
	b.modelsMu.Lock()
	if mark {
		b.loaded[model] = true
	} else {
		delete(b.loaded, model)
	}
	b.modelsMu.Unlock()

	return &Response{Kind: kind, ModelOp: &ModelOpResult{Model: model, Status: verb}}, nil
}

func (b *MemoryBackend) handleModelDelete(req *ModelDeleteRequest) (*Response, error) {
	if req == nil || req.Model == "" {
		return nil, apierr.New(apierr.KindValidation, "model name is required")
	}
	b.modelsMu.Lock()
	delete(b.loaded, req.Model)
	b.modelsMu.Unlock()
	return &Response{Kind: ReqModelDelete, ModelOp: &ModelOpResult{Model: req.Model, Status: "deleted"}}, nil
}

func (b *MemoryBackend) handleLoadedModels() (*Response, error) {
	b.modelsMu.Lock()
	models := make([]string, 0, len(b.loaded))
	for m := range b.loaded {
		models = append(models, m)
	}
	b.modelsMu.Unlock()
	return &Response{Kind: ReqLoadedModels, LoadedModels: &LoadedModelsResponse{Models: models}}, nil
}

func (b *MemoryBackend) handleSystemInfo() (*Response, error) {
	return &Response{Kind: ReqSystemInfo, SystemInfo: &SystemInfoResponse{
		Version:      "dev",
		GoVersion:    runtime.Version(),
		StorageClass: 8,
	}}, nil
}

func (b *MemoryBackend) handleResources() (*Response, error) {
	queues := map[string]int{}
	if b.sched != nil {
		queues = b.sched.QueueDepth()
	}
	return &Response{Kind: ReqResources, Resources: &ResourcesResponse{
		VectorCount:     b.vectors.Len(),
		GraphNodeCount:  b.graph.NodeCount(),
		GraphEdgeCount:  b.graph.EdgeCount(),
		SchedulerQueues: queues,
	}}, nil
}

func (b *MemoryBackend) handleStopGeneration(req *StopGenerationRequest) (*Response, error) {
	if req == nil || req.GenID == "" {
		return nil, apierr.New(apierr.KindValidation, "stop_generation requires gen_id")
	}
	b.genMu.Lock()
	token, ok := b.genTok[req.GenID]
	b.genMu.Unlock()

	stopped := false
	if ok {
		token.Cancel()
		stopped = true
	}
	// stopping an unknown or already-finished generation id is not an
	// error: it is a benign race between the request and completion.
	return &Response{Kind: ReqStopGeneration, StopGeneration: &StopGenerationResponse{
		GenID: req.GenID, Stopped: stopped,
	}}, nil
}

func (b *MemoryBackend) handleAudioStreamConfig(req *AudioStreamConfigRequest) (*Response, error) {
	if req == nil {
		return nil, apierr.New(apierr.KindValidation, "audio_stream_config requires a body")
	}
	if !validSampleRate(req.SampleRateHz) {
		return nil, apierr.Newf(apierr.KindValidation, "unsupported sample rate %d", req.SampleRateHz)
	}
	if req.Channels < 1 || req.Channels > 8 {
		return nil, apierr.Newf(apierr.KindValidation, "channels must be in [1, 8], got %d", req.Channels)
	}
	return &Response{Kind: ReqAudioStreamConfig, AudioStreamConfig: &AudioStreamConfigResponse{Accepted: *req}}, nil
}

// handleWebRTCSession both records and reports session state: a request
// carrying a non-empty State sets it, while an empty State is a pure query
// (used by the HTTP GET /v1/webrtc/session/:session_id route, which has no
// body to carry a new state in).
func (b *MemoryBackend) handleWebRTCSession(req *WebRTCSessionStateRequest) (*Response, error) {
	if req == nil || req.SessionID == "" {
		return nil, apierr.New(apierr.KindValidation, "webrtc_session_state requires session_id")
	}

	b.sessionsMu.Lock()
	if req.State != "" {
		b.sessions[req.SessionID] = req.State
		b.log.Debug().Str("session", req.SessionID).Str("state", req.State).Msg("webrtc session state updated")
	}
	state := b.sessions[req.SessionID]
	b.sessionsMu.Unlock()

	if state == "" {
		state = "unknown"
	}
	return &Response{Kind: ReqWebRTCSession, WebRTCSession: &WebRTCSessionStateResponse{
		SessionID: req.SessionID, State: state,
	}}, nil
}

func (b *MemoryBackend) handleBatchApply(req *BatchOperationRequest) (*Response, error) {
	if req == nil || len(req.Ops) == 0 {
		return nil, apierr.New(apierr.KindValidation, "batch_apply requires at least one op")
	}

	ops := make([]batchprocessor.Op, len(req.Ops))
	for i, o := range req.Ops {
		ops[i] = batchprocessor.Op{
			Kind:      batchprocessor.OpKind(o.Kind),
			ID:        o.ID,
			Vector:    o.Vector,
			Metadata:  o.Metadata,
			From:      o.From,
			To:        o.To,
			Weight:    o.Weight,
			HasWeight: o.HasWeight,
		}
	}

	vectorSuccesses, graphSuccesses := b.batch.Apply(context.Background(), ops)
	return &Response{Kind: ReqBatchApply, BatchApply: &BatchApplyResponse{
		VectorSuccesses: vectorSuccesses,
		GraphSuccesses:  graphSuccesses,
	}}, nil
}

func (b *MemoryBackend) handleStructuralIndex(req *StructuralIndexRequest) (*Response, error) {
	if req == nil || req.Property == "" || req.NodeID == "" {
		return nil, apierr.New(apierr.KindValidation, "structural_index requires property and node_id")
	}

	var err error
	if req.Remove {
		err = b.structural.Remove(req.Property, req.Value, req.NodeID)
	} else {
		err = b.structural.Index(req.Property, req.Value, req.NodeID)
	}
	if err != nil {
		return nil, apierr.Newf(apierr.KindBackend, "structural index: %v", err)
	}

	return &Response{Kind: ReqStructuralIndex, StructuralIndex: &StructuralIndexResponse{
		Property: req.Property, Value: req.Value, NodeID: req.NodeID, Removed: req.Remove,
	}}, nil
}

func (b *MemoryBackend) handleStructuralQuery(req *StructuralQueryRequest) (*Response, error) {
	if req == nil || req.Property == "" {
		return nil, apierr.New(apierr.KindValidation, "structural_query requires property")
	}

	ids, err := b.structural.Query(req.Property, req.Value)
	if err != nil {
		return nil, apierr.Newf(apierr.KindBackend, "structural query: %v", err)
	}

	return &Response{Kind: ReqStructuralQuery, StructuralQuery: &StructuralQueryResponse{NodeIDs: ids}}, nil
}

func (b *MemoryBackend) forgetGeneration(genID string) {
	b.genMu.Lock()
	delete(b.genTok, genID)
	b.genMu.Unlock()
}

func validSampleRate(hz int) bool {
	switch hz {
	case 8000, 16000, 24000, 48000:
		return true
	default:
		return false
	}
}

func stubCompletion(input string) string {
	return fmt.Sprintf("[stub completion for %d input chars]", len(input))
}

func stubUsage(prompt, completion string) Usage {
	p := len(prompt) / 4
	c := len(completion) / 4
	return Usage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}
}

// stubEmbed deterministically derives a small fixed-width vector from text
// so that RAG search and embeddings tests are reproducible without a real
// model. Production wiring replaces this with the inference collaborator.
func stubEmbed(text string) []float32 {
	const dims = 16
	vec := make([]float32, dims)
	for i, r := range text {
		vec[i%dims] += float32(r%97) / 97.0
	}
	return vec
}

func overlapScore(query, doc string) float32 {
	qset := make(map[rune]bool)
	for _, r := range query {
		qset[r] = true
	}
	hits := 0
	for _, r := range doc {
		if qset[r] {
			hits++
		}
	}
	if len(doc) == 0 {
		return 0
	}
	return float32(hits) / float32(len(doc))
}

func sortRerankByScore(results []RerankResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

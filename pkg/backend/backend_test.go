package backend

import (
	"testing"

	"github.com/kodewerx/memoria/pkg/coordinator"
	"github.com/kodewerx/memoria/pkg/graphindex"
	"github.com/kodewerx/memoria/pkg/vectorindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *MemoryBackend {
	t.Helper()
	c, err := coordinator.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	b, err := New(c, vectorindex.New(vectorindex.SchemeScalar, 0), graphindex.New(), nil)
	require.NoError(t, err)
	return b
}

func TestHandleChatCompletionPersistsMessageAndReturnsReply(t *testing.T) {
	b := newTestBackend(t)

	resp, err := b.HandleRequest(&Request{
		Kind: ReqChatCompletion,
		ChatCompletion: &ChatCompletionRequest{
			Model:    "test-model",
			Messages: []ChatMessage{{Role: "user", Content: "hello there"}},
		},
	})
	require.NoError(t, err)
	cc, ok := resp.AsChatCompletion()
	require.True(t, ok)
	assert.NotEmpty(t, cc.ID)
	assert.Equal(t, "stop", cc.Choices[0].FinishReason)
	assert.NotEmpty(t, cc.Choices[0].Message.Content)
}

func TestHandleChatCompletionRejectsEmptyMessages(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.HandleRequest(&Request{Kind: ReqChatCompletion, ChatCompletion: &ChatCompletionRequest{}})
	assert.Error(t, err)
}

func TestHandleEmbeddingsIndexesIntoVectorStore(t *testing.T) {
	b := newTestBackend(t)

	resp, err := b.HandleRequest(&Request{
		Kind:       ReqEmbeddings,
		Embeddings: &EmbeddingsRequest{Model: "embed-model", Input: []string{"a", "b", "c"}},
	})
	require.NoError(t, err)
	out, ok := resp.AsEmbeddings()
	require.True(t, ok)
	assert.Len(t, out.Data, 3)
	assert.Equal(t, 3, b.vectors.Len())
}

func TestHandleRAGQueryFindsPreviouslyEmbeddedText(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.HandleRequest(&Request{
		Kind:       ReqEmbeddings,
		Embeddings: &EmbeddingsRequest{Model: "embed-model", Input: []string{"the quick brown fox"}},
	})
	require.NoError(t, err)

	resp, err := b.HandleRequest(&Request{
		Kind:     ReqRAGQuery,
		RAGQuery: &RAGQueryRequest{Query: "the quick brown fox", K: 5},
	})
	require.NoError(t, err)
	out, ok := resp.AsRAGQuery()
	require.True(t, ok)
	require.Len(t, out.Results, 1)
	assert.InDelta(t, 1.0, out.Results[0].Score, 1e-4)
}

func TestHandleRerankOrdersByRelevanceAndCapsTopN(t *testing.T) {
	b := newTestBackend(t)

	resp, err := b.HandleRequest(&Request{
		Kind: ReqRerank,
		Rerank: &RerankRequest{
			Query:     "golang concurrency",
			Documents: []string{"cooking recipes", "golang concurrency patterns", "gardening tips"},
			TopN:      2,
		},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Rerank.Results, 2)
	assert.GreaterOrEqual(t, resp.Rerank.Results[0].Score, resp.Rerank.Results[1].Score)
}

func TestHandleStopGenerationIsIdempotentAndBenignOnUnknownID(t *testing.T) {
	b := newTestBackend(t)

	resp, err := b.HandleRequest(&Request{
		Kind:           ReqStopGeneration,
		StopGeneration: &StopGenerationRequest{GenID: "does-not-exist"},
	})
	require.NoError(t, err)
	assert.False(t, resp.StopGeneration.Stopped)

	resp, err = b.HandleRequest(&Request{
		Kind:           ReqStopGeneration,
		StopGeneration: &StopGenerationRequest{GenID: "does-not-exist"},
	})
	require.NoError(t, err)
	assert.False(t, resp.StopGeneration.Stopped)
}

func TestHandleAudioStreamConfigRejectsUnsupportedSampleRate(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.HandleRequest(&Request{
		Kind:              ReqAudioStreamConfig,
		AudioStreamConfig: &AudioStreamConfigRequest{SampleRateHz: 44100, Channels: 1, Codec: "opus"},
	})
	assert.Error(t, err)
}

func TestHandleModelLifecycle(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.HandleRequest(&Request{Kind: ReqModelLoad, ModelLoad: &ModelLoadRequest{Model: "m1"}})
	require.NoError(t, err)

	resp, err := b.HandleRequest(&Request{Kind: ReqLoadedModels})
	require.NoError(t, err)
	assert.Contains(t, resp.LoadedModels.Models, "m1")

	_, err = b.HandleRequest(&Request{Kind: ReqModelUnload, ModelUnload: &ModelUnloadRequest{Model: "m1"}})
	require.NoError(t, err)

	resp, err = b.HandleRequest(&Request{Kind: ReqLoadedModels})
	require.NoError(t, err)
	assert.NotContains(t, resp.LoadedModels.Models, "m1")
}

func TestHandleBatchApplyAppliesVectorAndGraphOpsConcurrently(t *testing.T) {
	b := newTestBackend(t)

	resp, err := b.HandleRequest(&Request{
		Kind: ReqBatchApply,
		BatchOperation: &BatchOperationRequest{
			Ops: []BatchOpRequest{
				{Kind: "add_vector", ID: "v1", Vector: []float32{1, 0}},
				{Kind: "add_node", ID: "a", Metadata: "{}"},
				{Kind: "add_node", ID: "b", Metadata: "{}"},
				{Kind: "add_edge", From: "a", To: "b", Weight: 0.5, HasWeight: true},
			},
		},
	})
	require.NoError(t, err)
	out, ok := resp.AsBatchApply()
	require.True(t, ok)
	assert.Equal(t, 1, out.VectorSuccesses)
	assert.Equal(t, 3, out.GraphSuccesses)
	assert.Equal(t, 1, b.vectors.Len())
	assert.ElementsMatch(t, []string{"b"}, b.graph.GetOutgoingNeighbors("a"))
}

func TestHandleBatchApplyRejectsEmptyOpList(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.HandleRequest(&Request{Kind: ReqBatchApply, BatchOperation: &BatchOperationRequest{}})
	assert.Error(t, err)
}

func TestHandleStructuralIndexRoundTripsThroughQueryAndRemove(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.HandleRequest(&Request{
		Kind:            ReqStructuralIndex,
		StructuralIndex: &StructuralIndexRequest{Property: "author", Value: "alice", NodeID: "n1"},
	})
	require.NoError(t, err)

	resp, err := b.HandleRequest(&Request{
		Kind:            ReqStructuralQuery,
		StructuralQuery: &StructuralQueryRequest{Property: "author", Value: "alice"},
	})
	require.NoError(t, err)
	out, ok := resp.AsStructuralQuery()
	require.True(t, ok)
	assert.Equal(t, []string{"n1"}, out.NodeIDs)

	_, err = b.HandleRequest(&Request{
		Kind:            ReqStructuralIndex,
		StructuralIndex: &StructuralIndexRequest{Property: "author", Value: "alice", NodeID: "n1", Remove: true},
	})
	require.NoError(t, err)

	resp, err = b.HandleRequest(&Request{
		Kind:            ReqStructuralQuery,
		StructuralQuery: &StructuralQueryRequest{Property: "author", Value: "alice"},
	})
	require.NoError(t, err)
	out, ok = resp.AsStructuralQuery()
	require.True(t, ok)
	assert.Empty(t, out.NodeIDs)
}

func TestResponseToJSONEncodesOnlyThePopulatedVariant(t *testing.T) {
	resp := &Response{Kind: ReqStopGeneration, StopGeneration: &StopGenerationResponse{GenID: "g1", Stopped: true}}
	v, err := resp.ToJSONValue()
	require.NoError(t, err)
	assert.Equal(t, "g1", v["gen_id"])
	assert.Equal(t, true, v["stopped"])
}

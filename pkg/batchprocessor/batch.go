package batchprocessor

import (
	"context"

	"github.com/kodewerx/memoria/pkg/graphindex"
	"github.com/kodewerx/memoria/pkg/vectorindex"
	"golang.org/x/sync/errgroup"
)

// OpKind is the closed set of batch operation kinds (§4.7).
type OpKind string

const (
	OpAddVector    OpKind = "add_vector"
	OpRemoveVector OpKind = "remove_vector"
	OpAddNode      OpKind = "add_node"
	OpRemoveNode   OpKind = "remove_node"
	OpAddEdge      OpKind = "add_edge"
	OpRemoveEdge   OpKind = "remove_edge"
)

// Op is one heterogeneous batch entry. Only the fields relevant to Kind
// are consulted.
type Op struct {
	Kind      OpKind
	ID        string
	Vector    []float32
	Metadata  string
	From      string
	To        string
	Weight    float32 // only meaningful for OpAddEdge
	HasWeight bool    // whether Weight was explicitly set; false defaults to 1.0
}

// VectorBatchProcessor applies a list of vector operations sequentially
// to one index, counting successes.
type VectorBatchProcessor struct {
	idx *vectorindex.Index
}

// NewVectorBatchProcessor wraps idx.
func NewVectorBatchProcessor(idx *vectorindex.Index) *VectorBatchProcessor {
	return &VectorBatchProcessor{idx: idx}
}

// Apply runs each op against the vector index in order, returning the
// count of operations that succeeded. An op of the wrong kind (graph ops
// mixed in) or missing required fields is counted as a failure but does
// not abort the batch (§4.7).
func (p *VectorBatchProcessor) Apply(ops []Op) int {
	successes := 0
	for _, op := range ops {
		switch op.Kind {
		case OpAddVector:
			if op.ID == "" || len(op.Vector) == 0 {
				continue
			}
			p.idx.Add(op.ID, op.Vector)
			successes++
		case OpRemoveVector:
			if op.ID == "" {
				continue
			}
			p.idx.Remove(op.ID)
			successes++
		default:
			// not a vector operation
		}
	}
	return successes
}

// GraphBatchProcessor applies a list of graph operations sequentially to
// one index, counting successes.
type GraphBatchProcessor struct {
	idx *graphindex.Index
}

// NewGraphBatchProcessor wraps idx.
func NewGraphBatchProcessor(idx *graphindex.Index) *GraphBatchProcessor {
	return &GraphBatchProcessor{idx: idx}
}

// Apply runs each op against the graph index in order, returning the count
// of operations that succeeded.
func (p *GraphBatchProcessor) Apply(ops []Op) int {
	successes := 0
	for _, op := range ops {
		switch op.Kind {
		case OpAddNode:
			if op.ID == "" {
				continue
			}
			p.idx.AddNode(op.ID, op.Metadata)
			successes++
		case OpRemoveNode:
			if op.ID == "" {
				continue
			}
			p.idx.RemoveNode(op.ID)
			successes++
		case OpAddEdge:
			if op.From == "" || op.To == "" {
				continue
			}
			weight := op.Weight
			if !op.HasWeight {
				weight = 1.0
			}
			p.idx.AddEdge(op.From, op.To, weight)
			successes++
		case OpRemoveEdge:
			if op.From == "" || op.To == "" {
				continue
			}
			p.idx.RemoveEdge(op.From, op.To)
			successes++
		default:
			// not a graph operation
		}
	}
	return successes
}

// CombinedBatchProcessor fans a batch out across both a vector and a graph
// processor concurrently, since they touch disjoint index state (§4.7,
// §11.3).
type CombinedBatchProcessor struct {
	vector *VectorBatchProcessor
	graph  *GraphBatchProcessor
}

// NewCombinedBatchProcessor wraps both indexes.
func NewCombinedBatchProcessor(vec *vectorindex.Index, graph *graphindex.Index) *CombinedBatchProcessor {
	return &CombinedBatchProcessor{
		vector: NewVectorBatchProcessor(vec),
		graph:  NewGraphBatchProcessor(graph),
	}
}

// Apply splits ops by destination and runs the vector and graph batches
// concurrently, returning (vector_successes, graph_successes).
func (p *CombinedBatchProcessor) Apply(ctx context.Context, ops []Op) (int, int) {
	var vectorOps, graphOps []Op
	for _, op := range ops {
		switch op.Kind {
		case OpAddVector, OpRemoveVector:
			vectorOps = append(vectorOps, op)
		case OpAddNode, OpRemoveNode, OpAddEdge, OpRemoveEdge:
			graphOps = append(graphOps, op)
		}
	}

	var vectorSuccesses, graphSuccesses int
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectorSuccesses = p.vector.Apply(vectorOps)
		return nil
	})
	g.Go(func() error {
		graphSuccesses = p.graph.Apply(graphOps)
		return nil
	})
	_ = g.Wait()

	return vectorSuccesses, graphSuccesses
}

package graphindex

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// weightKey composes a (from, to) pair into a single map key. NUL is not a
// valid id character in practice (ids are UUIDs or caller-supplied
// strings); using it as a separator avoids ambiguity with ids that
// themselves contain other punctuation.
func weightKey(from, to string) string {
	var b strings.Builder
	b.Grow(len(from) + len(to) + 1)
	b.WriteString(from)
	b.WriteByte(0)
	b.WriteString(to)
	return b.String()
}

// nodeEntry holds one node's adjacency lists, metadata, and access
// tracker. The mutex guards only this node's own lists; a caller touching
// two different nodes never contends.
type nodeEntry struct {
	mu       sync.Mutex
	outgoing []string
	incoming []string
	metadata string

	hitCount  uint64 // atomic
	lastHitNs int64  // atomic, unix nanoseconds
}

func (e *nodeEntry) touch() {
	atomic.AddUint64(&e.hitCount, 1)
	atomic.StoreInt64(&e.lastHitNs, time.Now().UnixNano())
}

// AccessStats reports the access-tracker state for one node (§4.5).
type AccessStats struct {
	HitCount   uint64
	LastAccess time.Time
}

// Index is a concurrent directed, weighted graph. Readers and writers on
// different nodes make independent progress; the only stdlib-only
// exception in this repo (alongside pkg/vectorindex) because no
// DashMap-equivalent exists in the retrieved example corpus.
type Index struct {
	nodes   sync.Map // string -> *nodeEntry
	weights sync.Map // string (weightKey) -> float32

	nodeCount int64 // atomic

	pathCacheMu sync.Mutex
	pathCache   map[string][]string

	centralityMu    sync.Mutex
	centrality      map[string]int
	centralityStale bool
}

// New creates an empty graph index.
func New() *Index {
	return &Index{
		pathCache:       make(map[string][]string),
		centrality:      make(map[string]int),
		centralityStale: true,
	}
}

// AddNode idempotently registers id, initializing its adjacency slots and
// node_count only on first insert (§4.5: "idempotent on id; increments
// node_count only when first created"). Deviation from a literal port of
// the Rust original noted in DESIGN.md: this uses LoadOrStore semantics
// rather than unconditional overwrite, which a literal port would do, so
// that a later add_edge's implicit add_node never wipes an existing
// adjacency list.
func (idx *Index) AddNode(id string, metadata string) {
	entry := &nodeEntry{metadata: metadata}
	actual, loaded := idx.nodes.LoadOrStore(id, entry)
	if !loaded {
		atomic.AddInt64(&idx.nodeCount, 1)
		idx.invalidateCentrality()
		return
	}
	if metadata != "" {
		e := actual.(*nodeEntry)
		e.mu.Lock()
		e.metadata = metadata
		e.mu.Unlock()
	}
}

func (idx *Index) ensureNode(id string) *nodeEntry {
	entry := &nodeEntry{}
	actual, loaded := idx.nodes.LoadOrStore(id, entry)
	if !loaded {
		atomic.AddInt64(&idx.nodeCount, 1)
	}
	return actual.(*nodeEntry)
}

// RemoveNode removes id from the node map in O(1); a full sweep of other
// nodes' adjacency lists would be O(|V|) (§4.5). References to id in other
// nodes' adjacency lists are not removed: GetOutgoingNeighbors,
// GetIncomingNeighbors and EdgeCount keep reporting them until RemoveEdge
// clears them, and their weight entries stay in place.
func (idx *Index) RemoveNode(id string) {
	if _, existed := idx.nodes.LoadAndDelete(id); existed {
		atomic.AddInt64(&idx.nodeCount, -1)
		idx.invalidateCentrality()
	}
}

// AddEdge auto-creates the endpoint nodes if absent, appends to both
// adjacency lists, and records the weight (defaulting to 1.0). Parallel
// edges between the same pair are preserved in the adjacency lists but
// share one weight entry — last write wins (§4.5).
func (idx *Index) AddEdge(from, to string, weight float32) {
	fromEntry := idx.ensureNode(from)
	toEntry := idx.ensureNode(to)

	fromEntry.mu.Lock()
	fromEntry.outgoing = append(fromEntry.outgoing, to)
	fromEntry.mu.Unlock()

	toEntry.mu.Lock()
	toEntry.incoming = append(toEntry.incoming, from)
	toEntry.mu.Unlock()

	idx.weights.Store(weightKey(from, to), weight)
	idx.invalidateCentrality()
}

// RemoveEdge removes every occurrence of to from from's outgoing list and
// of from from to's incoming list, and clears the weight entry. Idempotent
// (§4.5).
func (idx *Index) RemoveEdge(from, to string) {
	if v, ok := idx.nodes.Load(from); ok {
		e := v.(*nodeEntry)
		e.mu.Lock()
		e.outgoing = removeAll(e.outgoing, to)
		e.mu.Unlock()
	}
	if v, ok := idx.nodes.Load(to); ok {
		e := v.(*nodeEntry)
		e.mu.Lock()
		e.incoming = removeAll(e.incoming, from)
		e.mu.Unlock()
	}
	idx.weights.Delete(weightKey(from, to))
	idx.invalidateCentrality()
}

func removeAll(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// GetOutgoingNeighbors returns id's outgoing adjacency list in
// append-order. Returns nil if id is unknown.
func (idx *Index) GetOutgoingNeighbors(id string) []string {
	v, ok := idx.nodes.Load(id)
	if !ok {
		return nil
	}
	e := v.(*nodeEntry)
	e.touch()
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.outgoing...)
}

// GetIncomingNeighbors returns id's incoming (reverse) adjacency list in
// append-order. Returns nil if id is unknown.
func (idx *Index) GetIncomingNeighbors(id string) []string {
	v, ok := idx.nodes.Load(id)
	if !ok {
		return nil
	}
	e := v.(*nodeEntry)
	e.touch()
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.incoming...)
}

// GetEdgeWeight returns the weight of the (from, to) edge, if present.
func (idx *Index) GetEdgeWeight(from, to string) (float32, bool) {
	v, ok := idx.weights.Load(weightKey(from, to))
	if !ok {
		return 0, false
	}
	return v.(float32), true
}

// GetAllNodes returns every known node id, in no particular order.
func (idx *Index) GetAllNodes() []string {
	var out []string
	idx.nodes.Range(func(k, _ interface{}) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}

// NodeCount is an atomic counter (§4.5): the number of distinct ids seen
// by AddNode minus successful RemoveNode calls (§8.1 invariant 4).
func (idx *Index) NodeCount() int { return int(atomic.LoadInt64(&idx.nodeCount)) }

// EdgeCount sums adjacency list lengths across every node on each call
// (§4.5: computed, not cached, O(|V|)).
func (idx *Index) EdgeCount() int {
	total := 0
	idx.nodes.Range(func(_, v interface{}) bool {
		e := v.(*nodeEntry)
		e.mu.Lock()
		total += len(e.outgoing)
		e.mu.Unlock()
		return true
	})
	return total
}

// NodeMetadata returns the stored metadata string for id, if known.
func (idx *Index) NodeMetadata(id string) (string, bool) {
	v, ok := idx.nodes.Load(id)
	if !ok {
		return "", false
	}
	e := v.(*nodeEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metadata, true
}

// AccessStats returns the access tracker for id, if known.
func (idx *Index) AccessStats(id string) (AccessStats, bool) {
	v, ok := idx.nodes.Load(id)
	if !ok {
		return AccessStats{}, false
	}
	e := v.(*nodeEntry)
	return AccessStats{
		HitCount:   atomic.LoadUint64(&e.hitCount),
		LastAccess: time.Unix(0, atomic.LoadInt64(&e.lastHitNs)),
	}, true
}

func (idx *Index) invalidateCentrality() {
	idx.pathCacheMu.Lock()
	idx.pathCache = make(map[string][]string)
	idx.pathCacheMu.Unlock()

	idx.centralityMu.Lock()
	idx.centralityStale = true
	idx.centralityMu.Unlock()
}

// ShortestPath runs an unweighted BFS from src to dst and returns the node
// sequence including both endpoints, or nil if no path exists. Results are
// memoized in the traversal path cache (§4.5's path_cache) until the next
// structural mutation.
func (idx *Index) ShortestPath(src, dst string) []string {
	key := weightKey(src, dst)

	idx.pathCacheMu.Lock()
	if cached, ok := idx.pathCache[key]; ok {
		idx.pathCacheMu.Unlock()
		return cached
	}
	idx.pathCacheMu.Unlock()

	path := idx.bfs(src, dst)

	idx.pathCacheMu.Lock()
	idx.pathCache[key] = path
	idx.pathCacheMu.Unlock()

	return path
}

func (idx *Index) bfs(src, dst string) []string {
	if src == dst {
		if _, ok := idx.nodes.Load(src); !ok {
			return nil
		}
		return []string{src}
	}

	visited := map[string]bool{src: true}
	prev := map[string]string{}
	queue := []string{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range idx.GetOutgoingNeighbors(cur) {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if next == dst {
				return reconstructPath(prev, src, dst)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func reconstructPath(prev map[string]string, src, dst string) []string {
	path := []string{dst}
	cur := dst
	for cur != src {
		cur = prev[cur]
		path = append([]string{cur}, path...)
	}
	return path
}

// DegreeCentrality returns a snapshot of each node's out-degree, memoized
// (§4.5's centrality_cache) until the next structural mutation.
func (idx *Index) DegreeCentrality() map[string]int {
	idx.centralityMu.Lock()
	defer idx.centralityMu.Unlock()

	if !idx.centralityStale {
		out := make(map[string]int, len(idx.centrality))
		for k, v := range idx.centrality {
			out[k] = v
		}
		return out
	}

	fresh := make(map[string]int)
	idx.nodes.Range(func(k, v interface{}) bool {
		e := v.(*nodeEntry)
		e.mu.Lock()
		fresh[k.(string)] = len(e.outgoing)
		e.mu.Unlock()
		return true
	})

	idx.centrality = fresh
	idx.centralityStale = false

	out := make(map[string]int, len(fresh))
	for k, v := range fresh {
		out[k] = v
	}
	return out
}

package vectorindex

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// entry is the per-id record held in the index's concurrent map.
type entry struct {
	id        string
	vec       quantized
	hitCount  uint64 // atomic
	lastHitNs int64  // atomic, unix nanoseconds
}

// AccessStats reports the access-tracker state for one stored id (§4.4:
// "the index tracks per-id access for an access-tracker... usable by a
// future promotion/demotion layer").
type AccessStats struct {
	HitCount   uint64
	LastAccess time.Time
}

// ScoredID is one result of a top-k search.
type ScoredID struct {
	Id    string
	Score float32
}

// Stats holds the index's monotonic counters (§3.2 invariant 6).
type Stats struct {
	Count                  int64
	QueryCount             uint64
	SimilarityComputations uint64
}

// Index is a concurrent vector index over quantized embeddings. Readers
// and writers make independent progress: there is no global lock, only
// sync.Map for the id -> entry map and atomic counters for stats — one of
// the two stdlib-only exceptions in this codebase, alongside pkg/graphindex
// (no DashMap-equivalent exists anywhere in the retrieved example corpus).
type Index struct {
	scheme  Scheme
	subSize int

	entries sync.Map // string -> *entry

	count                  int64
	queryCount             uint64
	similarityComputations uint64
}

// New creates an index using the given quantization scheme. subSize is
// only meaningful for SchemeProduct and names the sub-vector width.
func New(scheme Scheme, subSize int) *Index {
	return &Index{scheme: scheme, subSize: subSize}
}

// Add stores (or replaces) the vector for id. Per invariant 4 (§3.2), an
// add on an existing id replaces it without double-counting.
func (idx *Index) Add(id string, vector []float32) {
	q := quantizeVector(idx.scheme, idx.subSize, vector)
	e := &entry{id: id, vec: q}

	_, existed := idx.entries.Swap(id, e)
	if !existed {
		atomic.AddInt64(&idx.count, 1)
	}
}

// Remove deletes id's vector, if present. Idempotent (§3.2 invariant 4).
func (idx *Index) Remove(id string) {
	if _, existed := idx.entries.LoadAndDelete(id); existed {
		atomic.AddInt64(&idx.count, -1)
	}
}

// Search quantizes query with the index's scheme and returns the top-k
// ids by descending cosine similarity against the dequantized stored
// vectors. Ties keep the order of the sync.Map scan, which is unspecified;
// callers must not rely on it (§4.4).
func (idx *Index) Search(query []float32, k int) []ScoredID {
	atomic.AddUint64(&idx.queryCount, 1)

	qVec := quantizeVector(idx.scheme, idx.subSize, query).dequantize()

	var results []ScoredID
	idx.entries.Range(func(_, v interface{}) bool {
		e := v.(*entry)
		score := cosineSimilarity(qVec, e.vec.dequantize())
		atomic.AddUint64(&idx.similarityComputations, 1)
		atomic.AddUint64(&e.hitCount, 1)
		atomic.StoreInt64(&e.lastHitNs, time.Now().UnixNano())
		results = append(results, ScoredID{Id: e.id, Score: score})
		return true
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// Len returns the current number of stored vectors.
func (idx *Index) Len() int { return int(atomic.LoadInt64(&idx.count)) }

// IsEmpty reports whether the index holds no vectors.
func (idx *Index) IsEmpty() bool { return idx.Len() == 0 }

// GetStats returns a snapshot of the monotonic counters.
func (idx *Index) GetStats() Stats {
	return Stats{
		Count:                  atomic.LoadInt64(&idx.count),
		QueryCount:             atomic.LoadUint64(&idx.queryCount),
		SimilarityComputations: atomic.LoadUint64(&idx.similarityComputations),
	}
}

// AccessStats returns the access tracker for id, if it is currently
// stored.
func (idx *Index) AccessStats(id string) (AccessStats, bool) {
	v, ok := idx.entries.Load(id)
	if !ok {
		return AccessStats{}, false
	}
	e := v.(*entry)
	return AccessStats{
		HitCount:   atomic.LoadUint64(&e.hitCount),
		LastAccess: time.Unix(0, atomic.LoadInt64(&e.lastHitNs)),
	}, true
}

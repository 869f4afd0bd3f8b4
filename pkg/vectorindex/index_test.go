package vectorindex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S3 — Vector search top-k.
func TestSearchTopKOrdering(t *testing.T) {
	idx := New(SchemeScalar, 0)
	idx.Add("v1", []float32{1, 0})
	idx.Add("v2", []float32{0, 1})
	idx.Add("v3", []float32{0.9, 0.1})

	results := idx.Search([]float32{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "v1", results[0].Id)
	assert.Equal(t, "v3", results[1].Id)
	assert.InDelta(t, 1.0, float64(results[0].Score), 0.01)
	assert.InDelta(t, 0.9938, float64(results[1].Score), 0.01)
}

func TestAddReplacesExistingIdWithoutDoubleCounting(t *testing.T) {
	idx := New(SchemeScalar, 0)
	idx.Add("v1", []float32{1, 0})
	idx.Add("v1", []float32{0, 1})
	assert.Equal(t, 1, idx.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	idx := New(SchemeScalar, 0)
	idx.Add("v1", []float32{1, 0})
	idx.Remove("v1")
	idx.Remove("v1")
	assert.Equal(t, 0, idx.Len())

	results := idx.Search([]float32{1, 0}, 5)
	assert.Empty(t, results)
}

func TestProductQuantizationSearch(t *testing.T) {
	idx := New(SchemeProduct, 2)
	idx.Add("a", []float32{1, 0, 0, 1})
	idx.Add("b", []float32{0, 1, 1, 0})

	results := idx.Search([]float32{1, 0, 0, 1}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Id)
}

func TestConcurrentAddAndSearchDoesNotPanic(t *testing.T) {
	idx := New(SchemeScalar, 0)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			idx.Add(string(rune('a'+n%26)), []float32{float32(n), 1})
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = idx.Search([]float32{1, 0}, 3)
		}()
	}
	wg.Wait()
}

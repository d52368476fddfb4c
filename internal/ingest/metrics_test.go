package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMetricsReturnsSameInstanceConcurrently(t *testing.T) {
	results := make([]*Metrics, 8)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetMetrics()
		}(i)
	}
	wg.Wait()

	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

package query

import (
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/stretchr/testify/require"
	"math/rand"
	"sort"
	"sync"
	"testing"
)

func keys(records []*record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.PartitionKey + "/" + r.RowKey
	}
	return out
}

func TestResultBuilder(t *testing.T) {
	tests := map[string]struct {
		take     int
		input    []string
		expected []string
	}{
		"unbounded sorts": {
			input:    []string{"b/2", "a/1", "b/1", "c/0"},
			expected: []string{"a/1", "b/1", "b/2", "c/0"},
		},
		"keeps smallest": {
			take:     2,
			input:    []string{"c/1", "b/1", "d/1", "a/1"},
			expected: []string{"a/1", "b/1"},
		},
		"skips larger when full": {
			take:     1,
			input:    []string{"a/1", "z/9"},
			expected: []string{"a/1"},
		},
		"cap not reached": {
			take:     10,
			input:    []string{"b/1", "a/1"},
			expected: []string{"a/1", "b/1"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			b := NewResultBuilder(tc.take)
			for _, k := range tc.input {
				b.Add(&record.Record{PartitionKey: k[:1], RowKey: k[2:]})
			}
			require.Equal(t, tc.expected, keys(b.Records()))
			require.Equal(t, len(tc.expected), b.Len())
		})
	}
}

func TestConcurrentResultBuilder(t *testing.T) {
	const workers, perWorker, take = 8, 50, 25

	b := NewConcurrentResultBuilder(take)
	var all []string
	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(w)))
			for i := 0; i < perWorker; i++ {
				rk := fmt.Sprintf("%06d-%02d-%03d", rng.Intn(1000000), w, i)
				b.Add(&record.Record{PartitionKey: "p", RowKey: rk})
				mu.Lock()
				all = append(all, "p/"+rk)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	sort.Strings(all)
	require.Equal(t, all[:take], keys(b.Records()))
	require.Equal(t, take, b.Len())
}

package query

import (
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"sync"
)

// ResultBuilder keeps the smallest records it is given, ordered by partition key and row
// key. Records beyond the cap are evicted from the end.
type ResultBuilder struct {
	take    int
	records []*record.Record
}

// NewResultBuilder creates a ResultBuilder keeping at most take records; take <= 0 keeps
// all of them.
func NewResultBuilder(take int) *ResultBuilder {
	return &ResultBuilder{take: take}
}

// Add inserts rec at its sorted position.
func (b *ResultBuilder) Add(rec *record.Record) {
	if b.take > 0 && len(b.records) == b.take && record.Compare(rec, b.records[len(b.records)-1]) >= 0 {
		return
	}

	i := 0
	for i < len(b.records) && record.Compare(b.records[i], rec) <= 0 {
		i++
	}
	b.records = append(b.records, nil)
	copy(b.records[i+1:], b.records[i:])
	b.records[i] = rec

	if b.take > 0 && len(b.records) > b.take {
		b.records[len(b.records)-1] = nil
		b.records = b.records[:len(b.records)-1]
	}
}

func (b *ResultBuilder) Len() int {
	return len(b.records)
}

// Records returns the kept records in order.
func (b *ResultBuilder) Records() []*record.Record {
	out := make([]*record.Record, len(b.records))
	copy(out, b.records)
	return out
}

// ConcurrentResultBuilder is a ResultBuilder safe for use by several goroutines.
type ConcurrentResultBuilder struct {
	mu      sync.Mutex
	builder *ResultBuilder
}

func NewConcurrentResultBuilder(take int) *ConcurrentResultBuilder {
	return &ConcurrentResultBuilder{builder: NewResultBuilder(take)}
}

func (b *ConcurrentResultBuilder) Add(rec *record.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.builder.Add(rec)
}

func (b *ConcurrentResultBuilder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builder.Len()
}

func (b *ConcurrentResultBuilder) Records() []*record.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builder.Records()
}

package savannah

import (
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
)

// OperationKind is the kind of an Operation.
type OperationKind uint8

const (
	InsertKind OperationKind = iota
	DeleteKind
	RetrieveKind
)

func (k OperationKind) String() string {
	switch k {
	case InsertKind:
		return "insert"
	case DeleteKind:
		return "delete"
	case RetrieveKind:
		return "retrieve"
	}
	return fmt.Sprintf("OperationKind(%d)", uint8(k))
}

// Operation is one step of a batch. Its keys are taken from the item when the operation is
// created; changing the item afterwards does not move the operation.
type Operation[T any] struct {
	kind         OperationKind
	item         *T
	partitionKey string
	rowKey       string
}

func (o *Operation[T]) Kind() OperationKind  { return o.kind }
func (o *Operation[T]) PartitionKey() string { return o.partitionKey }
func (o *Operation[T]) RowKey() string       { return o.rowKey }

// Item returns the item the operation was created with; nil for retrieve operations.
func (o *Operation[T]) Item() *T { return o.item }

// Batch is an ordered list of operations on one partition, applied all or nothing.
// It is not safe for concurrent use.
type Batch[T any] struct {
	ops []*Operation[T]
}

func NewBatch[T any](ops ...*Operation[T]) *Batch[T] {
	b := &Batch[T]{}
	b.ops = append(b.ops, ops...)
	return b
}

func (b *Batch[T]) Len() int {
	return len(b.ops)
}

func (b *Batch[T]) At(i int) *Operation[T] {
	return b.ops[i]
}

func (b *Batch[T]) Add(op *Operation[T]) {
	b.ops = append(b.ops, op)
}

// Insert places op at index i, shifting the following operations.
func (b *Batch[T]) Insert(i int, op *Operation[T]) error {
	if i < 0 || i > len(b.ops) {
		return errs.New(errs.ErrInvalidOperation, "index %d is out of range [0, %d]", i, len(b.ops))
	}
	b.ops = append(b.ops, nil)
	copy(b.ops[i+1:], b.ops[i:])
	b.ops[i] = op
	return nil
}

// Remove removes the first occurrence of op, compared by identity, and reports whether it
// was found.
func (b *Batch[T]) Remove(op *Operation[T]) bool {
	for i, o := range b.ops {
		if o == op {
			b.ops = append(b.ops[:i], b.ops[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Batch[T]) RemoveAt(i int) error {
	if i < 0 || i >= len(b.ops) {
		return errs.New(errs.ErrInvalidOperation, "index %d is out of range [0, %d)", i, len(b.ops))
	}
	b.ops = append(b.ops[:i], b.ops[i+1:]...)
	return nil
}

func (b *Batch[T]) Clear() {
	b.ops = nil
}

// Operations returns a copy of the operation list.
func (b *Batch[T]) Operations() []*Operation[T] {
	out := make([]*Operation[T], len(b.ops))
	copy(out, b.ops)
	return out
}

// Result is the outcome of one batch operation. Item holds the stored record for inserts
// and the found record for retrieves, always as a new value.
type Result[T any] struct {
	Operation *Operation[T]
	Item      *T
}

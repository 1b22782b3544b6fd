package savannah

import (
	"context"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/limits"
	"github.com/Andrei15193/Savannah-sub000/internal/merge"
	"github.com/Andrei15193/Savannah-sub000/internal/query"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/Andrei15193/Savannah-sub000/internal/schema"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
	"reflect"
)

// Collection stores values of the struct type T. See package schema for how fields map to
// record properties.
type Collection[T any] struct {
	store      *Store
	name       string
	descriptor *schema.Descriptor
}

// Open returns a handle on the named collection of s. The collection is not required to
// exist yet; operations on a missing collection fail with ErrCollectionNotFound.
func Open[T any](s *Store, name string) (*Collection[T], error) {
	if err := limits.CheckCollectionName(name); err != nil {
		return nil, err
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, errs.New(errs.ErrInvalidOperation, "%s is not a struct", typ)
	}
	d, err := s.registry.Describe(typ)
	if err != nil {
		return nil, err
	}
	return &Collection[T]{store: s, name: name, descriptor: d}, nil
}

func (c *Collection[T]) Name() string {
	return c.name
}

// InsertOperation creates an insert of item.
func (c *Collection[T]) InsertOperation(item T) (*Operation[T], error) {
	return c.operation(InsertKind, item)
}

// DeleteOperation creates a delete of the record with the keys of item.
func (c *Collection[T]) DeleteOperation(item T) (*Operation[T], error) {
	return c.operation(DeleteKind, item)
}

// RetrieveOperation creates a point read. It must be the only operation of its batch.
func (c *Collection[T]) RetrieveOperation(partitionKey, rowKey string) *Operation[T] {
	return &Operation[T]{kind: RetrieveKind, partitionKey: partitionKey, rowKey: rowKey}
}

func (c *Collection[T]) operation(kind OperationKind, item T) (*Operation[T], error) {
	pk, rk, err := c.descriptor.Keys(reflect.ValueOf(item))
	if err != nil {
		return nil, err
	}
	return &Operation[T]{kind: kind, item: &item, partitionKey: pk, rowKey: rk}, nil
}

// Insert stores item. It fails with ErrDuplicateKey when its keys are taken.
func (c *Collection[T]) Insert(ctx context.Context, item T) error {
	op, err := c.InsertOperation(item)
	if err != nil {
		return err
	}
	_, err = c.Execute(ctx, NewBatch(op))
	return err
}

// Delete removes the record with the keys of item. It fails with ErrNotFound when there is
// no such record.
func (c *Collection[T]) Delete(ctx context.Context, item T) error {
	op, err := c.DeleteOperation(item)
	if err != nil {
		return err
	}
	_, err = c.Execute(ctx, NewBatch(op))
	return err
}

// Get returns the record stored under the given keys, or ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	results, err := c.Execute(ctx, NewBatch(c.RetrieveOperation(partitionKey, rowKey)))
	if err != nil {
		return nil, err
	}
	return results[0].Item, nil
}

// Execute applies the batch in one merge pass. Either every insert and delete is applied or
// none is. The results follow the order of the batch.
func (c *Collection[T]) Execute(ctx context.Context, batch *Batch[T]) ([]Result[T], error) {
	if batch == nil {
		return nil, errs.New(errs.ErrInvalidOperation, "batch is nil")
	}
	ops := batch.Operations()
	entries := make([]limits.Entry, len(ops))
	records := make([]*record.Record, len(ops))
	for i, op := range ops {
		if op == nil {
			return nil, errs.New(errs.ErrInvalidOperation, "operation %d is nil", i)
		}
		if err := limits.CheckKey(limits.PartitionKey, op.partitionKey); err != nil {
			return nil, err
		}
		if err := limits.CheckKey(limits.RowKey, op.rowKey); err != nil {
			return nil, err
		}
		if op.kind == InsertKind {
			rec, err := c.descriptor.ToRecord(reflect.ValueOf(op.item))
			if err != nil {
				return nil, err
			}
			records[i] = rec
		}
		entries[i] = limits.Entry{
			Retrieve:     op.kind == RetrieveKind,
			PartitionKey: op.partitionKey,
			RowKey:       op.rowKey,
			Record:       records[i],
		}
	}
	if err := limits.CheckBatch(entries); err != nil {
		return nil, err
	}

	if err := c.store.requireCollection(ctx, c.name); err != nil {
		return nil, err
	}

	if ops[0].kind == RetrieveKind {
		rec, err := c.store.scanner.Lookup(ctx, c.name, ops[0].partitionKey, ops[0].rowKey)
		if err != nil {
			return nil, err
		}
		item, err := c.decode(rec, nil)
		if err != nil {
			return nil, err
		}
		return []Result[T]{{Operation: ops[0], Item: item}}, nil
	}

	// one timestamp for the whole batch
	timestamp := *value.Encode(value.DateTimeValue(c.store.now().UTC()))
	edits := make([]merge.Edit, len(ops))
	for i, op := range ops {
		edits[i] = merge.Edit{RowKey: op.rowKey}
		if op.kind == DeleteKind {
			edits[i].Kind = merge.Delete
			continue
		}
		records[i].Timestamp = timestamp
		edits[i].Kind = merge.Insert
		edits[i].Record = records[i]
	}

	if err := c.store.engine.Apply(ctx, c.name, ops[0].partitionKey, edits); err != nil {
		return nil, err
	}

	results := make([]Result[T], len(ops))
	for i, op := range ops {
		results[i].Operation = op
		if records[i] == nil {
			continue
		}
		item, err := c.decode(records[i], nil)
		if err != nil {
			return nil, err
		}
		results[i].Item = item
	}
	return results, nil
}

// Query returns the records matching q in key order. A nil q returns every record.
func (c *Collection[T]) Query(ctx context.Context, q *Query) ([]*T, error) {
	if q == nil {
		q = &Query{}
	}
	if q.Take < 0 {
		return nil, errs.New(errs.ErrInvalidOperation, "take must not be negative")
	}
	for _, name := range q.Select {
		if err := limits.CheckFieldName(name); err != nil {
			return nil, err
		}
	}
	if err := query.Validate(q.Filter); err != nil {
		return nil, err
	}
	if err := c.store.requireCollection(ctx, c.name); err != nil {
		return nil, err
	}

	records, err := c.store.scanner.Run(ctx, c.name, query.Compile(q.Filter), q.Take)
	if err != nil {
		return nil, err
	}

	items := make([]*T, len(records))
	for i, rec := range records {
		if items[i], err = c.decode(rec, q.Select); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (c *Collection[T]) decode(rec *record.Record, projection []string) (*T, error) {
	item := new(T)
	if err := c.descriptor.FromRecord(rec, reflect.ValueOf(item), projection); err != nil {
		return nil, err
	}
	return item, nil
}

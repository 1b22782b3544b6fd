package savannah

import (
	"context"
	"github.com/Andrei15193/Savannah-sub000/internal/bucket"
	"github.com/Andrei15193/Savannah-sub000/internal/filesystem"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type animal struct {
	PartitionKey string
	RowKey       string
	Timestamp    time.Time
	Name         string
	Legs         int32
	Weight       *float64
}

func openAnimals(t *testing.T, s *Store) *Collection[animal] {
	t.Helper()
	_, err := s.CreateCollectionIfNotExists(context.Background(), "animals")
	require.NoError(t, err)
	c, err := Open[animal](s, "animals")
	require.NoError(t, err)
	return c
}

func rowKeys(items []*animal) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.PartitionKey + "/" + item.RowKey
	}
	return out
}

// partitions lists the partition keys stored in the bucket of partitionKey.
func partitions(t *testing.T, s *Store, hash bucket.HashFunc, partitionKey string) []string {
	t.Helper()
	name := bucket.NewPartitioner(hash).Bucket("animals", partitionKey)
	f, err := os.Open(filepath.Join(s.fs.Root(), filepath.FromSlash(name)))
	require.NoError(t, err)
	defer f.Close()

	var keys []string
	r := bucket.NewReader(f)
	for {
		key, ok, err := r.NextPartition()
		require.NoError(t, err)
		if !ok {
			return keys
		}
		keys = append(keys, key)
	}
}

func TestCollection_InsertThenQuery(t *testing.T) {
	req := require.New(t)
	animals := openAnimals(t, newTestStore(t))
	ctx := context.Background()

	first := animal{PartitionKey: "p", RowKey: "r1", Name: "zebra", Legs: 4}
	req.NoError(animals.Insert(ctx, animal{PartitionKey: "p", RowKey: "r2", Name: "ostrich", Legs: 2}))
	req.NoError(animals.Insert(ctx, first))

	found, err := animals.Query(ctx, nil)
	req.NoError(err)
	req.Equal([]string{"p/r1", "p/r2"}, rowKeys(found))
	req.Equal("zebra", found[0].Name)
	req.Equal(testClock, found[0].Timestamp)
	req.Nil(found[0].Weight)
	req.NotSame(&first, found[0])
}

func TestCollection_DuplicateInsert(t *testing.T) {
	req := require.New(t)
	animals := openAnimals(t, newTestStore(t))
	ctx := context.Background()

	req.NoError(animals.Insert(ctx, animal{PartitionKey: "p", RowKey: "r", Name: "first"}))
	err := animals.Insert(ctx, animal{PartitionKey: "p", RowKey: "r", Name: "second"})
	req.ErrorIs(err, ErrDuplicateKey)
	req.True(IsConflict(err))

	found, err := animals.Query(ctx, nil)
	req.NoError(err)
	req.Len(found, 1)
	req.Equal("first", found[0].Name)
}

func TestCollection_BatchAllOrNothing(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	animals := openAnimals(t, s)
	ctx := context.Background()

	a, err := animals.InsertOperation(animal{PartitionKey: "p", RowKey: "a"})
	req.NoError(err)
	b, err := animals.InsertOperation(animal{PartitionKey: "p", RowKey: "b"})
	req.NoError(err)
	c, err := animals.DeleteOperation(animal{PartitionKey: "p", RowKey: "c"})
	req.NoError(err)

	_, err = animals.Execute(ctx, NewBatch(a, b, c))
	req.ErrorIs(err, ErrNotFound)

	found, err := animals.Query(ctx, &Query{Filter: Equal("PartitionKey", "p")})
	req.NoError(err)
	req.Empty(found)

	entries, err := os.ReadDir(filepath.Join(s.fs.Root(), filesystem.TempFolder))
	req.NoError(err)
	req.Empty(entries)
}

func TestCollection_DeleteLastInPartition(t *testing.T) {
	req := require.New(t)
	shared := func(string) string { return "shared" }
	s := newTestStore(t, withHash(shared))
	animals := openAnimals(t, s)
	ctx := context.Background()

	req.NoError(animals.Insert(ctx, animal{PartitionKey: "herd", RowKey: "1"}))
	req.NoError(animals.Insert(ctx, animal{PartitionKey: "solo", RowKey: "1"}))
	req.Equal([]string{"herd", "solo"}, partitions(t, s, shared, "solo"))

	req.NoError(animals.Delete(ctx, animal{PartitionKey: "solo", RowKey: "1"}))
	req.Equal([]string{"herd"}, partitions(t, s, shared, "solo"))

	err := animals.Delete(ctx, animal{PartitionKey: "solo", RowKey: "1"})
	req.ErrorIs(err, ErrNotFound)
}

func TestCollection_SharedBucket(t *testing.T) {
	req := require.New(t)
	animals := openAnimals(t, newTestStore(t, withHash(func(string) string { return "same" })))
	ctx := context.Background()

	req.NoError(animals.Insert(ctx, animal{PartitionKey: "2", RowKey: "r", Name: "two"}))
	req.NoError(animals.Insert(ctx, animal{PartitionKey: "1", RowKey: "r", Name: "one"}))

	found, err := animals.Query(ctx, nil)
	req.NoError(err)
	req.Equal([]string{"1/r", "2/r"}, rowKeys(found))
	req.Equal("one", found[0].Name)
	req.Equal("two", found[1].Name)

	found, err = animals.Query(ctx, &Query{Filter: Equal("PartitionKey", "2")})
	req.NoError(err)
	req.Equal([]string{"2/r"}, rowKeys(found))
}

func TestCollection_ValidationBeforeIO(t *testing.T) {
	ctrl := gomock.NewController(t)
	// no expectations: any file system call fails the test
	fsys := filesystem.NewMockFileSystem(ctrl)
	s, err := New(&Config{FS: fsys})
	require.NoError(t, err)
	animals, err := Open[animal](s, "animals")
	require.NoError(t, err)
	ctx := context.Background()

	long := make([]byte, 513)
	for i := range long {
		long[i] = 'k'
	}

	tests := map[string]func() error{
		"tab in partition key": func() error {
			return animals.Insert(ctx, animal{PartitionKey: "a\tb", RowKey: "r"})
		},
		"slash in row key": func() error {
			return animals.Delete(ctx, animal{PartitionKey: "p", RowKey: "a/b"})
		},
		"long partition key": func() error {
			_, err := animals.Get(ctx, string(long), "r")
			return err
		},
		"empty batch": func() error {
			_, err := animals.Execute(ctx, NewBatch[animal]())
			return err
		},
		"mixed partitions": func() error {
			a, _ := animals.InsertOperation(animal{PartitionKey: "p1", RowKey: "r"})
			b, _ := animals.InsertOperation(animal{PartitionKey: "p2", RowKey: "r"})
			_, err := animals.Execute(ctx, NewBatch(a, b))
			return err
		},
		"retrieve with others": func() error {
			a, _ := animals.InsertOperation(animal{PartitionKey: "p", RowKey: "a"})
			_, err := animals.Execute(ctx, NewBatch(a, animals.RetrieveOperation("p", "b")))
			return err
		},
		"repeated row key": func() error {
			a, _ := animals.InsertOperation(animal{PartitionKey: "p", RowKey: "a"})
			b, _ := animals.DeleteOperation(animal{PartitionKey: "p", RowKey: "a"})
			_, err := animals.Execute(ctx, NewBatch(a, b))
			return err
		},
		"negative take": func() error {
			_, err := animals.Query(ctx, &Query{Take: -1})
			return err
		},
		"bad select": func() error {
			_, err := animals.Query(ctx, &Query{Select: []string{"xmlName"}})
			return err
		},
	}

	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, fn(), ErrInvalidOperation)
		})
	}
}

func TestCollection_Get(t *testing.T) {
	req := require.New(t)
	animals := openAnimals(t, newTestStore(t))
	ctx := context.Background()

	weight := 5.5
	req.NoError(animals.Insert(ctx, animal{PartitionKey: "cats", RowKey: "tom", Name: "Tom", Legs: 4, Weight: &weight}))

	tom, err := animals.Get(ctx, "cats", "tom")
	req.NoError(err)
	req.Equal(&animal{PartitionKey: "cats", RowKey: "tom", Timestamp: testClock, Name: "Tom", Legs: 4, Weight: &weight}, tom)

	_, err = animals.Get(ctx, "cats", "felix")
	req.ErrorIs(err, ErrNotFound)
	_, err = animals.Get(ctx, "dogs", "rex")
	req.ErrorIs(err, ErrNotFound)

	results, err := animals.Execute(ctx, NewBatch(animals.RetrieveOperation("cats", "tom")))
	req.NoError(err)
	req.Len(results, 1)
	req.Equal(RetrieveKind, results[0].Operation.Kind())
	req.Equal("Tom", results[0].Item.Name)
}

func TestCollection_Execute_Results(t *testing.T) {
	req := require.New(t)
	animals := openAnimals(t, newTestStore(t))
	ctx := context.Background()

	req.NoError(animals.Insert(ctx, animal{PartitionKey: "p", RowKey: "old"}))

	ins, err := animals.InsertOperation(animal{PartitionKey: "p", RowKey: "new", Name: "fresh"})
	req.NoError(err)
	del, err := animals.DeleteOperation(animal{PartitionKey: "p", RowKey: "old"})
	req.NoError(err)

	results, err := animals.Execute(ctx, NewBatch(ins, del))
	req.NoError(err)
	req.Len(results, 2)
	req.Same(ins, results[0].Operation)
	req.Equal("fresh", results[0].Item.Name)
	req.Equal(testClock, results[0].Item.Timestamp)
	req.NotSame(ins.Item(), results[0].Item)
	req.Same(del, results[1].Operation)
	req.Nil(results[1].Item)

	found, err := animals.Query(ctx, nil)
	req.NoError(err)
	req.Equal([]string{"p/new"}, rowKeys(found))
}

func TestCollection_Query(t *testing.T) {
	animals := openAnimals(t, newTestStore(t))
	ctx := context.Background()

	heavy, light := 300.0, 0.2
	for _, a := range []animal{
		{PartitionKey: "birds", RowKey: "owl", Name: "Owl", Legs: 2, Weight: &light},
		{PartitionKey: "birds", RowKey: "emu", Name: "Emu", Legs: 2},
		{PartitionKey: "mammals", RowKey: "bear", Name: "Bear", Legs: 4, Weight: &heavy},
		{PartitionKey: "mammals", RowKey: "bat", Name: "Bat", Legs: 2},
		{PartitionKey: "reptiles", RowKey: "snake", Name: "Snake", Legs: 0},
	} {
		require.NoError(t, animals.Insert(ctx, a))
	}

	tests := map[string]struct {
		query    *Query
		expected []string
	}{
		"all": {
			query:    &Query{},
			expected: []string{"birds/emu", "birds/owl", "mammals/bat", "mammals/bear", "reptiles/snake"},
		},
		"take": {
			query:    &Query{Take: 2},
			expected: []string{"birds/emu", "birds/owl"},
		},
		"partition": {
			query:    &Query{Filter: Equal("PartitionKey", "mammals")},
			expected: []string{"mammals/bat", "mammals/bear"},
		},
		"int property": {
			query:    &Query{Filter: Equal("Legs", int32(2))},
			expected: []string{"birds/emu", "birds/owl", "mammals/bat"},
		},
		"widened int": {
			query:    &Query{Filter: LessThan("Legs", 1.5)},
			expected: []string{"reptiles/snake"},
		},
		"nullable skipped": {
			query:    &Query{Filter: GreaterThan("Weight", 0)},
			expected: []string{"birds/owl", "mammals/bear"},
		},
		"or": {
			query:    &Query{Filter: Or(Equal("Name", "Emu"), Equal("RowKey", "snake"))},
			expected: []string{"birds/emu", "reptiles/snake"},
		},
		"and not": {
			query:    &Query{Filter: And(Equal("Legs", int32(2)), Not(Equal("PartitionKey", "birds")))},
			expected: []string{"mammals/bat"},
		},
		"timestamp": {
			query:    &Query{Filter: GreaterThanOrEqual("Timestamp", testClock)},
			expected: []string{"birds/emu", "birds/owl", "mammals/bat", "mammals/bear", "reptiles/snake"},
		},
		"missing partition": {
			query:    &Query{Filter: Equal("PartitionKey", "fish")},
			expected: []string{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			found, err := animals.Query(ctx, tc.query)
			require.NoError(t, err)
			require.Equal(t, tc.expected, rowKeys(found))
		})
	}
}

func TestCollection_Query_Select(t *testing.T) {
	req := require.New(t)
	animals := openAnimals(t, newTestStore(t))
	ctx := context.Background()

	req.NoError(animals.Insert(ctx, animal{PartitionKey: "p", RowKey: "r", Name: "Yak", Legs: 4}))
	found, err := animals.Query(ctx, &Query{Select: []string{"Legs"}})
	req.NoError(err)
	req.Equal([]*animal{{PartitionKey: "p", RowKey: "r", Timestamp: testClock, Legs: 4}}, found)
}

func TestCollection_Query_Errors(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	animals := openAnimals(t, s)
	ctx := context.Background()

	req.NoError(animals.Insert(ctx, animal{PartitionKey: "p", RowKey: "r", Name: "Gnu"}))
	_, err := animals.Query(ctx, &Query{Filter: Equal("Name", true)})
	req.ErrorIs(err, ErrTypeMismatch)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = animals.Query(cancelled, nil)
	req.ErrorIs(err, context.Canceled)

	missing, err := Open[animal](s, "plants")
	req.NoError(err)
	_, err = missing.Query(ctx, &Query{Filter: Equal("PartitionKey", "p")})
	req.ErrorIs(err, ErrCollectionNotFound)
	req.ErrorIs(missing.Insert(ctx, animal{PartitionKey: "p", RowKey: "r"}), ErrCollectionNotFound)

	req.Panics(func() { Equal("Name", struct{}{}) })

	invalid := map[string]struct {
		query *Query
	}{
		"nil left operand":  {query: &Query{Filter: And(nil, Equal("Name", "x"))}},
		"nil right operand": {query: &Query{Filter: Or(Equal("Name", "x"), nil)}},
		"nested nil":        {query: &Query{Filter: And(Equal("Name", "x"), Or(nil, nil))}},
		"negative take":     {query: &Query{Take: -1}},
		"bad select":        {query: &Query{Select: []string{"not a field"}}},
	}
	for name, tc := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := animals.Query(ctx, tc.query)
			require.ErrorIs(t, err, ErrInvalidOperation)
		})
	}
}

func TestCollection_Execute_Invalid(t *testing.T) {
	req := require.New(t)
	animals := openAnimals(t, newTestStore(t))
	ctx := context.Background()

	_, err := animals.Execute(ctx, nil)
	req.ErrorIs(err, ErrInvalidOperation)

	_, err = animals.Execute(ctx, NewBatch[animal]())
	req.ErrorIs(err, ErrInvalidOperation)

	ins, err := animals.InsertOperation(animal{PartitionKey: "p", RowKey: "r"})
	req.NoError(err)
	_, err = animals.Execute(ctx, NewBatch(ins, nil))
	req.ErrorIs(err, ErrInvalidOperation)

	found, err := animals.Query(ctx, nil)
	req.NoError(err)
	req.Empty(found)
}

func TestOpen_NotStruct(t *testing.T) {
	s := newTestStore(t)
	_, err := Open[*animal](s, "animals")
	require.ErrorIs(t, err, ErrInvalidOperation)
	_, err = Open[string](s, "animals")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

type wideAnimal struct {
	PartitionKey string
	RowKey       string
	Legs         int64
}

func TestCollection_Query_NarrowingOutOfRange(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	animals := openAnimals(t, s)
	ctx := context.Background()

	wide, err := Open[wideAnimal](s, "animals")
	req.NoError(err)
	req.NoError(wide.Insert(ctx, wideAnimal{PartitionKey: "p", RowKey: "centipede", Legs: 5_000_000_000}))
	req.NoError(wide.Insert(ctx, wideAnimal{PartitionKey: "p", RowKey: "spider", Legs: 8}))

	_, err = animals.Query(ctx, nil)
	req.ErrorIs(err, ErrTypeMismatch)

	spider, err := animals.Get(ctx, "p", "spider")
	req.NoError(err)
	req.Equal(int32(8), spider.Legs)
}

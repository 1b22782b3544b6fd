// Package savannah is an embedded object store that keeps plain Go structs in sorted XML
// bucket files on disk.
//
// Every record is identified by a partition key and a row key. Records sharing a partition
// key are stored together in one bucket file, chosen by hashing the partition key, and are
// kept sorted by row key. Writes stream the bucket into a temporary file and atomically
// replace it, so a failed write leaves the bucket exactly as it was.
//
//	store, err := savannah.New(&savannah.Config{RootDir: dir})
//	...
//	err = store.Start()
//	...
//	err = store.CreateCollection(ctx, "customers")
//	customers, err := savannah.Open[Customer](store, "customers")
//	err = customers.Insert(ctx, Customer{PartitionKey: "eu", RowKey: "0042", Name: "Ada"})
//	found, err := customers.Query(ctx, &savannah.Query{
//		Filter: savannah.And(
//			savannah.Equal("PartitionKey", "eu"),
//			savannah.GreaterThan("Age", int32(30)),
//		),
//		Take: 10,
//	})
//
// The store does not lock buckets. Writes to the same partition must be serialized by the
// caller; writes to different buckets and queries may run concurrently.
package savannah

// Package bucket maps partition keys onto bucket files and reads and writes the bucket file
// format.
//
// A bucket is an XML document:
//
//	<?xml version="1.0" encoding="utf-8"?>
//	<Bucket>
//	  <Partition PartitionKey="customers">
//	    <Object PartitionKey="customers" RowKey="0042" Timestamp="2024/03/09 07:05:03:1234567Z">
//	      <Name Type="String" Value="Ada" />
//	      <Age Type="Int" Value="36" />
//	    </Object>
//	  </Partition>
//	</Bucket>
//
// (indented here for readability, files carry no whitespace between elements). Partitions
// are sorted by partition key and objects by row key, both ordinally. A zero-length or
// missing file is an empty bucket.
package bucket

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"path"
)

// HashFunc maps a partition key to the name of its bucket file. Distinct keys may map to the
// same name.
type HashFunc func(partitionKey string) string

// MD5Hash is the default HashFunc: the lower-case hex MD5 digest of the key.
func MD5Hash(partitionKey string) string {
	sum := md5.Sum([]byte(partitionKey))
	return hex.EncodeToString(sum[:])
}

// FNVHash hashes the key with 64-bit FNV-1a.
func FNVHash(partitionKey string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(partitionKey))
	return fmt.Sprintf("%016x", h.Sum64())
}

// HashByName returns the HashFunc registered under name ("md5" or "fnv").
func HashByName(name string) (HashFunc, error) {
	switch name {
	case "", "md5":
		return MD5Hash, nil
	case "fnv":
		return FNVHash, nil
	}
	return nil, fmt.Errorf("unknown hash %q", name)
}

// Partitioner locates the bucket of a partition key inside a collection folder.
type Partitioner struct {
	hash HashFunc
}

// NewPartitioner creates a Partitioner; a nil hash means MD5Hash.
func NewPartitioner(hash HashFunc) *Partitioner {
	if hash == nil {
		hash = MD5Hash
	}
	return &Partitioner{hash: hash}
}

// Bucket returns the name of the bucket file, relative to the filesystem root.
func (p *Partitioner) Bucket(collection, partitionKey string) string {
	return path.Join(collection, p.hash(partitionKey))
}

// Package record defines the wire-level unit stored in bucket files.
package record

import (
	"github.com/Andrei15193/Savannah-sub000/internal/value"
	"strings"
)

// Property is one named, typed field of a stored record. Value holds the canonical text
// form, nil meaning the field is unset.
type Property struct {
	Name  string
	Value *string
	Type  value.Type
}

// Record defines a stored object:
//
// Example:
//
//	Record{
//	  PartitionKey: "customers",
//	  RowKey:       "0042",
//	  Timestamp:    "2024/03/09 07:05:03:1234567Z",
//	  Properties: []Property{
//	    {Name: "Name", Type: value.String, Value: &name},
//	    {Name: "Age", Type: value.Int32, Value: &age},
//	  },
//	}
//
// Records of one collection are unique by (PartitionKey, RowKey). An empty Timestamp means
// the record carries none.
type Record struct {
	PartitionKey string
	RowKey       string
	Timestamp    string
	Properties   []Property
}

// Compare orders records by partition key, then row key, using ordinal comparison.
func Compare(a, b *Record) int {
	if c := strings.Compare(a.PartitionKey, b.PartitionKey); c != 0 {
		return c
	}
	return strings.Compare(a.RowKey, b.RowKey)
}

// Property returns the property with the given name.
func (r *Record) Property(name string) (Property, bool) {
	for _, p := range r.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := &Record{
		PartitionKey: r.PartitionKey,
		RowKey:       r.RowKey,
		Timestamp:    r.Timestamp,
		Properties:   make([]Property, len(r.Properties)),
	}
	for i, p := range r.Properties {
		c.Properties[i] = p
		if p.Value != nil {
			v := *p.Value
			c.Properties[i].Value = &v
		}
	}
	return c
}

// Fields decodes the record into a map of typed values, including the PartitionKey, RowKey
// and Timestamp entries.
func (r *Record) Fields() (map[string]value.Value, error) {
	fields := make(map[string]value.Value, len(r.Properties)+3)
	for _, p := range r.Properties {
		v, err := value.Decode(p.Type, p.Value)
		if err != nil {
			return nil, err
		}
		fields[p.Name] = v
	}

	fields[PartitionKeyName] = value.StringValue(r.PartitionKey)
	fields[RowKeyName] = value.StringValue(r.RowKey)
	if r.Timestamp != "" {
		ts, err := value.Decode(value.DateTime, &r.Timestamp)
		if err != nil {
			return nil, err
		}
		fields[TimestampName] = ts
	} else {
		fields[TimestampName] = value.Null(value.DateTime)
	}
	return fields, nil
}

const (
	PartitionKeyName = "PartitionKey"
	RowKeyName       = "RowKey"
	TimestampName    = "Timestamp"
)

package query

import (
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
)

// Plan is a compiled filter.
//
// PartitionKeys and RowKeys, when not nil, list the only key values a matching record can
// have; scans skip buckets, partitions and records outside them. They are only set for
// filters that are a conjunction of equality tests on the keys (other properties may be
// tested alongside). An Or anywhere in the filter, or any other comparison of a key, leaves
// the list nil.
type Plan struct {
	filter        Filter
	PartitionKeys []string
	RowKeys       []string
}

type keyCollector struct {
	values  []string
	invalid bool
}

func (k *keyCollector) add(v string) {
	if k.invalid {
		return
	}
	for _, existing := range k.values {
		if existing == v {
			return
		}
	}
	k.values = append(k.values, v)
}

func (k *keyCollector) invalidate() {
	k.invalid = true
	k.values = nil
}

func (k *keyCollector) result() []string {
	if k.invalid {
		return nil
	}
	return k.values
}

// Compile compiles filter; a nil filter matches every record.
func Compile(filter Filter) *Plan {
	plan := &Plan{filter: filter}
	if filter == nil {
		return plan
	}

	var pk, rk keyCollector
	collectKeys(filter, &pk, &rk)
	plan.PartitionKeys = pk.result()
	plan.RowKeys = rk.result()
	return plan
}

func collectKeys(f Filter, pk, rk *keyCollector) {
	if isNil(f) {
		return
	}
	switch n := f.(type) {
	case *LogicalFilter:
		if n.operator != And {
			pk.invalidate()
			rk.invalidate()
			return
		}
		collectKeys(n.left, pk, rk)
		collectKeys(n.right, pk, rk)
	case *ValueFilter:
		var keys *keyCollector
		switch n.property {
		case record.PartitionKeyName:
			keys = pk
		case record.RowKeyName:
			keys = rk
		default:
			return
		}
		s, ok := n.value.Data.(string)
		if n.operator != Equal || n.value.Type != value.String || !ok {
			keys.invalidate()
			return
		}
		keys.add(s)
	}
}

// Filter returns the compiled filter, nil when the plan matches everything.
func (p *Plan) Filter() Filter {
	return p.filter
}

// Match evaluates the plan against the fields of a record.
func (p *Plan) Match(fields map[string]value.Value) (bool, error) {
	if p.filter == nil {
		return true, nil
	}
	return p.filter.match(fields)
}

// MatchRecord decodes rec and evaluates the plan against it.
func (p *Plan) MatchRecord(rec *record.Record) (bool, error) {
	if p.filter == nil {
		return true, nil
	}
	fields, err := rec.Fields()
	if err != nil {
		return false, err
	}
	return p.filter.match(fields)
}

func (p *Plan) allowsPartition(key string) bool {
	return allows(p.PartitionKeys, key)
}

func (p *Plan) allowsRow(key string) bool {
	return allows(p.RowKeys, key)
}

func allows(keys []string, key string) bool {
	if keys == nil {
		return true
	}
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

package savannah

import (
	"github.com/Andrei15193/Savannah-sub000/internal/query"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
)

// Filter is an immutable predicate over record properties. PartitionKey, RowKey and
// Timestamp can be filtered on like any other property.
type Filter = query.Filter

// Query selects records of a collection. A nil Filter matches every record, a positive Take
// keeps only the first records in key order and a non nil Select fills in only the listed
// properties besides the keys and timestamp.
type Query struct {
	Filter Filter
	Take   int
	Select []string
}

// constant converts a Go value to a filter constant. Values of types a record field cannot
// hold are a programming error and panic.
func constant(v any) value.Value {
	c, err := value.Of(v)
	if err != nil {
		panic(err)
	}
	return c
}

func Equal(property string, v any) Filter {
	return query.Eq(property, constant(v))
}

func NotEqual(property string, v any) Filter {
	return query.Ne(property, constant(v))
}

func LessThan(property string, v any) Filter {
	return query.Lt(property, constant(v))
}

func LessThanOrEqual(property string, v any) Filter {
	return query.Le(property, constant(v))
}

func GreaterThan(property string, v any) Filter {
	return query.Gt(property, constant(v))
}

func GreaterThanOrEqual(property string, v any) Filter {
	return query.Ge(property, constant(v))
}

// And matches records matching both filters.
func And(left, right Filter) Filter {
	return query.AllOf(left, right)
}

// Or matches records matching either filter.
func Or(left, right Filter) Filter {
	return query.AnyOf(left, right)
}

// Not matches exactly the records f does not match, except that records missing a compared
// property match neither.
func Not(f Filter) Filter {
	return f.Not()
}

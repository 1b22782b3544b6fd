// Package query compiles filters into scan plans, evaluates them against records and
// collects the smallest matching records of a collection.
package query

import (
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
)

type Operator uint8

const (
	Equal Operator = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	And
	Or
)

var operatorNames = map[Operator]string{
	Equal:              "eq",
	NotEqual:           "ne",
	LessThan:           "lt",
	LessThanOrEqual:    "le",
	GreaterThan:        "gt",
	GreaterThanOrEqual: "ge",
	And:                "and",
	Or:                 "or",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", uint8(o))
}

// Negate returns the operator matching exactly the opposite records.
func (o Operator) Negate() Operator {
	switch o {
	case Equal:
		return NotEqual
	case NotEqual:
		return Equal
	case LessThan:
		return GreaterThanOrEqual
	case GreaterThanOrEqual:
		return LessThan
	case LessThanOrEqual:
		return GreaterThan
	case GreaterThan:
		return LessThanOrEqual
	case And:
		return Or
	case Or:
		return And
	}
	panic(fmt.Sprintf("unknown operator %d", uint8(o)))
}

// Filter is an immutable predicate tree over record properties.
type Filter interface {
	// Not returns the negated filter.
	Not() Filter
	String() string
	match(fields map[string]value.Value) (bool, error)
}

// ValueFilter compares one property against a constant.
type ValueFilter struct {
	property string
	operator Operator
	negation Operator
	value    value.Value
}

func newValueFilter(property string, op Operator, v value.Value) *ValueFilter {
	return &ValueFilter{property: property, operator: op, negation: op.Negate(), value: v}
}

func (f *ValueFilter) Property() string   { return f.property }
func (f *ValueFilter) Operator() Operator { return f.operator }
func (f *ValueFilter) Value() value.Value { return f.value }

func (f *ValueFilter) Not() Filter {
	return newValueFilter(f.property, f.negation, f.value)
}

func (f *ValueFilter) String() string {
	return fmt.Sprintf("%s %s %s", f.property, f.operator, f.value)
}

// LogicalFilter combines two filters with And or Or.
type LogicalFilter struct {
	left     Filter
	operator Operator
	negation Operator
	right    Filter
}

func (f *LogicalFilter) Left() Filter       { return f.left }
func (f *LogicalFilter) Operator() Operator { return f.operator }
func (f *LogicalFilter) Right() Filter      { return f.right }

// Not applies De Morgan's laws. Missing operands stay missing.
func (f *LogicalFilter) Not() Filter {
	return &LogicalFilter{left: negate(f.left), operator: f.negation, negation: f.operator, right: negate(f.right)}
}

func negate(f Filter) Filter {
	if isNil(f) {
		return nil
	}
	return f.Not()
}

func (f *LogicalFilter) String() string {
	return fmt.Sprintf("(%s) %s (%s)", f.left, f.operator, f.right)
}

func Eq(property string, v value.Value) Filter {
	return newValueFilter(property, Equal, v)
}

func Ne(property string, v value.Value) Filter {
	return newValueFilter(property, NotEqual, v)
}

func Lt(property string, v value.Value) Filter {
	return newValueFilter(property, LessThan, v)
}

func Le(property string, v value.Value) Filter {
	return newValueFilter(property, LessThanOrEqual, v)
}

func Gt(property string, v value.Value) Filter {
	return newValueFilter(property, GreaterThan, v)
}

func Ge(property string, v value.Value) Filter {
	return newValueFilter(property, GreaterThanOrEqual, v)
}

// AllOf combines left and right with And.
func AllOf(left, right Filter) Filter {
	return &LogicalFilter{left: left, operator: And, negation: Or, right: right}
}

// AnyOf combines left and right with Or.
func AnyOf(left, right Filter) Filter {
	return &LogicalFilter{left: left, operator: Or, negation: And, right: right}
}

// Validate reports filters with missing operands. A nil filter is valid and matches every
// record.
func Validate(f Filter) error {
	if f == nil {
		return nil
	}
	return validate(f)
}

func validate(f Filter) error {
	switch n := f.(type) {
	case nil:
		return errs.New(errs.ErrInvalidOperation, "filter operand is missing")
	case *ValueFilter:
		if n == nil {
			return errs.New(errs.ErrInvalidOperation, "filter operand is missing")
		}
	case *LogicalFilter:
		if n == nil || isNil(n.left) || isNil(n.right) {
			return errs.New(errs.ErrInvalidOperation, "%s filter is missing an operand", operatorOf(n))
		}
		if err := validate(n.left); err != nil {
			return err
		}
		return validate(n.right)
	}
	return nil
}

func operatorOf(f *LogicalFilter) Operator {
	if f == nil {
		return And
	}
	return f.operator
}

// isNil reports nil interfaces and nil filter pointers.
func isNil(f Filter) bool {
	switch n := f.(type) {
	case nil:
		return true
	case *ValueFilter:
		return n == nil
	case *LogicalFilter:
		return n == nil
	}
	return false
}

func (f *ValueFilter) match(fields map[string]value.Value) (bool, error) {
	stored, ok := fields[f.property]
	if !ok || stored.IsNull() || f.value.IsNull() {
		return false, nil
	}

	c, err := compare(f.property, stored, f.value)
	if err != nil {
		return false, err
	}

	switch f.operator {
	case Equal:
		return c == 0, nil
	case NotEqual:
		return c != 0, nil
	case LessThan:
		return c < 0, nil
	case LessThanOrEqual:
		return c <= 0, nil
	case GreaterThan:
		return c > 0, nil
	case GreaterThanOrEqual:
		return c >= 0, nil
	}
	return false, fmt.Errorf("operator %s does not compare values", f.operator)
}

func (f *LogicalFilter) match(fields map[string]value.Value) (bool, error) {
	if isNil(f.left) || isNil(f.right) {
		return false, errs.New(errs.ErrInvalidOperation, "%s filter is missing an operand", f.operator)
	}
	left, err := f.left.match(fields)
	if err != nil {
		return false, err
	}

	switch f.operator {
	case And:
		if !left {
			return false, nil
		}
	case Or:
		if left {
			return true, nil
		}
	default:
		return false, fmt.Errorf("operator %s does not combine filters", f.operator)
	}
	return f.right.match(fields)
}

// Package schema describes how a Go struct maps onto a stored record.
//
// Exported fields become properties named after the field, or after the first element of a
// `savannah` tag:
//
//	type Customer struct {
//		PartitionKey string
//		RowKey       string
//		Timestamp    time.Time
//		Name         string `savannah:"FullName"`
//		Age          *int32
//		Checksum     []byte `savannah:",readonly"`
//		Cache        string `savannah:"-"`
//	}
//
// Fields named PartitionKey and RowKey must be strings and hold the record's keys; a field
// named Timestamp must be a time.Time and receives the time of the last write. A readonly
// field is stored but never filled in when reading. Supported field types are string,
// []byte, bool, time.Time, float64, uuid.UUID, int32, int64 and pointers to the scalar types
// for nullable fields.
package schema

import (
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/limits"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
	"github.com/google/uuid"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

const tagName = "savannah"

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Field is one mapped struct field.
type Field struct {
	Name     string
	Type     value.Type
	Index    []int
	Nullable bool
}

// Descriptor is the mapping of one struct type.
type Descriptor struct {
	Type         reflect.Type
	PartitionKey *Field
	RowKey       *Field
	Timestamp    *Field
	// Readable lists the fields stored on write, sorted by name.
	Readable []Field
	// Writable lists the fields filled in on read, sorted by name.
	Writable []Field
}

// Registry builds descriptors once per type. It is safe for concurrent use.
type Registry struct {
	descriptors sync.Map // reflect.Type -> *Descriptor
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Describe returns the descriptor of t, which must be a struct or a pointer to one.
func (r *Registry) Describe(t reflect.Type) (*Descriptor, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := r.descriptors.Load(t); ok {
		return d.(*Descriptor), nil
	}

	d, err := describe(t)
	if err != nil {
		return nil, err
	}
	actual, _ := r.descriptors.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

func describe(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, errs.New(errs.ErrInvalidOperation, "%s is not a struct", t)
	}

	d := &Descriptor{Type: t}
	seen := make(map[string]struct{})
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous || !reachable(t, sf.Index) {
			continue
		}
		name, readOnly, skip := parseTag(sf)
		if skip {
			continue
		}

		if err := limits.CheckFieldName(name); err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			return nil, errs.New(errs.ErrInvalidOperation, "%s maps more than one field to %s", t, name)
		}
		seen[name] = struct{}{}

		typ, nullable, err := valueType(sf.Type)
		if err != nil {
			return nil, errs.New(errs.ErrInvalidOperation, "%s.%s: %v", t, sf.Name, err)
		}
		field := Field{Name: name, Type: typ, Index: sf.Index, Nullable: nullable}

		switch name {
		case record.PartitionKeyName, record.RowKeyName:
			if sf.Type.Kind() != reflect.String {
				return nil, errs.New(errs.ErrInvalidOperation, "%s.%s must be a string", t, sf.Name)
			}
			if name == record.PartitionKeyName {
				d.PartitionKey = &field
			} else {
				d.RowKey = &field
			}
			continue
		case record.TimestampName:
			if sf.Type != timeType {
				return nil, errs.New(errs.ErrInvalidOperation, "%s.%s must be a time.Time", t, sf.Name)
			}
			d.Timestamp = &field
			continue
		}

		d.Readable = append(d.Readable, field)
		if !readOnly {
			d.Writable = append(d.Writable, field)
		}
	}

	if err := limits.CheckFieldCount(len(d.Readable)); err != nil {
		return nil, err
	}
	if err := limits.CheckFieldCount(len(d.Writable)); err != nil {
		return nil, err
	}
	sort.Slice(d.Readable, func(i, j int) bool { return d.Readable[i].Name < d.Readable[j].Name })
	sort.Slice(d.Writable, func(i, j int) bool { return d.Writable[i].Name < d.Writable[j].Name })
	return d, nil
}

// reachable reports whether every embedded struct on the path to a promoted field is
// exported.
func reachable(t reflect.Type, index []int) bool {
	for i := 1; i < len(index); i++ {
		if !t.FieldByIndex(index[:i]).IsExported() {
			return false
		}
	}
	return true
}

func parseTag(sf reflect.StructField) (name string, readOnly, skip bool) {
	tag, ok := sf.Tag.Lookup(tagName)
	if !ok {
		return sf.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = sf.Name
	}
	for _, opt := range parts[1:] {
		if opt == "readonly" {
			readOnly = true
		}
	}
	return name, readOnly, false
}

func valueType(t reflect.Type) (value.Type, bool, error) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	switch {
	case t == timeType:
		return value.DateTime, nullable, nil
	case t == uuidType:
		return value.Guid, nullable, nil
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 && !nullable:
		return value.Binary, false, nil
	}

	switch t.Kind() {
	case reflect.String:
		return value.String, nullable, nil
	case reflect.Bool:
		return value.Boolean, nullable, nil
	case reflect.Float64:
		return value.Double, nullable, nil
	case reflect.Int32:
		return value.Int32, nullable, nil
	case reflect.Int64:
		return value.Int64, nullable, nil
	}
	return value.String, false, fmt.Errorf("not supported property type: %s", t)
}

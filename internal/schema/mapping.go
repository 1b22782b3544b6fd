package schema

import (
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/limits"
	"github.com/Andrei15193/Savannah-sub000/internal/record"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
	"github.com/google/uuid"
	"math"
	"reflect"
	"time"
)

// Keys returns the partition and row key held by v.
func (d *Descriptor) Keys(v reflect.Value) (string, string, error) {
	if d.PartitionKey == nil || d.RowKey == nil {
		return "", "", errs.New(errs.ErrInvalidOperation, "%s has no PartitionKey and RowKey fields", d.Type)
	}
	v = deref(v)

	pk, err := v.FieldByIndexErr(d.PartitionKey.Index)
	if err != nil {
		return "", "", errs.New(errs.ErrInvalidOperation, "%s: %v", d.Type, err)
	}
	rk, err := v.FieldByIndexErr(d.RowKey.Index)
	if err != nil {
		return "", "", errs.New(errs.ErrInvalidOperation, "%s: %v", d.Type, err)
	}
	return pk.String(), rk.String(), nil
}

// ToRecord converts v into a record without timestamp, validating keys and values.
func (d *Descriptor) ToRecord(v reflect.Value) (*record.Record, error) {
	pk, rk, err := d.Keys(v)
	if err != nil {
		return nil, err
	}
	if err := limits.CheckKey(limits.PartitionKey, pk); err != nil {
		return nil, err
	}
	if err := limits.CheckKey(limits.RowKey, rk); err != nil {
		return nil, err
	}

	v = deref(v)
	rec := &record.Record{
		PartitionKey: pk,
		RowKey:       rk,
		Properties:   make([]record.Property, 0, len(d.Readable)),
	}
	for _, f := range d.Readable {
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			return nil, errs.New(errs.ErrInvalidOperation, "%s.%s: %v", d.Type, f.Name, err)
		}
		val := read(fv, f.Type)
		if err := limits.CheckValue(f.Name, val); err != nil {
			return nil, err
		}
		rec.Properties = append(rec.Properties, record.Property{Name: f.Name, Type: f.Type, Value: value.Encode(val)})
	}

	if err := limits.CheckRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FromRecord fills the struct v points to from rec. When projection is not nil only the
// listed properties are filled in; keys and timestamp always are.
func (d *Descriptor) FromRecord(rec *record.Record, v reflect.Value, projection []string) error {
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errs.New(errs.ErrInvalidOperation, "cannot fill %s into a non pointer value", d.Type)
	}
	v = v.Elem()

	if d.PartitionKey != nil {
		if err := setKey(v, d.PartitionKey, rec.PartitionKey); err != nil {
			return err
		}
	}
	if d.RowKey != nil {
		if err := setKey(v, d.RowKey, rec.RowKey); err != nil {
			return err
		}
	}
	if d.Timestamp != nil && rec.Timestamp != "" {
		ts, err := value.Decode(value.DateTime, &rec.Timestamp)
		if err != nil {
			return err
		}
		fv, err := field(v, d.Timestamp)
		if err != nil {
			return err
		}
		write(fv, ts)
	}

	var selected map[string]struct{}
	if projection != nil {
		selected = make(map[string]struct{}, len(projection))
		for _, name := range projection {
			selected[name] = struct{}{}
		}
	}

	for _, f := range d.Writable {
		if selected != nil {
			if _, ok := selected[f.Name]; !ok {
				continue
			}
		}
		p, ok := rec.Property(f.Name)
		if !ok {
			continue
		}
		val, err := value.Decode(p.Type, p.Value)
		if err != nil {
			return err
		}
		if val, err = convert(val, f); err != nil {
			return err
		}

		fv, err := field(v, &f)
		if err != nil {
			return err
		}
		write(fv, val)
	}
	return nil
}

func setKey(v reflect.Value, f *Field, key string) error {
	fv, err := field(v, f)
	if err != nil {
		return err
	}
	fv.SetString(key)
	return nil
}

// field returns the settable struct field, allocating embedded pointers on the way.
func field(v reflect.Value, f *Field) (reflect.Value, error) {
	for i, x := range f.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	if !v.CanSet() {
		return reflect.Value{}, errs.New(errs.ErrInvalidOperation, "field %s cannot be set", f.Name)
	}
	return v, nil
}

// convert adapts a stored value to the type of f. Numbers widen freely; they narrow only
// when the stored value is whole and in range of the field type.
func convert(v value.Value, f Field) (value.Value, error) {
	if v.Type == f.Type || v.IsNull() {
		return value.Value{Type: f.Type, Data: v.Data}, nil
	}
	if !v.Type.IsNumeric() || !f.Type.IsNumeric() {
		return value.Value{}, errs.New(errs.ErrTypeMismatch, "stored %s property %s does not fit a %s field", v.Type, f.Name, f.Type)
	}

	if f.Type == value.Double {
		switch x := v.Data.(type) {
		case int32:
			return value.DoubleValue(float64(x)), nil
		case int64:
			return value.DoubleValue(float64(x)), nil
		}
	}

	var n int64
	switch x := v.Data.(type) {
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		// 2^63 itself is out of range of int64
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return value.Value{}, errs.New(errs.ErrTypeMismatch, "stored %s %v of property %s does not fit a %s field", v.Type, x, f.Name, f.Type)
		}
		n = int64(x)
	}

	if f.Type == value.Int32 {
		if n < math.MinInt32 || n > math.MaxInt32 {
			return value.Value{}, errs.New(errs.ErrTypeMismatch, "stored %s %d of property %s does not fit a %s field", v.Type, n, f.Name, f.Type)
		}
		return value.Int32Value(int32(n)), nil
	}
	return value.Int64Value(n), nil
}

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

// read returns the value held by a struct field.
func read(fv reflect.Value, typ value.Type) value.Value {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return value.Null(typ)
		}
		fv = fv.Elem()
	}

	switch typ {
	case value.String:
		return value.StringValue(fv.String())
	case value.Binary:
		if fv.IsNil() {
			return value.Null(typ)
		}
		return value.BinaryValue(fv.Bytes())
	case value.Boolean:
		return value.BooleanValue(fv.Bool())
	case value.DateTime:
		return value.DateTimeValue(fv.Interface().(time.Time))
	case value.Double:
		return value.DoubleValue(fv.Float())
	case value.Guid:
		return value.GuidValue(fv.Interface().(uuid.UUID))
	case value.Int32:
		return value.Int32Value(int32(fv.Int()))
	case value.Int64:
		return value.Int64Value(fv.Int())
	}
	return value.Null(typ)
}

// write stores v into a struct field; an unset value leaves the zero value.
func write(fv reflect.Value, v value.Value) {
	if v.IsNull() {
		fv.Set(reflect.Zero(fv.Type()))
		return
	}

	target := fv
	if fv.Kind() == reflect.Pointer {
		target = reflect.New(fv.Type().Elem()).Elem()
	}

	switch data := v.Data.(type) {
	case string:
		target.SetString(data)
	case []byte:
		target.SetBytes(data)
	case bool:
		target.SetBool(data)
	case time.Time:
		target.Set(reflect.ValueOf(data))
	case float64:
		target.SetFloat(data)
	case uuid.UUID:
		target.Set(reflect.ValueOf(data))
	case int32:
		target.SetInt(int64(data))
	case int64:
		target.SetInt(data)
	}

	if fv.Kind() == reflect.Pointer {
		fv.Set(target.Addr())
	}
}

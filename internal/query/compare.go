package query

import (
	"bytes"
	"cmp"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/Andrei15193/Savannah-sub000/internal/value"
	"github.com/google/uuid"
	"strings"
	"time"
)

// compare orders a stored value against a filter constant. Numeric values of different
// types are widened to float64; values of the same type compare exactly.
func compare(property string, stored, constant value.Value) (int, error) {
	if stored.Type.IsNumeric() && constant.Type.IsNumeric() {
		if stored.Type != constant.Type {
			return cmp.Compare(asFloat64(stored), asFloat64(constant)), nil
		}
	} else if stored.Type != constant.Type {
		return 0, errs.New(errs.ErrTypeMismatch, "cannot compare %s property %s with %s", stored.Type, property, constant.Type)
	}

	switch a := stored.Data.(type) {
	case string:
		return strings.Compare(a, constant.Data.(string)), nil
	case []byte:
		return bytes.Compare(a, constant.Data.([]byte)), nil
	case bool:
		b := constant.Data.(bool)
		switch {
		case a == b:
			return 0, nil
		case !a:
			return -1, nil
		}
		return 1, nil
	case time.Time:
		return a.Compare(constant.Data.(time.Time)), nil
	case float64:
		return cmp.Compare(a, constant.Data.(float64)), nil
	case uuid.UUID:
		b := constant.Data.(uuid.UUID)
		return bytes.Compare(a[:], b[:]), nil
	case int32:
		return cmp.Compare(a, constant.Data.(int32)), nil
	case int64:
		return cmp.Compare(a, constant.Data.(int64)), nil
	}
	return 0, errs.New(errs.ErrTypeMismatch, "cannot compare %T property %s", stored.Data, property)
}

func asFloat64(v value.Value) float64 {
	switch x := v.Data.(type) {
	case float64:
		return x
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}

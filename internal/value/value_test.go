package value

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestOf(t *testing.T) {
	now := time.Now()
	id := uuid.New()
	s := "x"
	var nilInt *int32

	tests := map[string]struct {
		in       any
		expected Value
	}{
		"string":      {in: "a", expected: StringValue("a")},
		"binary":      {in: []byte{1}, expected: BinaryValue([]byte{1})},
		"bool":        {in: true, expected: BooleanValue(true)},
		"time":        {in: now, expected: DateTimeValue(now)},
		"double":      {in: 1.5, expected: DoubleValue(1.5)},
		"guid":        {in: id, expected: GuidValue(id)},
		"int32":       {in: int32(3), expected: Int32Value(3)},
		"int64":       {in: int64(3), expected: Int64Value(3)},
		"int":         {in: 3, expected: Int64Value(3)},
		"pointer":     {in: &s, expected: StringValue("x")},
		"nil pointer": {in: nilInt, expected: Null(Int32)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Of(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}

	_, err := Of(uint8(1))
	require.EqualError(t, err, "not supported property type: uint8")
}

func TestValue_IsNull(t *testing.T) {
	require.True(t, Null(String).IsNull())
	require.True(t, BinaryValue(nil).IsNull())
	require.False(t, BinaryValue([]byte{}).IsNull())
	require.False(t, StringValue("").IsNull())
	require.Equal(t, "Int(null)", Null(Int32).String())
	require.Equal(t, "Long(7)", Int64Value(7).String())
}

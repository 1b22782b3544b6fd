package value

import (
	"errors"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
	"time"
)

func ptr(s string) *string { return &s }

func TestEncode(t *testing.T) {
	tests := map[string]struct {
		value    Value
		expected *string
	}{
		"string":          {value: StringValue("hello"), expected: ptr("hello")},
		"empty string":    {value: StringValue(""), expected: ptr("")},
		"null string":     {value: Null(String), expected: nil},
		"binary":          {value: BinaryValue([]byte{0x0a, 0xff, 0x10}), expected: ptr("0AFF10")},
		"empty binary":    {value: BinaryValue([]byte{}), expected: ptr("")},
		"nil binary":      {value: BinaryValue(nil), expected: nil},
		"true":            {value: BooleanValue(true), expected: ptr("true")},
		"false":           {value: BooleanValue(false), expected: ptr("false")},
		"int32":           {value: Int32Value(-42), expected: ptr("-42")},
		"int64":           {value: Int64Value(math.MaxInt64), expected: ptr("9223372036854775807")},
		"double integral": {value: DoubleValue(1000000), expected: ptr("1000000")},
		"double fraction": {value: DoubleValue(1.5), expected: ptr("1.5")},
		"double small":    {value: DoubleValue(0.0001), expected: ptr("0.0001")},
		"double tiny":     {value: DoubleValue(0.00001), expected: ptr("1E-05")},
		"double large":    {value: DoubleValue(1e15), expected: ptr("1E+15")},
		"double below e15": {
			value:    DoubleValue(123456789012345),
			expected: ptr("123456789012345"),
		},
		"double mantissa": {value: DoubleValue(-1.25e20), expected: ptr("-1.25E+20")},
		"double zero":     {value: DoubleValue(0), expected: ptr("0")},
		"double nan":      {value: DoubleValue(math.NaN()), expected: ptr("NaN")},
		"double +inf":     {value: DoubleValue(math.Inf(1)), expected: ptr("Infinity")},
		"double -inf":     {value: DoubleValue(math.Inf(-1)), expected: ptr("-Infinity")},
		"guid": {
			value:    GuidValue(uuid.MustParse("6F9619FF-8B86-D011-B42D-00C04FC964FF")),
			expected: ptr("6f9619ff-8b86-d011-b42d-00c04fc964ff"),
		},
		"datetime utc": {
			value:    DateTimeValue(time.Date(2024, 3, 9, 7, 5, 3, 123456700, time.UTC)),
			expected: ptr("2024/03/09 07:05:03:1234567Z"),
		},
		"datetime offset": {
			value:    DateTimeValue(time.Date(2024, 3, 9, 7, 5, 3, 0, time.FixedZone("", -(5*3600 + 30*60)))),
			expected: ptr("2024/03/09 07:05:03:0000000-05:30"),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, Encode(tc.value))
		})
	}
}

func TestEncode_unsupportedType(t *testing.T) {
	require.PanicsWithValue(t, "not supported property type: uint8", func() {
		Encode(Value{Type: Int32, Data: uint8(1)})
	})
	require.Panics(t, func() {
		Encode(Value{Type: Int64, Data: int32(1)})
	})
}

func TestDecode(t *testing.T) {
	tests := map[string]struct {
		typ      Type
		text     *string
		expected Value
	}{
		"null":             {typ: Int32, text: nil, expected: Null(Int32)},
		"odd binary":       {typ: Binary, text: ptr("ABC"), expected: BinaryValue([]byte{0x0a, 0xbc})},
		"lower binary":     {typ: Binary, text: ptr("ff"), expected: BinaryValue([]byte{0xff})},
		"blank binary":     {typ: Binary, text: ptr("  "), expected: BinaryValue([]byte{})},
		"boolean one":      {typ: Boolean, text: ptr("1"), expected: BooleanValue(true)},
		"boolean caps":     {typ: Boolean, text: ptr("False"), expected: BooleanValue(false)},
		"double exponent":  {typ: Double, text: ptr("1E+15"), expected: DoubleValue(1e15)},
		"double infinity":  {typ: Double, text: ptr("-Infinity"), expected: DoubleValue(math.Inf(-1))},
		"int32":            {typ: Int32, text: ptr("2147483647"), expected: Int32Value(math.MaxInt32)},
		"int64":            {typ: Int64, text: ptr("-9"), expected: Int64Value(-9)},
		"string untouched": {typ: String, text: ptr(" a "), expected: StringValue(" a ")},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(tc.typ, tc.text)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestDecode_malformed(t *testing.T) {
	tests := map[string]struct {
		typ  Type
		text string
	}{
		"binary":          {typ: Binary, text: "XYZ"},
		"boolean":         {typ: Boolean, text: "yes"},
		"datetime":        {typ: DateTime, text: "2024-03-09T07:05:03Z"},
		"datetime offset": {typ: DateTime, text: "2024/03/09 07:05:03:0000000+5"},
		"double":          {typ: Double, text: "1,5"},
		"guid":            {typ: Guid, text: "not-a-guid"},
		"int32 overflow":  {typ: Int32, text: "2147483648"},
		"int64":           {typ: Int64, text: "12.0"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.typ, &tc.text)
			require.Error(t, err)
			require.True(t, errors.Is(err, errs.ErrInvalidOperation))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		StringValue("with \"quotes\" & <tags>"),
		BinaryValue([]byte{0, 1, 2, 254, 255}),
		BooleanValue(true),
		DateTimeValue(time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)),
		DateTimeValue(time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC)),
		DateTimeValue(time.Date(2020, 2, 29, 12, 0, 0, 100, time.FixedZone("", 3600))),
		DateTimeValue(time.Date(1900, 1, 1, 0, 0, 0, 0, time.FixedZone("", 19*60+32))),
		DateTimeValue(time.Date(1880, 6, 1, 12, 30, 0, 0, time.FixedZone("", -(4*3600+56*60+2)))),
		DoubleValue(math.Pi),
		DoubleValue(-2.5e-300),
		DoubleValue(math.MaxFloat64),
		DoubleValue(math.SmallestNonzeroFloat64),
		DoubleValue(123.456),
		GuidValue(uuid.New()),
		Int32Value(math.MinInt32),
		Int64Value(math.MinInt64),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			text := Encode(v)
			require.NotNil(t, text)

			decoded, err := Decode(v.Type, text)
			require.NoError(t, err)

			if v.Type == DateTime {
				require.True(t, v.Data.(time.Time).Equal(decoded.Data.(time.Time)))
			} else {
				require.Equal(t, v, decoded)
			}

			// canonical text is stable
			require.Equal(t, *text, *Encode(decoded))
		})
	}
}

func TestEncode_SubMinuteOffset(t *testing.T) {
	local := time.Date(1900, 1, 1, 0, 0, 0, 0, time.FixedZone("", 19*60+32))
	require.Equal(t, "1899/12/31 23:40:28:0000000Z", *Encode(DateTimeValue(local)))

	whole := time.Date(1900, 1, 1, 0, 0, 0, 0, time.FixedZone("", -90*60))
	require.Equal(t, "1900/01/01 00:00:00:0000000-01:30", *Encode(DateTimeValue(whole)))
}

func TestParseType(t *testing.T) {
	for typ, name := range typeNames {
		got, ok := ParseType(name)
		require.True(t, ok)
		require.Equal(t, typ, got)
		require.Equal(t, name, typ.String())
	}

	got, ok := ParseType("")
	require.True(t, ok)
	require.Equal(t, String, got)

	_, ok = ParseType("Decimal")
	require.False(t, ok)
}

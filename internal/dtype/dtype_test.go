package dtype

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestClassSize(t *testing.T) {
	tests := []struct {
		class Class
		size  int
	}{
		{Float64, 8},
		{Float32, 4},
		{Int64, 8},
		{Int32, 4},
		{Uint8, 1},
		{String, 0},
		{Reference, 8},
		{Record, 0},
	}

	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			require.Equal(t, tt.size, tt.class.Size())
			require.True(t, tt.class.Valid())
		})
	}
}

func TestParseClass(t *testing.T) {
	c, err := ParseClass("Float32")
	require.NoError(t, err)
	require.Equal(t, Float32, c)

	c, err = ParseClass("")
	require.NoError(t, err)
	require.Equal(t, Float64, c)

	_, err = ParseClass("complex128")
	require.Error(t, err)
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float64{0, 1.5, -2.25, math.NaN(), math.Inf(1), 1e-300}

	data, err := EncodeFloat64s(Float64, values)
	require.NoError(t, err)
	require.Len(t, data, len(values)*8)

	got, err := DecodeFloat64s(Float64, data)
	require.NoError(t, err)
	if diff := cmp.Diff(values, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("float64 round trip (-want +got):\n%s", diff)
	}
}

func TestFloat32Narrowing(t *testing.T) {
	values := []float64{0.5, -3.25, math.NaN()}

	data, err := EncodeFloat64s(Float32, values)
	require.NoError(t, err)
	require.Len(t, data, 12)

	got, err := DecodeFloat64s(Float32, data)
	require.NoError(t, err)
	if diff := cmp.Diff(values, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("float32 round trip (-want +got):\n%s", diff)
	}
}

func TestIntegerClasses(t *testing.T) {
	tests := []struct {
		name    string
		class   Class
		values  []float64
		wantErr bool
	}{
		{"int64", Int64, []float64{-5, 0, 1 << 40}, false},
		{"int32", Int32, []float64{-7, 42}, false},
		{"uint8", Uint8, []float64{0, 255}, false},
		{"int32 fraction", Int32, []float64{1.5}, true},
		{"int64 nan", Int64, []float64{math.NaN()}, true},
		{"int32 overflow", Int32, []float64{1 << 33}, true},
		{"uint8 negative", Uint8, []float64{-1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeFloat64s(tt.class, tt.values)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			got, err := DecodeFloat64s(tt.class, data)
			require.NoError(t, err)
			require.Equal(t, tt.values, got)
		})
	}
}

func TestEncodeNonNumeric(t *testing.T) {
	_, err := EncodeFloat64s(String, []float64{1})
	require.Error(t, err)
	_, err = DecodeFloat64s(Record, []byte{1})
	require.Error(t, err)
	_, err = DecodeFloat64s(Float64, []byte{1, 2, 3})
	require.Error(t, err)
}

func TestStrings(t *testing.T) {
	values := []string{"soma", "", "cell/dend[0]", "ünïcode"}
	got, err := DecodeStrings(EncodeStrings(values))
	require.NoError(t, err)
	require.Equal(t, values, got)

	_, err = DecodeStrings([]byte{10, 'a'})
	require.Error(t, err)
}

func TestRecords(t *testing.T) {
	values := []RecordValue{{Source: "c1", Ref: 17}, {Source: "c2", Ref: 0}}
	got, err := DecodeRecords(EncodeRecords(values))
	require.NoError(t, err)
	require.Equal(t, values, got)

	data := EncodeRecords(values)
	_, err = DecodeRecords(data[:len(data)-3])
	require.Error(t, err)
}

func TestInt64s(t *testing.T) {
	values := []int64{-1, 0, 1 << 62}
	got, err := DecodeInt64s(EncodeInt64s(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
}

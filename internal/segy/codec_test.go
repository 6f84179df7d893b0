package segy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIBMFloat(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want float32
	}{
		{name: "positive hundred", raw: []byte{0x42, 0x64, 0x00, 0x00}, want: 100.0},
		{name: "negative fraction", raw: []byte{0xC2, 0x76, 0xA0, 0x00}, want: -118.625},
		{name: "zero", raw: []byte{0x00, 0x00, 0x00, 0x00}, want: 0},
		{name: "one", raw: []byte{0x41, 0x10, 0x00, 0x00}, want: 1.0},
		{name: "signed zero fraction", raw: []byte{0x80, 0x00, 0x00, 0x00}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeIBMFloat(tc.raw)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-6)
		})
	}
}

func TestDecodeIntegers(t *testing.T) {
	tests := []struct {
		name string
		code FormatCode
		raw  []byte
		want float32
	}{
		{name: "int32 positive", code: FormatInt32, raw: []byte{0x00, 0x00, 0x30, 0x39}, want: 12345},
		{name: "int32 negative", code: FormatInt32, raw: []byte{0xFF, 0xFF, 0xFF, 0xFF}, want: -1},
		{name: "int16 positive", code: FormatInt16, raw: []byte{0x01, 0x00}, want: 256},
		{name: "int16 negative", code: FormatInt16, raw: []byte{0x80, 0x00}, want: -32768},
		{name: "int8 positive", code: FormatInt8, raw: []byte{0x7F}, want: 127},
		{name: "int8 negative", code: FormatInt8, raw: []byte{0x80}, want: -128},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decode, err := tc.code.Decoder()
			require.NoError(t, err)
			got, err := decode(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeFixedPoint(t *testing.T) {
	// 16 fractional bits: 0x00018000 is 1.5, 0xFFFF8000 is -0.5.
	got, err := decodeFixedPoint([]byte{0x00, 0x01, 0x80, 0x00})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-6)

	got, err = decodeFixedPoint([]byte{0xFF, 0xFF, 0x80, 0x00})
	require.NoError(t, err)
	assert.InDelta(t, -0.5, got, 1e-6)
}

func TestIEEERoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 3.14159, -1e20, 1e-20, 118.625}
	buf := make([]byte, 4)
	for _, v := range values {
		EncodeIEEE(v, buf)
		got, err := decodeIEEEFloat(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecoderShortInput(t *testing.T) {
	for _, code := range []FormatCode{FormatIBMFloat, FormatInt32, FormatInt16, FormatFixedPoint, FormatIEEEFloat, FormatInt8} {
		decode, err := code.Decoder()
		require.NoError(t, err)
		_, err = decode(nil)
		assert.Error(t, err, "format %v", code)
	}
}

func TestDecoderUnsupported(t *testing.T) {
	for _, code := range []FormatCode{0, 6, 7, 9, 100} {
		_, err := code.Decoder()
		require.ErrorIs(t, err, ErrUnsupportedFormatCode, "format %v", code)
		assert.False(t, code.Supported())
	}
}

func TestElementWidth(t *testing.T) {
	assert.Equal(t, 4, FormatIBMFloat.ElementWidth())
	assert.Equal(t, 4, FormatInt32.ElementWidth())
	assert.Equal(t, 2, FormatInt16.ElementWidth())
	assert.Equal(t, 4, FormatFixedPoint.ElementWidth())
	assert.Equal(t, 4, FormatIEEEFloat.ElementWidth())
	assert.Equal(t, 1, FormatInt8.ElementWidth())
}

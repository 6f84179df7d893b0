package segy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// FormatCode identifies the on-disk sample encoding declared in the binary
// header. The supported set is closed; a decoder is resolved once per run
// from the header field, never re-dispatched per sample.
type FormatCode uint16

const (
	FormatIBMFloat   FormatCode = 1 // 4-byte IBM floating point
	FormatInt32      FormatCode = 2 // 4-byte two's complement integer
	FormatInt16      FormatCode = 3 // 2-byte two's complement integer
	FormatFixedPoint FormatCode = 4 // 4-byte fixed point with gain (obsolete)
	FormatIEEEFloat  FormatCode = 5 // 4-byte IEEE floating point
	FormatInt8       FormatCode = 8 // 1-byte two's complement integer
)

// Supported reports whether the code is one this package can decode.
func (c FormatCode) Supported() bool {
	switch c {
	case FormatIBMFloat, FormatInt32, FormatInt16, FormatFixedPoint, FormatIEEEFloat, FormatInt8:
		return true
	}
	return false
}

// ElementWidth returns the byte width of one sample in this encoding.
func (c FormatCode) ElementWidth() int {
	switch c {
	case FormatInt16:
		return 2
	case FormatInt8:
		return 1
	default:
		return 4
	}
}

func (c FormatCode) String() string {
	switch c {
	case FormatIBMFloat:
		return "IBM float"
	case FormatInt32:
		return "32-bit integer"
	case FormatInt16:
		return "16-bit integer"
	case FormatFixedPoint:
		return "fixed point"
	case FormatIEEEFloat:
		return "IEEE float"
	case FormatInt8:
		return "8-bit integer"
	default:
		return fmt.Sprintf("unknown (%d)", uint16(c))
	}
}

// SampleDecoder converts one raw sample at the start of b to float32.
type SampleDecoder func(b []byte) (float32, error)

// Decoder returns the decode function for the format code. This is the single
// point where codec support is gated.
func (c FormatCode) Decoder() (SampleDecoder, error) {
	switch c {
	case FormatIBMFloat:
		return decodeIBMFloat, nil
	case FormatInt32:
		return decodeInt32, nil
	case FormatInt16:
		return decodeInt16, nil
	case FormatFixedPoint:
		return decodeFixedPoint, nil
	case FormatIEEEFloat:
		return decodeIEEEFloat, nil
	case FormatInt8:
		return decodeInt8, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormatCode, c)
	}
}

// fixedPointFractionBits is the fractional width assumed for format code 4.
const fixedPointFractionBits = 16

// decodeIBMFloat interprets a 4-byte IBM System/360 float: sign bit, 7-bit
// base-16 exponent in excess-64, 24-bit fraction below the radix point. The
// exponent base correction makes this a bit-level transform rather than a
// reinterpretation of the IEEE layout.
func decodeIBMFloat(b []byte) (float32, error) {
	if len(b) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	u := binary.BigEndian.Uint32(b)
	frac := u & 0x00FFFFFF
	if frac == 0 {
		return 0, nil
	}
	exp := int((u >> 24) & 0x7F)
	v := math.Ldexp(float64(frac), 4*(exp-64)-24)
	if u&0x80000000 != 0 {
		v = -v
	}
	return float32(v), nil
}

func decodeInt32(b []byte) (float32, error) {
	if len(b) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	return float32(int32(binary.BigEndian.Uint32(b))), nil
}

func decodeInt16(b []byte) (float32, error) {
	if len(b) < 2 {
		return 0, io.ErrUnexpectedEOF
	}
	return float32(int16(binary.BigEndian.Uint16(b))), nil
}

func decodeFixedPoint(b []byte) (float32, error) {
	if len(b) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	raw := int32(binary.BigEndian.Uint32(b))
	return float32(float64(raw) / float64(int64(1)<<fixedPointFractionBits)), nil
}

func decodeIEEEFloat(b []byte) (float32, error) {
	if len(b) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func decodeInt8(b []byte) (float32, error) {
	if len(b) < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	return float32(int8(b[0])), nil
}

// EncodeIEEE writes v as a 4-byte big-endian IEEE float into dst. The
// standardization target is always format code 5, so this is the only
// encoder.
func EncodeIEEE(v float32, dst []byte) {
	binary.BigEndian.PutUint32(dst, math.Float32bits(v))
}

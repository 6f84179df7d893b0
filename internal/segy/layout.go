package segy

import (
	"encoding/binary"
	"fmt"
)

// ParseHeaders decodes the textual and binary file headers from the first
// 3600 bytes of a SEG-Y file. The decode is pure: buf is copied, never
// retained or modified.
func ParseHeaders(buf []byte) (TextualHeader, BinaryHeader, error) {
	if len(buf) < FileHeaderSize {
		return TextualHeader{}, BinaryHeader{}, fmt.Errorf("%w: %d bytes", ErrTruncatedFile, len(buf))
	}
	textual := TextualHeader{Raw: append([]byte(nil), buf[:TextualHeaderSize]...)}
	bin, err := parseBinaryHeader(buf[TextualHeaderSize:FileHeaderSize])
	if err != nil {
		return TextualHeader{}, BinaryHeader{}, err
	}
	return textual, bin, nil
}

func parseBinaryHeader(raw []byte) (BinaryHeader, error) {
	var hdr BinaryHeader
	hdr.Raw = append([]byte(nil), raw[:BinaryHeaderSize]...)
	hdr.SampleIntervalUs = binary.BigEndian.Uint16(raw[binSampleInterval : binSampleInterval+2])
	hdr.SamplesPerTrace = binary.BigEndian.Uint16(raw[binSamplesPerTrace : binSamplesPerTrace+2])
	hdr.FormatCode = FormatCode(binary.BigEndian.Uint16(raw[binFormatCode : binFormatCode+2]))
	hdr.RevMajor = raw[binRevision]
	hdr.RevMinor = raw[binRevision+1]
	hdr.FixedLength = binary.BigEndian.Uint16(raw[binFixedLength:binFixedLength+2]) != 0
	hdr.ExtendedTextual = int16(binary.BigEndian.Uint16(raw[binExtendedTextual : binExtendedTextual+2]))
	hdr.DeclaredTraces = binary.BigEndian.Uint64(raw[binTraceCount : binTraceCount+8])
	if !hdr.FormatCode.Supported() {
		return BinaryHeader{}, fmt.Errorf("%w: %d", ErrUnsupportedFormatCode, hdr.FormatCode)
	}
	return hdr, nil
}

// ParseTraceHeader decodes one 240-byte trace header.
func ParseTraceHeader(raw []byte) (TraceHeader, error) {
	if len(raw) < TraceHeaderSize {
		return TraceHeader{}, fmt.Errorf("trace header too short: %d bytes", len(raw))
	}
	return TraceHeader{
		Sequence:         binary.BigEndian.Uint32(raw[trcSequence : trcSequence+4]),
		SampleCount:      binary.BigEndian.Uint16(raw[trcSampleCount : trcSampleCount+2]),
		SampleIntervalUs: binary.BigEndian.Uint16(raw[trcSampleInterval : trcSampleInterval+2]),
		CDPX:             int32(binary.BigEndian.Uint32(raw[trcCDPX : trcCDPX+4])),
		CDPY:             int32(binary.BigEndian.Uint32(raw[trcCDPY : trcCDPY+4])),
		Inline:           int32(binary.BigEndian.Uint32(raw[trcInline : trcInline+4])),
		Crossline:        int32(binary.BigEndian.Uint32(raw[trcCrossline : trcCrossline+4])),
	}, nil
}

package segy

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	buf := testHeader(t, FormatInt16, 4000, 500, 42)
	bin := buf[TextualHeaderSize:]
	bin[binRevision] = 1
	bin[binRevision+1] = 0
	binary.BigEndian.PutUint16(bin[binFixedLength:], 1)
	binary.BigEndian.PutUint16(bin[binExtendedTextual:], 2)

	textual, hdr, err := ParseHeaders(buf)
	if err != nil {
		t.Fatalf("ParseHeaders failed: %v", err)
	}
	if len(textual.Raw) != TextualHeaderSize {
		t.Fatalf("textual header = %d bytes, want %d", len(textual.Raw), TextualHeaderSize)
	}
	if hdr.SampleIntervalUs != 4000 {
		t.Fatalf("SampleIntervalUs = %d, want 4000", hdr.SampleIntervalUs)
	}
	if hdr.SamplesPerTrace != 500 {
		t.Fatalf("SamplesPerTrace = %d, want 500", hdr.SamplesPerTrace)
	}
	if hdr.FormatCode != FormatInt16 {
		t.Fatalf("FormatCode = %v, want %v", hdr.FormatCode, FormatInt16)
	}
	if hdr.RevMajor != 1 || hdr.RevMinor != 0 {
		t.Fatalf("revision = %d.%d, want 1.0", hdr.RevMajor, hdr.RevMinor)
	}
	if !hdr.FixedLength {
		t.Fatalf("FixedLength = false, want true")
	}
	if hdr.ExtendedTextual != 2 {
		t.Fatalf("ExtendedTextual = %d, want 2", hdr.ExtendedTextual)
	}
	if hdr.DeclaredTraces != 42 {
		t.Fatalf("DeclaredTraces = %d, want 42", hdr.DeclaredTraces)
	}
}

func TestParseHeadersDoesNotRetainBuffer(t *testing.T) {
	buf := testHeader(t, FormatIEEEFloat, 2000, 100, 0)
	textual, hdr, err := ParseHeaders(buf)
	if err != nil {
		t.Fatalf("ParseHeaders failed: %v", err)
	}
	buf[0] = 'X'
	buf[TextualHeaderSize] = 0xFF
	if textual.Raw[0] == 'X' {
		t.Fatalf("textual header aliases the input buffer")
	}
	if hdr.Raw[0] == 0xFF {
		t.Fatalf("binary header aliases the input buffer")
	}
}

func TestParseHeadersTruncated(t *testing.T) {
	_, _, err := ParseHeaders(make([]byte, FileHeaderSize-1))
	if !errors.Is(err, ErrTruncatedFile) {
		t.Fatalf("expected ErrTruncatedFile, got %v", err)
	}
}

func TestParseHeadersUnsupportedFormat(t *testing.T) {
	buf := testHeader(t, FormatCode(7), 2000, 100, 0)
	_, _, err := ParseHeaders(buf)
	if !errors.Is(err, ErrUnsupportedFormatCode) {
		t.Fatalf("expected ErrUnsupportedFormatCode, got %v", err)
	}
}

func TestParseTraceHeader(t *testing.T) {
	raw := make([]byte, TraceHeaderSize)
	negCDPX := int32(-100)
	negCrossline := int32(-20)
	binary.BigEndian.PutUint32(raw[trcSequence:], 9)
	binary.BigEndian.PutUint16(raw[trcSampleCount:], 750)
	binary.BigEndian.PutUint16(raw[trcSampleInterval:], 2000)
	binary.BigEndian.PutUint32(raw[trcCDPX:], uint32(negCDPX))
	binary.BigEndian.PutUint32(raw[trcCDPY:], 200)
	binary.BigEndian.PutUint32(raw[trcInline:], 10)
	binary.BigEndian.PutUint32(raw[trcCrossline:], uint32(negCrossline))

	hdr, err := ParseTraceHeader(raw)
	if err != nil {
		t.Fatalf("ParseTraceHeader failed: %v", err)
	}
	if hdr.Sequence != 9 {
		t.Fatalf("Sequence = %d, want 9", hdr.Sequence)
	}
	if hdr.SampleCount != 750 {
		t.Fatalf("SampleCount = %d, want 750", hdr.SampleCount)
	}
	if hdr.SampleIntervalUs != 2000 {
		t.Fatalf("SampleIntervalUs = %d, want 2000", hdr.SampleIntervalUs)
	}
	if hdr.CDPX != -100 || hdr.CDPY != 200 {
		t.Fatalf("CDP = (%d, %d), want (-100, 200)", hdr.CDPX, hdr.CDPY)
	}
	if hdr.Inline != 10 || hdr.Crossline != -20 {
		t.Fatalf("inline/crossline = (%d, %d), want (10, -20)", hdr.Inline, hdr.Crossline)
	}

	if _, err := ParseTraceHeader(raw[:TraceHeaderSize-1]); err == nil {
		t.Fatalf("expected error for short trace header")
	}
}

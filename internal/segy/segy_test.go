package segy

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// testHeader builds a 3600-byte file header with the given fields set.
func testHeader(t *testing.T, format FormatCode, intervalUs, samplesPerTrace uint16, declared uint64) []byte {
	t.Helper()
	buf := make([]byte, FileHeaderSize)
	for i := 0; i < TextualHeaderSize; i++ {
		buf[i] = ' '
	}
	copy(buf, []byte("C 1 CLIENT TEST"))
	bin := buf[TextualHeaderSize:]
	binary.BigEndian.PutUint16(bin[binSampleInterval:], intervalUs)
	binary.BigEndian.PutUint16(bin[binSamplesPerTrace:], samplesPerTrace)
	binary.BigEndian.PutUint16(bin[binFormatCode:], uint16(format))
	binary.BigEndian.PutUint64(bin[binTraceCount:], declared)
	return buf
}

type testTrace struct {
	sampleCount uint16
	intervalUs  uint16
	inline      int32
	crossline   int32
	samples     []float32
}

// appendTrace encodes one trace record using the given format.
func appendTrace(t *testing.T, buf []byte, format FormatCode, tr testTrace) []byte {
	t.Helper()
	hdr := make([]byte, TraceHeaderSize)
	binary.BigEndian.PutUint16(hdr[trcSampleCount:], tr.sampleCount)
	binary.BigEndian.PutUint16(hdr[trcSampleInterval:], tr.intervalUs)
	binary.BigEndian.PutUint32(hdr[trcInline:], uint32(tr.inline))
	binary.BigEndian.PutUint32(hdr[trcCrossline:], uint32(tr.crossline))
	buf = append(buf, hdr...)
	for _, v := range tr.samples {
		switch format {
		case FormatInt16:
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(int16(v)))
			buf = append(buf, b[:]...)
		case FormatInt32:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
			buf = append(buf, b[:]...)
		case FormatInt8:
			buf = append(buf, byte(int8(v)))
		case FormatIEEEFloat:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
			buf = append(buf, b[:]...)
		default:
			t.Fatalf("appendTrace: unsupported test format %v", format)
		}
	}
	return buf
}

// writeTestFile persists buf into the test's temp dir and returns the path.
func writeTestFile(t *testing.T, buf []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.segy")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

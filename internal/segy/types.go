package segy

const (
	// TextualHeaderSize is the length of the EBCDIC/ASCII card-image header.
	TextualHeaderSize = 3200
	// BinaryHeaderSize is the length of the fixed binary file header.
	BinaryHeaderSize = 400
	// FileHeaderSize is the combined length of both file headers.
	FileHeaderSize = TextualHeaderSize + BinaryHeaderSize
	// TraceHeaderSize is the length of the fixed header preceding each trace.
	TraceHeaderSize = 240
)

// Binary header field offsets, relative to byte 3200.
const (
	binSampleInterval  = 16  // uint16, microseconds
	binSamplesPerTrace = 20  // uint16
	binFormatCode      = 24  // uint16
	binRevision        = 300 // major byte, minor byte
	binFixedLength     = 302 // uint16, 1 when every trace has the same length
	binExtendedTextual = 304 // int16, count of extended textual headers, -1 = variable
	binTraceCount      = 312 // uint64, declared trace count (Rev 2, advisory)
)

// Trace header field offsets, relative to the start of each trace header.
const (
	trcSequence       = 0   // uint32
	trcSampleCount    = 114 // uint16
	trcSampleInterval = 116 // uint16, microseconds
	trcCDPX           = 180 // int32
	trcCDPY           = 184 // int32
	trcInline         = 188 // int32
	trcCrossline      = 192 // int32
)

// TextualHeader holds the raw 3200-byte descriptive header. The content has
// no numeric semantics and is carried through standardization unchanged.
type TextualHeader struct {
	Raw []byte
}

// BinaryHeader holds the decoded fields of the 400-byte binary header along
// with the raw bytes, so a standardized copy can be produced without losing
// fields this package does not interpret.
type BinaryHeader struct {
	Raw []byte

	SampleIntervalUs uint16
	SamplesPerTrace  uint16
	FormatCode       FormatCode
	RevMajor         uint8
	RevMinor         uint8
	FixedLength      bool
	// ExtendedTextual counts 3200-byte extended textual header records
	// between the binary header and the first trace. -1 declares a
	// variable number of records, which this package does not read.
	ExtendedTextual int16
	// DeclaredTraces is the Rev 2 trace count field. Zero means the writer
	// left it unset; the scan result is authoritative either way.
	DeclaredTraces uint64
}

// TraceHeader holds the decoded fields of one 240-byte trace header.
type TraceHeader struct {
	Sequence         uint32
	SampleCount      uint16
	SampleIntervalUs uint16
	CDPX             int32
	CDPY             int32
	Inline           int32
	Crossline        int32
}

// TraceDescriptor records where a trace lives in the file and how large it is.
// Descriptors are views into the scanned file; they hold no sample data.
type TraceDescriptor struct {
	Index       int
	Offset      int64
	SampleCount int
	Size        int64
	Inline      int32
	Crossline   int32
}

// ScanResult aggregates everything one walk over the trace region observed.
type ScanResult struct {
	Descriptors []TraceDescriptor

	ExpectedTraceSize int64
	ExpectedTraces    int64
	ActualTraces      int64
	DeclaredTraces    uint64

	// DistinctSizes lists every trace byte size observed, ascending.
	DistinctSizes []int64
	// TrailingBytes counts bytes after the last complete trace;
	// TrailingOffset is the file offset where they begin.
	TrailingBytes  int64
	TrailingOffset int64

	InlineMin    int32
	InlineMax    int32
	CrosslineMin int32
	CrosslineMax int32
}

// Uniform reports whether every scanned trace had the same byte size.
func (r ScanResult) Uniform() bool {
	return len(r.DistinctSizes) <= 1
}

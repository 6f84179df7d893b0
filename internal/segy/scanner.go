package segy

import (
	"context"
	"fmt"
	"sort"

	"example.com/segygate/internal/common"
)

// Scanner walks the trace region of a SEG-Y file, collecting a descriptor per
// trace plus the aggregates the analysis report needs, in a single pass.
type Scanner struct {
	src     Source
	bin     BinaryHeader
	metrics *common.Metrics
}

func NewScanner(src Source, bin BinaryHeader) *Scanner {
	return &Scanner{src: src, bin: bin}
}

// SetMetrics attaches a metrics recorder to the scanner.
func (s *Scanner) SetMetrics(m *common.Metrics) {
	s.metrics = m
	if s.metrics != nil {
		s.metrics.SetTotalBytes(s.src.Size())
	}
}

// Scan walks every trace from the end of the file headers, skipping any
// extended textual header records the binary header declares. A trailing
// partial trace fails the scan with ErrTruncatedTrace; the partial result is
// still returned so callers can report what was seen up to that point.
// Non-uniform trace sizes and count mismatches never fail the scan, they are
// recorded for the validator. Cancellation is checked between traces.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	var res ScanResult
	res.DeclaredTraces = s.bin.DeclaredTraces

	if s.bin.ExtendedTextual < 0 {
		return res, fmt.Errorf("variable extended textual header count is not supported")
	}
	dataStart := int64(FileHeaderSize) + int64(s.bin.ExtendedTextual)*TextualHeaderSize
	fileSize := s.src.Size()
	if fileSize < dataStart {
		return res, fmt.Errorf("%w: %d bytes, %d extended textual headers end at byte %d",
			ErrTruncatedFile, fileSize, s.bin.ExtendedTextual, dataStart)
	}

	width := int64(s.bin.FormatCode.ElementWidth())
	res.ExpectedTraceSize = TraceHeaderSize + int64(s.bin.SamplesPerTrace)*width
	if res.ExpectedTraceSize > 0 {
		res.ExpectedTraces = (fileSize - dataStart) / res.ExpectedTraceSize
	}

	sizes := make(map[int64]struct{})
	offset := dataStart
	for offset+TraceHeaderSize <= fileSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		raw, err := sliceExact(s.src, offset, TraceHeaderSize)
		if err != nil {
			return res, fmt.Errorf("trace header at offset %d: %w", offset, err)
		}
		hdr, err := ParseTraceHeader(raw)
		if err != nil {
			return res, err
		}
		count := int(hdr.SampleCount)
		if count == 0 {
			// Writers that rely on the binary header leave the
			// per-trace count unset.
			count = int(s.bin.SamplesPerTrace)
		}
		size := TraceHeaderSize + int64(count)*width
		if offset+size > fileSize {
			res.TrailingBytes = fileSize - offset
			res.TrailingOffset = offset
			if s.metrics != nil {
				s.metrics.IncAnomaly()
			}
			res.finish(sizes)
			return res, fmt.Errorf("%w: trace %d at offset %d needs %d bytes, %d remain",
				ErrTruncatedTrace, len(res.Descriptors), offset, size, fileSize-offset)
		}

		desc := TraceDescriptor{
			Index:       len(res.Descriptors),
			Offset:      offset,
			SampleCount: count,
			Size:        size,
			Inline:      hdr.Inline,
			Crossline:   hdr.Crossline,
		}
		if len(res.Descriptors) == 0 {
			res.InlineMin, res.InlineMax = hdr.Inline, hdr.Inline
			res.CrosslineMin, res.CrosslineMax = hdr.Crossline, hdr.Crossline
		} else {
			if hdr.Inline < res.InlineMin {
				res.InlineMin = hdr.Inline
			}
			if hdr.Inline > res.InlineMax {
				res.InlineMax = hdr.Inline
			}
			if hdr.Crossline < res.CrosslineMin {
				res.CrosslineMin = hdr.Crossline
			}
			if hdr.Crossline > res.CrosslineMax {
				res.CrosslineMax = hdr.Crossline
			}
		}
		if _, seen := sizes[size]; !seen {
			sizes[size] = struct{}{}
			if len(sizes) > 1 && s.metrics != nil {
				s.metrics.IncAnomaly()
			}
		}
		res.Descriptors = append(res.Descriptors, desc)
		if s.metrics != nil {
			s.metrics.AddTrace(size)
		}
		offset += size
	}
	if remainder := fileSize - offset; remainder > 0 {
		res.TrailingBytes = remainder
		res.TrailingOffset = offset
		if s.metrics != nil {
			s.metrics.IncAnomaly()
		}
		res.finish(sizes)
		return res, fmt.Errorf("%w: %d bytes after trace %d", ErrTruncatedTrace, remainder, len(res.Descriptors))
	}

	res.finish(sizes)
	return res, nil
}

func (r *ScanResult) finish(sizes map[int64]struct{}) {
	r.ActualTraces = int64(len(r.Descriptors))
	r.DistinctSizes = make([]int64, 0, len(sizes))
	for size := range sizes {
		r.DistinctSizes = append(r.DistinctSizes, size)
	}
	sort.Slice(r.DistinctSizes, func(i, j int) bool { return r.DistinctSizes[i] < r.DistinctSizes[j] })
}

// ScanFile opens path, parses both file headers and scans the trace region.
func ScanFile(ctx context.Context, path string, metrics *common.Metrics) (TextualHeader, BinaryHeader, ScanResult, error) {
	src, err := OpenSource(path)
	if err != nil {
		return TextualHeader{}, BinaryHeader{}, ScanResult{}, err
	}
	defer src.Close()

	if src.Size() < FileHeaderSize {
		return TextualHeader{}, BinaryHeader{}, ScanResult{}, fmt.Errorf("%w: %d bytes", ErrTruncatedFile, src.Size())
	}
	head, err := sliceExact(src, 0, FileHeaderSize)
	if err != nil {
		return TextualHeader{}, BinaryHeader{}, ScanResult{}, err
	}
	textual, bin, err := ParseHeaders(head)
	if err != nil {
		return TextualHeader{}, BinaryHeader{}, ScanResult{}, err
	}
	scanner := NewScanner(src, bin)
	if metrics != nil {
		scanner.SetMetrics(metrics)
	}
	res, err := scanner.Scan(ctx)
	return textual, bin, res, err
}

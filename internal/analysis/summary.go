// Package analysis derives summary statistics from a trace scan. It is
// presentation logic only; it never changes validation outcomes.
package analysis

import (
	"fmt"
	"strings"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/segy"
)

// Summary describes what one pass over the trace headers observed.
type Summary struct {
	File     string `json:"file,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`

	FormatCode       uint16 `json:"formatCode"`
	FormatName       string `json:"formatName"`
	SampleIntervalUs uint16 `json:"sampleIntervalUs"`
	SamplesPerTrace  uint16 `json:"samplesPerTrace"`
	RevMajor         uint8  `json:"revMajor"`
	RevMinor         uint8  `json:"revMinor"`

	ExpectedTraces int64  `json:"expectedTraces"`
	ActualTraces   int64  `json:"actualTraces"`
	DeclaredTraces uint64 `json:"declaredTraces,omitempty"`

	Uniform       bool    `json:"uniform"`
	DistinctSizes []int64 `json:"distinctSizes,omitempty"`
	TrailingBytes int64   `json:"trailingBytes,omitempty"`

	InlineMin    int32 `json:"inlineMin"`
	InlineMax    int32 `json:"inlineMax"`
	CrosslineMin int32 `json:"crosslineMin"`
	CrosslineMax int32 `json:"crosslineMax"`

	// Grid shape inferred when the inline/crossline ranges are dense.
	GridInlines    int64 `json:"gridInlines,omitempty"`
	GridCrosslines int64 `json:"gridCrosslines,omitempty"`
	HasGrid        bool  `json:"hasGrid"`
}

// Summarize folds the binary header and scan result into a Summary.
func Summarize(bin segy.BinaryHeader, scan segy.ScanResult) Summary {
	s := Summary{
		FormatCode:       uint16(bin.FormatCode),
		FormatName:       bin.FormatCode.String(),
		SampleIntervalUs: bin.SampleIntervalUs,
		SamplesPerTrace:  bin.SamplesPerTrace,
		RevMajor:         bin.RevMajor,
		RevMinor:         bin.RevMinor,
		ExpectedTraces:   scan.ExpectedTraces,
		ActualTraces:     scan.ActualTraces,
		DeclaredTraces:   scan.DeclaredTraces,
		Uniform:          scan.Uniform(),
		DistinctSizes:    scan.DistinctSizes,
		TrailingBytes:    scan.TrailingBytes,
		InlineMin:        scan.InlineMin,
		InlineMax:        scan.InlineMax,
		CrosslineMin:     scan.CrosslineMin,
		CrosslineMax:     scan.CrosslineMax,
	}
	if scan.ActualTraces > 0 {
		inlines := int64(scan.InlineMax) - int64(scan.InlineMin) + 1
		crosslines := int64(scan.CrosslineMax) - int64(scan.CrosslineMin) + 1
		if inlines > 0 && crosslines > 0 && inlines*crosslines == scan.ActualTraces {
			s.GridInlines = inlines
			s.GridCrosslines = crosslines
			s.HasGrid = true
		}
	}
	return s
}

// RenderText formats the summary as a human-readable multi-line report.
func RenderText(s Summary) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	line("SEG-Y File Analysis")
	line(strings.Repeat("=", 40))
	if s.File != "" {
		line("File: %s", s.File)
	}
	if s.FileSize > 0 {
		line("Size: %s (%d bytes)", common.FormatBytes(s.FileSize), s.FileSize)
	}
	line("Format: code %d (%s), revision %d.%d", s.FormatCode, s.FormatName, s.RevMajor, s.RevMinor)
	line("Sample interval: %d us", s.SampleIntervalUs)
	line("Samples per trace: %d", s.SamplesPerTrace)
	line("")
	line("Traces: %d found, %d expected from file size", s.ActualTraces, s.ExpectedTraces)
	if s.DeclaredTraces != 0 {
		line("Declared trace count: %d", s.DeclaredTraces)
	}
	if s.Uniform {
		line("Trace sizes: uniform")
	} else {
		line("WARNING: non-uniform trace sizes: %v", s.DistinctSizes)
	}
	if s.TrailingBytes > 0 {
		line("WARNING: %d trailing bytes after last complete trace", s.TrailingBytes)
	}
	if s.ActualTraces > 0 {
		line("")
		line("Inline range: %d to %d", s.InlineMin, s.InlineMax)
		line("Crossline range: %d to %d", s.CrosslineMin, s.CrosslineMax)
		if s.HasGrid {
			line("Grid dimensions: %dx%d", s.GridInlines, s.GridCrosslines)
		} else {
			line("Grid dimensions: not inferable from ranges")
		}
	}
	return b.String()
}

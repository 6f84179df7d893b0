package analysis

import (
	"strings"
	"testing"

	"example.com/segygate/internal/segy"
)

func gridScan(traces int64, inMin, inMax, xMin, xMax int32) segy.ScanResult {
	return segy.ScanResult{
		Descriptors:    make([]segy.TraceDescriptor, traces),
		ActualTraces:   traces,
		ExpectedTraces: traces,
		DistinctSizes:  []int64{248},
		InlineMin:      inMin,
		InlineMax:      inMax,
		CrosslineMin:   xMin,
		CrosslineMax:   xMax,
	}
}

func TestSummarizeGridInference(t *testing.T) {
	bin := segy.BinaryHeader{
		FormatCode:       segy.FormatIEEEFloat,
		SampleIntervalUs: 2000,
		SamplesPerTrace:  2,
		RevMajor:         2,
	}
	// 2 inlines x 3 crosslines covering all 6 traces.
	s := Summarize(bin, gridScan(6, 100, 101, 200, 202))
	if !s.HasGrid {
		t.Fatalf("HasGrid = false, want true")
	}
	if s.GridInlines != 2 || s.GridCrosslines != 3 {
		t.Fatalf("grid = %dx%d, want 2x3", s.GridInlines, s.GridCrosslines)
	}
	if s.FormatName != segy.FormatIEEEFloat.String() {
		t.Fatalf("FormatName = %q", s.FormatName)
	}
}

func TestSummarizeSparseRangesNoGrid(t *testing.T) {
	// Range covers 2x3 cells but only 4 traces exist.
	s := Summarize(segy.BinaryHeader{}, gridScan(4, 100, 101, 200, 202))
	if s.HasGrid {
		t.Fatalf("HasGrid = true, want false for sparse coverage")
	}
	if s.GridInlines != 0 || s.GridCrosslines != 0 {
		t.Fatalf("grid = %dx%d, want 0x0", s.GridInlines, s.GridCrosslines)
	}
}

func TestSummarizeEmptyScan(t *testing.T) {
	s := Summarize(segy.BinaryHeader{FormatCode: segy.FormatInt16}, segy.ScanResult{})
	if s.HasGrid {
		t.Fatalf("HasGrid = true for empty scan")
	}
	if s.ActualTraces != 0 {
		t.Fatalf("ActualTraces = %d, want 0", s.ActualTraces)
	}
}

func TestRenderText(t *testing.T) {
	bin := segy.BinaryHeader{
		FormatCode:       segy.FormatInt16,
		SampleIntervalUs: 4000,
		SamplesPerTrace:  3,
		RevMajor:         1,
	}
	scan := gridScan(6, 100, 101, 200, 202)
	scan.DeclaredTraces = 6
	s := Summarize(bin, scan)
	s.File = "line42.segy"

	text := RenderText(s)
	for _, want := range []string{
		"line42.segy",
		"code 3 (16-bit integer)",
		"Sample interval: 4000 us",
		"6 found, 6 expected",
		"Declared trace count: 6",
		"Trace sizes: uniform",
		"Inline range: 100 to 101",
		"Crossline range: 200 to 202",
		"Grid dimensions: 2x3",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered text missing %q:\n%s", want, text)
		}
	}
}

func TestRenderTextWarnings(t *testing.T) {
	scan := segy.ScanResult{
		Descriptors:   make([]segy.TraceDescriptor, 2),
		ActualTraces:  2,
		DistinctSizes: []int64{244, 248},
		TrailingBytes: 17,
	}
	text := RenderText(Summarize(segy.BinaryHeader{FormatCode: segy.FormatIBMFloat}, scan))
	if !strings.Contains(text, "non-uniform trace sizes") {
		t.Fatalf("missing non-uniform warning:\n%s", text)
	}
	if !strings.Contains(text, "17 trailing bytes") {
		t.Fatalf("missing trailing bytes warning:\n%s", text)
	}
}

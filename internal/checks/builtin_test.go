package checks

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"example.com/segygate/internal/segy"
)

// buildTestFile writes a SEG-Y file with int16 samples. Each entry in counts
// produces one trace with that many samples.
func buildTestFile(t *testing.T, intervalUs, samplesPerTrace uint16, declared uint64, counts []int, trailing int) string {
	t.Helper()
	buf := make([]byte, segy.FileHeaderSize)
	for i := 0; i < segy.TextualHeaderSize; i++ {
		buf[i] = ' '
	}
	bin := buf[segy.TextualHeaderSize:]
	binary.BigEndian.PutUint16(bin[16:], intervalUs)
	binary.BigEndian.PutUint16(bin[20:], samplesPerTrace)
	binary.BigEndian.PutUint16(bin[24:], 3) // int16 samples
	binary.BigEndian.PutUint64(bin[312:], declared)

	for _, count := range counts {
		hdr := make([]byte, segy.TraceHeaderSize)
		binary.BigEndian.PutUint16(hdr[114:], uint16(count))
		binary.BigEndian.PutUint16(hdr[116:], intervalUs)
		buf = append(buf, hdr...)
		for s := 0; s < count; s++ {
			var sample [2]byte
			binary.BigEndian.PutUint16(sample[:], uint16(s))
			buf = append(buf, sample[:]...)
		}
	}
	buf = append(buf, make([]byte, trailing)...)

	path := filepath.Join(t.TempDir(), "checks.segy")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func evalFile(t *testing.T, path string) ([]Diagnostic, ValidationReport) {
	t.Helper()
	engine := NewEngine(DefaultCheckSet())
	engine.RegisterBuiltins()
	ctx := &Context{InputFile: path}
	diags, err := engine.Eval(context.Background(), ctx)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	return diags, engine.MakeReport()
}

func diagnosticFor(t *testing.T, diags []Diagnostic, checkId string) Diagnostic {
	t.Helper()
	for _, d := range diags {
		if d.CheckId == checkId {
			return d
		}
	}
	t.Fatalf("diagnostic %s missing", checkId)
	return Diagnostic{}
}

func outcomeFor(t *testing.T, rep ValidationReport, checkId string) CheckOutcome {
	t.Helper()
	for _, c := range rep.Checks {
		if c.CheckId == checkId {
			return c
		}
	}
	t.Fatalf("check %s missing from report", checkId)
	return CheckOutcome{}
}

func TestEvalCleanFile(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 2, []int{3, 3}, 0)
	diags, rep := evalFile(t, path)

	want := len(DefaultCheckSet().Checks)
	if len(diags) != want {
		t.Fatalf("diagnostics = %d, want %d", len(diags), want)
	}
	if !rep.Summary.Pass {
		t.Fatalf("Pass = false, findings: %+v", rep.Findings)
	}
	if rep.Summary.Errors != 0 || rep.Summary.Warnings != 0 {
		t.Fatalf("errors=%d warnings=%d, want 0/0", rep.Summary.Errors, rep.Summary.Warnings)
	}
	for _, d := range diags {
		if !d.Passed {
			t.Fatalf("check %s failed: %s", d.CheckId, d.Message)
		}
	}
}

func TestEvalMixedTraceSizes(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 0, []int{3, 5, 3}, 0)
	diags, rep := evalFile(t, path)

	if rep.Summary.Pass {
		t.Fatalf("Pass = true, want false for non-uniform sizes")
	}
	if got := outcomeFor(t, rep, "SEGY-SIZ-001"); got.Passed {
		t.Fatalf("uniformity check passed on mixed sizes")
	}
	// The finding points at the first trace whose size deviates.
	siz := diagnosticFor(t, diags, "SEGY-SIZ-001")
	if siz.TraceIndex != 1 {
		t.Fatalf("TraceIndex = %d, want 1", siz.TraceIndex)
	}
	wantOffset := int64(segy.FileHeaderSize + segy.TraceHeaderSize + 3*2)
	if siz.Offset != fmt.Sprintf("%d", wantOffset) {
		t.Fatalf("Offset = %q, want %d", siz.Offset, wantOffset)
	}
	// A failed check never suppresses the rest of the report.
	want := len(DefaultCheckSet().Checks)
	if len(diags) != want {
		t.Fatalf("diagnostics = %d, want %d", len(diags), want)
	}
}

func TestEvalDeclaredCountMismatchIsWarning(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 9, []int{3, 3}, 0)
	_, rep := evalFile(t, path)

	if got := outcomeFor(t, rep, "SEGY-CNT-001"); got.Passed {
		t.Fatalf("count check passed despite declared mismatch")
	}
	if rep.Summary.Warnings != 1 {
		t.Fatalf("warnings = %d, want 1", rep.Summary.Warnings)
	}
	if !rep.Summary.Pass {
		t.Fatalf("Pass = false, warnings alone must not fail the file")
	}
}

func TestEvalDeclaredCountZeroTrustsScan(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 0, []int{3, 3}, 0)
	_, rep := evalFile(t, path)
	if got := outcomeFor(t, rep, "SEGY-CNT-001"); !got.Passed {
		t.Fatalf("count check failed with unset declared count: %s", got.Detail)
	}
}

func TestEvalHeaderOnlyFile(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 0, nil, 0)
	_, rep := evalFile(t, path)

	if rep.Summary.Pass {
		t.Fatalf("Pass = true, want false for header-only file")
	}
	if got := outcomeFor(t, rep, "SEGY-TRC-001"); got.Passed {
		t.Fatalf("has-traces check passed on header-only file")
	}
}

func TestEvalTruncatedTrailingTrace(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 0, []int{3, 3}, 100)
	diags, rep := evalFile(t, path)

	if rep.Summary.Pass {
		t.Fatalf("Pass = true, want false for truncated file")
	}
	if got := outcomeFor(t, rep, "SEGY-STR-001"); got.Passed {
		t.Fatalf("structure check passed on truncated file")
	}
	// The finding locates the byte offset where the trailing data begins.
	str := diagnosticFor(t, diags, "SEGY-STR-001")
	if str.TraceIndex != 2 {
		t.Fatalf("TraceIndex = %d, want 2", str.TraceIndex)
	}
	wantOffset := int64(segy.FileHeaderSize + 2*(segy.TraceHeaderSize+3*2))
	if str.Offset != fmt.Sprintf("%d", wantOffset) {
		t.Fatalf("Offset = %q, want %d", str.Offset, wantOffset)
	}
	// Every other check still reports against the partial scan.
	want := len(DefaultCheckSet().Checks)
	if len(diags) != want {
		t.Fatalf("diagnostics = %d, want %d", len(diags), want)
	}
	if got := outcomeFor(t, rep, "SEGY-TRC-001"); !got.Passed {
		t.Fatalf("has-traces check should still see the complete traces")
	}
}

func TestEvalZeroHeaderFields(t *testing.T) {
	path := buildTestFile(t, 0, 3, 0, []int{3}, 0)
	_, rep := evalFile(t, path)
	if got := outcomeFor(t, rep, "SEGY-BIN-001"); got.Passed {
		t.Fatalf("binary header check passed with zero interval")
	}
	if rep.Summary.Pass {
		t.Fatalf("Pass = true, want false")
	}
}

func TestEvalUnknownCheckFunction(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 0, []int{3}, 0)
	set := CheckSet{
		CheckSetId: "custom",
		Version:    "1",
		Checks: []Check{
			{CheckId: "X-001", Name: "missing func", Func: "NoSuchFunction", Severity: ERROR},
		},
	}
	engine := NewEngine(set)
	engine.RegisterBuiltins()
	diags, err := engine.Eval(context.Background(), &Context{InputFile: path})
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(diags))
	}
	if diags[0].Severity != WARN {
		t.Fatalf("severity = %s, want WARN", diags[0].Severity)
	}
}

func TestWriteDiagnosticsNDJSON(t *testing.T) {
	path := buildTestFile(t, 2000, 3, 0, []int{3}, 0)
	engine := NewEngine(DefaultCheckSet())
	engine.RegisterBuiltins()
	if _, err := engine.Eval(context.Background(), &Context{InputFile: path}); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "diag.jsonl")
	if err := engine.WriteDiagnosticsNDJSON(out); err != nil {
		t.Fatalf("WriteDiagnosticsNDJSON failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read diagnostics: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if want := len(DefaultCheckSet().Checks); lines != want {
		t.Fatalf("diagnostic lines = %d, want %d", lines, want)
	}
}

func TestLoadCheckSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.json")
	content := `{"checkSetId":"custom","version":"2","checks":[{"checkId":"SEGY-TRC-001","checkFunction":"CheckHasTraces","severity":"ERROR"}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write check set: %v", err)
	}
	set, err := LoadCheckSet(path)
	if err != nil {
		t.Fatalf("LoadCheckSet failed: %v", err)
	}
	if set.CheckSetId != "custom" || len(set.Checks) != 1 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if set.Checks[0].Func != "CheckHasTraces" {
		t.Fatalf("Func = %q, want CheckHasTraces", set.Checks[0].Func)
	}
}

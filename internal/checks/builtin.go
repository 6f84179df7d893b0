package checks

import (
	"fmt"
	"time"

	"example.com/segygate/internal/segy"
)

// RegisterBuiltins installs every built-in check function.
func (e *Engine) RegisterBuiltins() {
	e.Register("CheckTextualHeaderLength", CheckTextualHeaderLength)
	e.Register("CheckBinaryHeaderFields", CheckBinaryHeaderFields)
	e.Register("CheckFormatCode", CheckFormatCode)
	e.Register("CheckTraceCount", CheckTraceCount)
	e.Register("CheckTraceSizeUniformity", CheckTraceSizeUniformity)
	e.Register("CheckTraceStructure", CheckTraceStructure)
	e.Register("CheckHasTraces", CheckHasTraces)
}

// DefaultCheckSet returns the built-in ordered check set. Order matters for
// the report; evaluation never short-circuits.
func DefaultCheckSet() CheckSet {
	return CheckSet{
		CheckSetId: "segy-standard",
		Version:    "1.0",
		Checks: []Check{
			{CheckId: "SEGY-TXT-001", Name: "Textual header length", Func: "CheckTextualHeaderLength", Severity: ERROR},
			{CheckId: "SEGY-BIN-001", Name: "Binary header fields", Func: "CheckBinaryHeaderFields", Severity: ERROR},
			{CheckId: "SEGY-FMT-001", Name: "Data sample format code", Func: "CheckFormatCode", Severity: ERROR},
			{CheckId: "SEGY-CNT-001", Name: "Trace count reconciliation", Func: "CheckTraceCount", Severity: WARN},
			{CheckId: "SEGY-SIZ-001", Name: "Trace size uniformity", Func: "CheckTraceSizeUniformity", Severity: ERROR},
			{CheckId: "SEGY-STR-001", Name: "Trace region structure", Func: "CheckTraceStructure", Severity: ERROR},
			{CheckId: "SEGY-TRC-001", Name: "At least one trace", Func: "CheckHasTraces", Severity: ERROR},
		},
	}
}

func baseDiagnostic(ctx *Context, c Check) Diagnostic {
	return Diagnostic{
		Ts:       time.Now(),
		File:     ctx.InputFile,
		CheckId:  c.CheckId,
		Name:     c.Name,
		Severity: c.Severity,
		Refs:     c.Refs,
	}
}

func pass(d Diagnostic, msg string) Diagnostic {
	d.Passed = true
	d.Severity = INFO
	d.Message = msg
	return d
}

func fail(d Diagnostic, msg string) Diagnostic {
	d.Passed = false
	d.Message = msg
	return d
}

func CheckTextualHeaderLength(ctx *Context, c Check) (Diagnostic, error) {
	d := baseDiagnostic(ctx, c)
	if ctx.Textual == nil {
		return fail(d, "textual header missing"), nil
	}
	if got := len(ctx.Textual.Raw); got != segy.TextualHeaderSize {
		return fail(d, fmt.Sprintf("textual header is %d bytes, want %d", got, segy.TextualHeaderSize)), nil
	}
	return pass(d, "textual header is 3200 bytes"), nil
}

func CheckBinaryHeaderFields(ctx *Context, c Check) (Diagnostic, error) {
	d := baseDiagnostic(ctx, c)
	if ctx.Binary == nil {
		return fail(d, "binary header missing"), nil
	}
	bin := ctx.Binary
	if got := len(bin.Raw); got != segy.BinaryHeaderSize {
		return fail(d, fmt.Sprintf("binary header is %d bytes, want %d", got, segy.BinaryHeaderSize)), nil
	}
	if bin.SamplesPerTrace == 0 {
		return fail(d, "samples per trace is zero"), nil
	}
	if bin.SampleIntervalUs == 0 {
		return fail(d, "sample interval is zero"), nil
	}
	return pass(d, fmt.Sprintf("sample interval %d us, %d samples per trace", bin.SampleIntervalUs, bin.SamplesPerTrace)), nil
}

func CheckFormatCode(ctx *Context, c Check) (Diagnostic, error) {
	d := baseDiagnostic(ctx, c)
	if ctx.Binary == nil {
		return fail(d, "binary header missing"), nil
	}
	code := ctx.Binary.FormatCode
	if !code.Supported() {
		return fail(d, fmt.Sprintf("unsupported data sample format code %d", code)), nil
	}
	return pass(d, fmt.Sprintf("format code %d (%s)", uint16(code), code)), nil
}

func CheckTraceCount(ctx *Context, c Check) (Diagnostic, error) {
	d := baseDiagnostic(ctx, c)
	if ctx.Scan == nil {
		return fail(d, "no scan result"), nil
	}
	scan := ctx.Scan
	// A zero declared count means the writer left the field unset; the
	// scan is authoritative and there is nothing to reconcile.
	if scan.DeclaredTraces != 0 && scan.DeclaredTraces != uint64(scan.ActualTraces) {
		return fail(d, fmt.Sprintf("expected %d traces, found %d", scan.DeclaredTraces, scan.ActualTraces)), nil
	}
	if scan.ExpectedTraces != scan.ActualTraces {
		return fail(d, fmt.Sprintf("expected %d traces from file size, found %d", scan.ExpectedTraces, scan.ActualTraces)), nil
	}
	return pass(d, fmt.Sprintf("%d traces", scan.ActualTraces)), nil
}

func CheckTraceSizeUniformity(ctx *Context, c Check) (Diagnostic, error) {
	d := baseDiagnostic(ctx, c)
	if ctx.Scan == nil {
		return fail(d, "no scan result"), nil
	}
	scan := ctx.Scan
	if !scan.Uniform() {
		for _, tr := range scan.Descriptors {
			if tr.Size != scan.Descriptors[0].Size {
				d.TraceIndex = tr.Index
				d.Offset = fmt.Sprintf("%d", tr.Offset)
				break
			}
		}
		return fail(d, fmt.Sprintf("%d distinct trace sizes observed: %v", len(scan.DistinctSizes), scan.DistinctSizes)), nil
	}
	if len(scan.DistinctSizes) == 1 {
		return pass(d, fmt.Sprintf("uniform trace size %d bytes", scan.DistinctSizes[0])), nil
	}
	return pass(d, "no traces to compare"), nil
}

func CheckTraceStructure(ctx *Context, c Check) (Diagnostic, error) {
	d := baseDiagnostic(ctx, c)
	if scan := ctx.Scan; scan != nil && scan.TrailingBytes > 0 {
		d.TraceIndex = int(scan.ActualTraces)
		d.Offset = fmt.Sprintf("%d", scan.TrailingOffset)
	}
	if ctx.ScanErr != nil {
		return fail(d, ctx.ScanErr.Error()), nil
	}
	if ctx.Scan != nil && ctx.Scan.TrailingBytes > 0 {
		return fail(d, fmt.Sprintf("%d trailing bytes after last complete trace", ctx.Scan.TrailingBytes)), nil
	}
	return pass(d, "trace region ends on a trace boundary"), nil
}

func CheckHasTraces(ctx *Context, c Check) (Diagnostic, error) {
	d := baseDiagnostic(ctx, c)
	if ctx.Scan == nil || ctx.Scan.ActualTraces == 0 {
		return fail(d, "file contains no traces"), nil
	}
	return pass(d, fmt.Sprintf("%d traces present", ctx.Scan.ActualTraces)), nil
}

package checks

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"example.com/segygate/internal/common"
	"example.com/segygate/internal/segy"
)

type Severity string

const (
	ERROR Severity = "ERROR"
	WARN  Severity = "WARN"
	INFO  Severity = "INFO"
)

// Check describes a single named validation to run against a file. Func names
// a registered CheckFunc.
type Check struct {
	CheckId  string   `json:"checkId"`
	Name     string   `json:"name,omitempty"`
	Func     string   `json:"checkFunction"`
	Severity Severity `json:"severity"`
	Refs     []string `json:"refs,omitempty"`
}

// CheckSet is an ordered collection of checks.
type CheckSet struct {
	CheckSetId string  `json:"checkSetId"`
	Version    string  `json:"version"`
	Checks     []Check `json:"checks"`
}

// Diagnostic is one finding produced by a check.
type Diagnostic struct {
	Ts         time.Time `json:"ts"`
	File       string    `json:"file"`
	CheckId    string    `json:"checkId"`
	Name       string    `json:"name,omitempty"`
	Severity   Severity  `json:"severity"`
	Passed     bool      `json:"passed"`
	Message    string    `json:"message"`
	Refs       []string  `json:"refs,omitempty"`
	TraceIndex int       `json:"traceIndex,omitempty"`
	Offset     string    `json:"offset,omitempty"`
}

// CheckOutcome is the per-check entry of a ValidationReport, in evaluation
// order.
type CheckOutcome struct {
	CheckId  string   `json:"checkId"`
	Name     string   `json:"name,omitempty"`
	Severity Severity `json:"severity"`
	Passed   bool     `json:"passed"`
	Detail   string   `json:"detail,omitempty"`
}

// ValidationReport aggregates every check outcome. It is immutable once
// produced; the overall verdict is the AND of all error-severity outcomes,
// while every diagnostic is always present regardless of earlier failures.
type ValidationReport struct {
	Summary struct {
		Total    int  `json:"total"`
		Errors   int  `json:"errors"`
		Warnings int  `json:"warnings"`
		Pass     bool `json:"pass"`
	} `json:"summary"`
	Checks   []CheckOutcome `json:"checks"`
	Findings []Diagnostic   `json:"findings,omitempty"`
}

// Context carries the parsed state every check reads. Header values are read
// once and threaded through explicitly so checks stay testable with synthetic
// headers.
type Context struct {
	InputFile string

	Textual *segy.TextualHeader
	Binary  *segy.BinaryHeader
	Scan    *segy.ScanResult
	// ScanErr holds a non-structural scan failure (a truncated trailing
	// trace). Header-level failures abort evaluation instead.
	ScanErr error

	Metrics *common.Metrics
}

// EnsureScan parses and scans the input file unless the caller already
// supplied the results. Structural header errors (truncated file, unsupported
// format code) are returned and abort evaluation; a truncated trace is
// retained in ScanErr together with the partial scan so every check can still
// report.
func (ctx *Context) EnsureScan(c context.Context) error {
	if ctx == nil {
		return errors.New("nil context")
	}
	if ctx.Scan != nil || ctx.InputFile == "" {
		return nil
	}
	textual, bin, scan, err := segy.ScanFile(c, ctx.InputFile, ctx.Metrics)
	if err != nil {
		if errors.Is(err, segy.ErrTruncatedTrace) {
			ctx.ScanErr = err
		} else {
			return err
		}
	}
	ctx.Textual = &textual
	ctx.Binary = &bin
	ctx.Scan = &scan
	return nil
}

// CheckFunc evaluates one check against the context.
type CheckFunc func(ctx *Context, c Check) (Diagnostic, error)

// Engine evaluates a CheckSet. Every check runs in order with no
// short-circuit: callers need the full picture, not just the first failure.
type Engine struct {
	set         CheckSet
	registry    map[string]CheckFunc
	diagnostics []Diagnostic
}

func NewEngine(set CheckSet) *Engine {
	return &Engine{
		set:      set,
		registry: make(map[string]CheckFunc),
	}
}

func (e *Engine) Register(name string, f CheckFunc) {
	e.registry[name] = f
}

func (e *Engine) Eval(c context.Context, ctx *Context) ([]Diagnostic, error) {
	if ctx == nil {
		return nil, errors.New("nil context")
	}
	if err := ctx.EnsureScan(c); err != nil {
		return nil, err
	}
	var diags []Diagnostic
	for _, check := range e.set.Checks {
		fn, ok := e.registry[check.Func]
		if !ok {
			diags = append(diags, Diagnostic{
				Ts: time.Now(), File: ctx.InputFile, CheckId: check.CheckId, Name: check.Name,
				Severity: WARN, Message: "no function registered for check", Refs: check.Refs,
			})
			continue
		}
		d, err := fn(ctx, check)
		if err != nil {
			d.Severity = ERROR
			d.Passed = false
			d.Message = d.Message + " (" + err.Error() + ")"
		}
		diags = append(diags, d)
	}
	e.diagnostics = diags
	return diags, nil
}

func (e *Engine) WriteDiagnosticsNDJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, d := range e.diagnostics {
		b, _ := json.Marshal(d)
		w.Write(b)
		w.WriteString("\n")
	}
	return nil
}

// MakeReport assembles the ValidationReport from the last evaluation.
func (e *Engine) MakeReport() ValidationReport {
	var rep ValidationReport
	var errs, warns int
	for _, d := range e.diagnostics {
		if !d.Passed {
			switch d.Severity {
			case ERROR:
				errs++
			case WARN:
				warns++
			}
		}
		rep.Checks = append(rep.Checks, CheckOutcome{
			CheckId:  d.CheckId,
			Name:     d.Name,
			Severity: d.Severity,
			Passed:   d.Passed,
			Detail:   d.Message,
		})
	}
	rep.Summary.Total = len(e.diagnostics)
	rep.Summary.Errors = errs
	rep.Summary.Warnings = warns
	rep.Summary.Pass = errs == 0
	rep.Findings = e.diagnostics
	return rep
}

// LoadCheckSet reads a check set definition from JSON.
func LoadCheckSet(path string) (CheckSet, error) {
	var set CheckSet
	b, err := os.ReadFile(path)
	if err != nil {
		return set, err
	}
	err = json.Unmarshal(b, &set)
	return set, err
}

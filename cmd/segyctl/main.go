package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"example.com/segygate/internal/analysis"
	"example.com/segygate/internal/checks"
	"example.com/segygate/internal/common"
	"example.com/segygate/internal/manifest"
	"example.com/segygate/internal/report"
	"example.com/segygate/internal/segy"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "validate":
		validateCmd(os.Args[2:])
	case "analyze":
		analyzeCmd(os.Args[2:])
	case "convert":
		convertCmd(os.Args[2:])
	case "fixheader":
		fixheaderCmd(os.Args[2:])
	case "undo":
		undoCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "manifest":
		manifestCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`segyctl %s (built %s) <command> [options]

Commands:
  validate   --in <file.segy> [--checks <checkset.json>] --out <diagnostics.jsonl> --report <report.json> [--metrics] [--progress]
  analyze    --in <file.segy> [--json]
  convert    --in <file.segy> --out <file_std.segy> [--normalize] [--clip [--clip-sigma <k>]] [--force] [--concurrency <n>] [--metrics] [--progress]
  fixheader  --in <file.segy> [--audit <audit.jsonl>]
  undo       --in <file.segy> --audit <audit.jsonl> --out <restored.segy>
  report     --report <report.json> --pdf <report.pdf> [--hash <sha256>]
  manifest   --inputs <comma-separated> --out <manifest.json>
`, version, buildDate)
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("in", "", "input SEG-Y file")
	checksPath := fs.String("checks", "", "check set JSON (defaults to built-in set)")
	outDiag := fs.String("out", "diagnostics.jsonl", "diagnostics output")
	outRep := fs.String("report", "validation_report.json", "validation report JSON")
	metricsFlag := fs.Bool("metrics", false, "print scan throughput metrics")
	progressFlag := fs.Bool("progress", false, "display scan progress updates")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}

	set := checks.DefaultCheckSet()
	if *checksPath != "" {
		loaded, err := checks.LoadCheckSet(*checksPath)
		if err != nil {
			fmt.Println("load checks:", err)
			os.Exit(1)
		}
		set = loaded
	}

	var metrics *common.Metrics
	if *metricsFlag || *progressFlag {
		metrics = common.NewMetrics()
		if info, err := os.Stat(*in); err == nil {
			metrics.SetTotalBytes(info.Size())
		}
	}

	engine := checks.NewEngine(set)
	engine.RegisterBuiltins()
	cctx := &checks.Context{InputFile: *in, Metrics: metrics}

	if metrics != nil {
		metrics.Start()
	}
	var stopProgress func()
	if metrics != nil && *progressFlag {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
	}
	diags, err := engine.Eval(context.Background(), cctx)
	if stopProgress != nil {
		stopProgress()
	}
	if metrics != nil {
		metrics.Stop()
	}
	if err != nil {
		fmt.Println("eval:", err)
		os.Exit(1)
	}

	if err := engine.WriteDiagnosticsNDJSON(*outDiag); err != nil {
		fmt.Println("write diags:", err)
		os.Exit(1)
	}
	rep := engine.MakeReport()
	if err := report.SaveReportJSON(rep, *outRep); err != nil {
		fmt.Println("write report:", err)
		os.Exit(1)
	}
	fmt.Printf("PASS=%v, errors=%d, warnings=%d, diagnostics=%d\n", rep.Summary.Pass, rep.Summary.Errors, rep.Summary.Warnings, len(diags))
	if metrics != nil && *metricsFlag {
		printMetrics(metrics)
	}
	if !rep.Summary.Pass {
		os.Exit(3)
	}
}

func analyzeCmd(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	in := fs.String("in", "", "input SEG-Y file")
	asJSON := fs.Bool("json", false, "emit summary as JSON")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	_, bin, scan, err := segy.ScanFile(context.Background(), *in, nil)
	if err != nil && !errors.Is(err, segy.ErrTruncatedTrace) {
		fmt.Println("scan:", err)
		os.Exit(1)
	}
	truncated := err != nil
	summary := analysis.Summarize(bin, scan)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(summary)
	} else {
		fmt.Print(analysis.RenderText(summary))
	}
	if truncated {
		fmt.Fprintln(os.Stderr, "warning: file ends in a truncated trace; summary covers the complete traces only")
	}
}

func convertCmd(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	in := fs.String("in", "", "input SEG-Y file")
	out := fs.String("out", "", "standardized output file")
	normalize := fs.Bool("normalize", false, "rescale each trace to unit peak amplitude")
	clip := fs.Bool("clip", false, "clamp outlier samples")
	clipSigma := fs.Float64("clip-sigma", segy.DefaultClipSigma, "outlier threshold in standard deviations")
	force := fs.Bool("force", false, "convert even when validation fails")
	concurrency := fs.Int("concurrency", runtime.NumCPU(), "maximum concurrent trace conversions")
	metricsFlag := fs.Bool("metrics", false, "print conversion throughput metrics")
	progressFlag := fs.Bool("progress", false, "display conversion progress updates")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Println("required: --in, --out")
		os.Exit(1)
	}

	var metrics *common.Metrics
	if *metricsFlag || *progressFlag {
		metrics = common.NewMetrics()
		if info, err := os.Stat(*in); err == nil {
			metrics.SetTotalBytes(info.Size())
		}
	}

	engine := checks.NewEngine(checks.DefaultCheckSet())
	engine.RegisterBuiltins()
	cctx := &checks.Context{InputFile: *in}
	if _, err := engine.Eval(context.Background(), cctx); err != nil {
		fmt.Println("eval:", err)
		os.Exit(1)
	}
	rep := engine.MakeReport()
	if !rep.Summary.Pass {
		fmt.Printf("validation failed: errors=%d warnings=%d\n", rep.Summary.Errors, rep.Summary.Warnings)
		for _, d := range rep.Findings {
			if !d.Passed {
				fmt.Printf("  %s [%s] %s\n", d.CheckId, d.Severity, d.Message)
			}
		}
		if !*force {
			fmt.Println("refusing to convert; use --force to override")
			os.Exit(3)
		}
		fmt.Println("continuing under --force")
	}

	opts := segy.Options{
		Normalize:    *normalize,
		ClipOutliers: *clip,
		ClipSigma:    *clipSigma,
		Concurrency:  *concurrency,
		Metrics:      metrics,
	}
	if metrics != nil {
		metrics.Start()
	}
	var stopProgress func()
	if metrics != nil && *progressFlag {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
	}
	res, err := segy.Standardize(context.Background(), *in, *out, *cctx.Textual, *cctx.Binary, *cctx.Scan, opts)
	if stopProgress != nil {
		stopProgress()
	}
	if metrics != nil {
		metrics.Stop()
	}
	if err != nil {
		fmt.Println("standardize:", err)
		os.Exit(1)
	}

	hash, _, err := common.Sha256OfFile(res.Path)
	if err != nil {
		fmt.Println("hash output:", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s: %d traces, %s, source format %s\n", res.Path, res.Traces, common.FormatBytes(res.Bytes), res.SourceFormat)
	fmt.Printf("SHA256: %s\n", hash)
	if metrics != nil && *metricsFlag {
		printMetrics(metrics)
	}
}

func fixheaderCmd(args []string) {
	fs := flag.NewFlagSet("fixheader", flag.ExitOnError)
	in := fs.String("in", "", "SEG-Y file to repair in place")
	audit := fs.String("audit", "", "audit log output (jsonl)")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	auditLogPath := *audit
	if auditLogPath == "" {
		auditLogPath = *in + ".audit.jsonl"
	}

	_, bin, scan, err := segy.ScanFile(context.Background(), *in, nil)
	if err != nil && !errors.Is(err, segy.ErrTruncatedTrace) {
		fmt.Println("scan:", err)
		os.Exit(1)
	}
	edits := segy.HeaderFixEdits(bin, scan)
	if len(edits) == 0 {
		fmt.Println("No repairs needed")
		return
	}

	// Record the bytes being replaced before any write happens, so the log is
	// sufficient to undo the repair.
	log := common.NewPatchLog(auditLogPath)
	f, err := os.Open(*in)
	if err != nil {
		fmt.Println("open input:", err)
		os.Exit(1)
	}
	for _, edit := range edits {
		before := make([]byte, len(edit.Data))
		if _, err := f.ReadAt(before, edit.Offset); err != nil {
			f.Close()
			fmt.Println("read before bytes:", err)
			os.Exit(1)
		}
		entry := common.PatchEntry{
			Field:     edit.Field,
			Offset:    edit.Offset,
			BeforeHex: fmt.Sprintf("%x", before),
			AfterHex:  fmt.Sprintf("%x", edit.Data),
		}
		if err := log.Append(entry); err != nil {
			f.Close()
			fmt.Println("append audit:", err)
			os.Exit(1)
		}
	}
	f.Close()

	if err := segy.ApplyPatch(*in, edits); err != nil {
		fmt.Println("apply patch:", err)
		os.Exit(1)
	}
	for _, edit := range edits {
		fmt.Printf("patched %s at offset %d\n", edit.Field, edit.Offset)
	}
	fmt.Printf("Audit log: %s\n", log.Path())
}

func undoCmd(args []string) {
	fs := flag.NewFlagSet("undo", flag.ExitOnError)
	in := fs.String("in", "", "repaired SEG-Y file")
	audit := fs.String("audit", "", "audit log (jsonl)")
	out := fs.String("out", "", "restored output file")
	fs.Parse(args)

	if *in == "" || *audit == "" || *out == "" {
		fmt.Println("required: --in, --audit, --out")
		os.Exit(1)
	}

	entries, err := common.ReadPatchLog(*audit)
	if err != nil {
		fmt.Println("read audit:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("audit log is empty")
		os.Exit(1)
	}

	patchedHash, _, err := common.Sha256OfFile(*in)
	if err != nil {
		fmt.Println("hash input:", err)
		os.Exit(1)
	}

	if err := copyFile(*in, *out); err != nil {
		fmt.Println("copy input:", err)
		os.Exit(1)
	}

	f, err := os.OpenFile(*out, os.O_RDWR, 0)
	if err != nil {
		fmt.Println("open output:", err)
		os.Exit(1)
	}
	defer f.Close()

	mismatches := 0
	applied := 0
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		before, err := entry.BeforeBytes()
		if err != nil {
			fmt.Printf("skip entry %d: decode beforeHex failed: %v\n", i, err)
			continue
		}
		after, err := entry.AfterBytes()
		if err != nil {
			fmt.Printf("skip entry %d: decode afterHex failed: %v\n", i, err)
			continue
		}
		if entry.Offset < 0 {
			fmt.Printf("skip entry %d: invalid offset %d\n", i, entry.Offset)
			continue
		}
		mismatch := false
		if len(after) != len(before) {
			mismatch = true
		}
		if len(after) > 0 {
			buf := make([]byte, len(after))
			if _, err := f.ReadAt(buf, entry.Offset); err != nil || !bytes.Equal(buf, after) {
				mismatch = true
			}
		}
		if len(before) > 0 {
			if _, err := f.WriteAt(before, entry.Offset); err != nil {
				fmt.Println("write patch:", err)
				os.Exit(1)
			}
		}
		if mismatch {
			mismatches++
		}
		applied++
	}

	if err := f.Sync(); err != nil {
		fmt.Println("sync output:", err)
		os.Exit(1)
	}

	restoredHash, _, err := common.Sha256OfFile(*out)
	if err != nil {
		fmt.Println("hash restored:", err)
		os.Exit(1)
	}

	fmt.Printf("Restored %d patch(es) to %s\n", applied, *out)
	fmt.Printf("Patched SHA256: %s\n", patchedHash)
	fmt.Printf("Restored SHA256: %s\n", restoredHash)
	if mismatches > 0 {
		fmt.Printf("Warning: %d patch(es) did not match expected repaired bytes; original bytes reapplied regardless.\n", mismatches)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	repPath := fs.String("report", "", "validation report JSON")
	pdfPath := fs.String("pdf", "", "output report PDF")
	hash := fs.String("hash", "", "SHA-256 of the standardized output to embed")
	inPath := fs.String("in", "", "original SEG-Y file for the analysis section")
	fs.Parse(args)

	if *repPath == "" || *pdfPath == "" {
		fmt.Println("required: --report, --pdf")
		os.Exit(1)
	}
	rep, err := report.LoadReportJSON(*repPath)
	if err != nil {
		fmt.Println("load report:", err)
		os.Exit(1)
	}
	opts := report.PDFOptions{OutputHash: *hash}
	if *inPath != "" {
		_, bin, scan, err := segy.ScanFile(context.Background(), *inPath, nil)
		if err != nil && !errors.Is(err, segy.ErrTruncatedTrace) {
			fmt.Println("scan:", err)
			os.Exit(1)
		}
		summary := analysis.Summarize(bin, scan)
		opts.Summary = &summary
	}
	if err := report.SaveReportPDF(rep, opts, *pdfPath); err != nil {
		fmt.Println("write pdf:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote PDF:", *pdfPath)
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated paths")
	out := fs.String("out", "manifest.json", "output json")
	fs.Parse(args)

	if *inputs == "" {
		fmt.Println("required: --inputs")
		os.Exit(1)
	}

	var paths []string
	for _, p := range strings.Split(*inputs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		fmt.Println("no input paths specified")
		os.Exit(1)
	}

	m, err := manifest.Build(paths)
	if err != nil {
		fmt.Println("manifest build:", err)
		os.Exit(1)
	}
	if err := manifest.Save(m, *out); err != nil {
		fmt.Println("manifest save:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", *out)
}

func printMetrics(metrics *common.Metrics) {
	snap := metrics.Snapshot()
	throughputBps := snap.ThroughputBytesPerSecond()
	gbPerMin := throughputBps * 60 / 1_000_000_000
	mbPerSec := throughputBps / 1_000_000
	fmt.Printf("Metrics: duration=%s traces=%d anomalies=%d processed=%s throughput=%.2f GB/min (%.2f MB/s)\n",
		snap.Duration.Round(10*time.Millisecond),
		snap.Traces,
		snap.Anomalies,
		common.FormatBytes(snap.Bytes),
		gbPerMin,
		mbPerSec,
	)
}

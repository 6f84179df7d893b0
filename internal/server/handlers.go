package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"example.com/segygate/internal/analysis"
	"example.com/segygate/internal/checks"
	"example.com/segygate/internal/common"
	"example.com/segygate/internal/manifest"
	"example.com/segygate/internal/report"
	"example.com/segygate/internal/segy"
)

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stream := r.URL.Query().Get("stream") == "true"
	var req struct {
		Input    string           `json:"input"`
		CheckSet *checks.CheckSet `json:"checkSet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		http.Error(w, "input required", http.StatusBadRequest)
		return
	}
	inputPath, err := s.resolvePath(req.Input)
	if err != nil {
		http.Error(w, fmt.Sprintf("input resolve: %v", err), http.StatusBadRequest)
		return
	}
	set := checks.DefaultCheckSet()
	if req.CheckSet != nil && len(req.CheckSet.Checks) > 0 {
		set = *req.CheckSet
	}
	engine := checks.NewEngine(set)
	engine.RegisterBuiltins()
	cctx := &checks.Context{InputFile: inputPath}
	diags, err := engine.Eval(r.Context(), cctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("eval: %v", err), http.StatusUnprocessableEntity)
		return
	}
	rep := engine.MakeReport()

	if stream {
		writer := NewNDJSONWriter(w)
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, d := range diags {
			if err := writer.WriteDiagnostic(d); err != nil {
				return
			}
		}
		arts, err := s.storeValidationArtifacts(engine, rep, cctx)
		if err != nil {
			_ = writer.WriteObject(map[string]any{"type": "error", "error": err.Error()})
			return
		}
		summary := struct {
			Type        string                  `json:"type"`
			Report      checks.ValidationReport `json:"report"`
			Artifacts   []ArtifactRef           `json:"artifacts"`
			Diagnostics int                     `json:"diagnostics"`
		}{
			Type:        "report",
			Report:      rep,
			Artifacts:   arts,
			Diagnostics: len(diags),
		}
		_ = writer.WriteObject(summary)
		return
	}

	arts, err := s.storeValidationArtifacts(engine, rep, cctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	common.Logf("validate %s: pass=%v errors=%d warnings=%d", filepath.Base(inputPath), rep.Summary.Pass, rep.Summary.Errors, rep.Summary.Warnings)
	resp := struct {
		Report      checks.ValidationReport `json:"report"`
		Diagnostics int                     `json:"diagnostics"`
		Artifacts   []ArtifactRef           `json:"artifacts"`
	}{
		Report:      rep,
		Diagnostics: len(diags),
		Artifacts:   arts,
	}
	writeJSON(w, http.StatusOK, resp)
}

// storeValidationArtifacts persists the diagnostics stream, the JSON report
// and the PDF rendering, and registers all three for download.
func (s *Server) storeValidationArtifacts(engine *checks.Engine, rep checks.ValidationReport, cctx *checks.Context) ([]ArtifactRef, error) {
	diagPath, err := s.tempPath("diagnostics-*.jsonl")
	if err != nil {
		return nil, fmt.Errorf("diagnostics temp: %w", err)
	}
	if err := engine.WriteDiagnosticsNDJSON(diagPath); err != nil {
		return nil, fmt.Errorf("write diagnostics: %w", err)
	}
	repPath, err := s.tempPath("report-*.json")
	if err != nil {
		return nil, fmt.Errorf("report temp: %w", err)
	}
	if err := report.SaveReportJSON(rep, repPath); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	var pdfOpts report.PDFOptions
	if cctx.Binary != nil && cctx.Scan != nil {
		summary := analysis.Summarize(*cctx.Binary, *cctx.Scan)
		pdfOpts.Summary = &summary
	}
	pdfPath, err := s.tempPath("report-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("report pdf temp: %w", err)
	}
	if err := report.SaveReportPDF(rep, pdfOpts, pdfPath); err != nil {
		return nil, fmt.Errorf("write report pdf: %w", err)
	}
	diagArt, err := s.addArtifact(diagPath, "diagnostics.jsonl", "application/x-ndjson", "diagnostics")
	if err != nil {
		return nil, fmt.Errorf("register diagnostics: %w", err)
	}
	repArt, err := s.addArtifact(repPath, "validation_report.json", "application/json", "report")
	if err != nil {
		return nil, fmt.Errorf("register report: %w", err)
	}
	pdfArt, err := s.addArtifact(pdfPath, "validation_report.pdf", "application/pdf", "report")
	if err != nil {
		return nil, fmt.Errorf("register report pdf: %w", err)
	}
	return []ArtifactRef{toRef(diagArt), toRef(repArt), toRef(pdfArt)}, nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Input        string  `json:"input"`
		Output       string  `json:"output"`
		Normalize    bool    `json:"normalize"`
		ClipOutliers bool    `json:"clipOutliers"`
		ClipSigma    float64 `json:"clipSigma"`
		Force        bool    `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		http.Error(w, "input required", http.StatusBadRequest)
		return
	}
	inputPath, err := s.resolvePath(req.Input)
	if err != nil {
		http.Error(w, fmt.Sprintf("input resolve: %v", err), http.StatusBadRequest)
		return
	}

	engine := checks.NewEngine(checks.DefaultCheckSet())
	engine.RegisterBuiltins()
	cctx := &checks.Context{InputFile: inputPath}
	if _, err := engine.Eval(r.Context(), cctx); err != nil {
		http.Error(w, fmt.Sprintf("eval: %v", err), http.StatusUnprocessableEntity)
		return
	}
	rep := engine.MakeReport()
	if !rep.Summary.Pass && !req.Force {
		writeJSON(w, http.StatusUnprocessableEntity, struct {
			Error  string                  `json:"error"`
			Report checks.ValidationReport `json:"report"`
		}{
			Error:  "validation failed; set force to convert anyway",
			Report: rep,
		})
		return
	}

	outName := req.Output
	if outName == "" {
		base := filepath.Base(inputPath)
		ext := filepath.Ext(base)
		outName = strings.TrimSuffix(base, ext) + "_std.segy"
	}
	outPath, err := s.tempPath("standardized-*.segy")
	if err != nil {
		http.Error(w, fmt.Sprintf("output temp: %v", err), http.StatusInternalServerError)
		return
	}
	opts := segy.Options{
		Normalize:    req.Normalize,
		ClipOutliers: req.ClipOutliers,
		ClipSigma:    req.ClipSigma,
		Concurrency:  s.concurrency,
	}
	res, err := segy.Standardize(r.Context(), inputPath, outPath, *cctx.Textual, *cctx.Binary, *cctx.Scan, opts)
	if err != nil {
		os.Remove(outPath)
		http.Error(w, fmt.Sprintf("standardize: %v", err), http.StatusUnprocessableEntity)
		return
	}
	hash, _, err := common.Sha256OfFile(outPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("hash output: %v", err), http.StatusInternalServerError)
		return
	}
	art, err := s.addArtifact(outPath, outName, "application/octet-stream", "standardized")
	if err != nil {
		http.Error(w, fmt.Sprintf("register output: %v", err), http.StatusInternalServerError)
		return
	}
	common.Logf("convert %s: %d traces, %d bytes, source %s", filepath.Base(inputPath), res.Traces, res.Bytes, res.SourceFormat)
	resp := struct {
		Report       checks.ValidationReport `json:"report"`
		Traces       int                     `json:"traces"`
		Bytes        int64                   `json:"bytes"`
		SourceFormat string                  `json:"sourceFormat"`
		Sha256       string                  `json:"sha256"`
		Artifact     ArtifactRef             `json:"artifact"`
	}{
		Report:       rep,
		Traces:       res.Traces,
		Bytes:        res.Bytes,
		SourceFormat: res.SourceFormat.String(),
		Sha256:       hash,
		Artifact:     toRef(art),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		http.Error(w, "input required", http.StatusBadRequest)
		return
	}
	inputPath, err := s.resolvePath(req.Input)
	if err != nil {
		http.Error(w, fmt.Sprintf("input resolve: %v", err), http.StatusBadRequest)
		return
	}
	_, bin, scan, err := segy.ScanFile(r.Context(), inputPath, nil)
	if err != nil && !errors.Is(err, segy.ErrTruncatedTrace) {
		http.Error(w, fmt.Sprintf("scan: %v", err), http.StatusUnprocessableEntity)
		return
	}
	summary := analysis.Summarize(bin, scan)
	resp := struct {
		Summary   analysis.Summary `json:"summary"`
		Truncated bool             `json:"truncated,omitempty"`
	}{
		Summary:   summary,
		Truncated: err != nil,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Inputs  []string `json:"inputs"`
		ShaAlgo string   `json:"shaAlgo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs required", http.StatusBadRequest)
		return
	}
	if req.ShaAlgo != "" && !strings.EqualFold(req.ShaAlgo, "sha256") {
		http.Error(w, "only sha256 supported", http.StatusBadRequest)
		return
	}
	var paths []string
	for _, in := range req.Inputs {
		resolved, err := s.resolvePath(in)
		if err != nil {
			http.Error(w, fmt.Sprintf("resolve %s: %v", in, err), http.StatusBadRequest)
			return
		}
		paths = append(paths, resolved)
	}
	m, err := manifest.Build(paths)
	if err != nil {
		http.Error(w, fmt.Sprintf("build manifest: %v", err), http.StatusInternalServerError)
		return
	}
	outPath, err := s.tempPath("manifest-*.json")
	if err != nil {
		http.Error(w, fmt.Sprintf("manifest temp: %v", err), http.StatusInternalServerError)
		return
	}
	if err := manifest.Save(m, outPath); err != nil {
		http.Error(w, fmt.Sprintf("write manifest: %v", err), http.StatusInternalServerError)
		return
	}
	art, err := s.addArtifact(outPath, "manifest.json", "application/json", "manifest")
	if err != nil {
		http.Error(w, fmt.Sprintf("register manifest: %v", err), http.StatusInternalServerError)
		return
	}
	resp := struct {
		Manifest manifest.Manifest `json:"manifest"`
		Artifact ArtifactRef       `json:"artifact"`
	}{
		Manifest: m,
		Artifact: toRef(art),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.listArtifacts())
}

func (s *Server) handleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/artifacts/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	art, ok := s.getArtifact(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, fmt.Sprintf("stat artifact: %v", err), http.StatusInternalServerError)
		return
	}
	if art.ContentType != "" {
		w.Header().Set("Content-Type", art.ContentType)
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
	io.Copy(w, f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listArtifacts() []ArtifactRef {
	s.artifacts.mu.RLock()
	refs := make([]ArtifactRef, 0, len(s.artifacts.entries))
	for _, art := range s.artifacts.entries {
		refs = append(refs, toRef(art))
	}
	s.artifacts.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

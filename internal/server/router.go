package server

import "net/http"

// NewRouter wires HTTP routes to the server's handlers.
func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/convert", s.handleConvert)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/manifest", s.handleManifest)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/artifacts", s.handleArtifacts)
	mux.HandleFunc("/artifacts/", s.handleArtifactDownload)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

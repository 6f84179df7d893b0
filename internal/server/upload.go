package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"example.com/segygate/internal/segy"
)

// handleUpload accepts multipart SEG-Y uploads and registers each file as an
// input artifact. Files that cannot be SEG-Y data are rejected before
// anything is registered: the name must carry a .segy or .sgy extension and
// the content must cover at least the 3600-byte file header region.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(512 << 20); err != nil {
		http.Error(w, fmt.Sprintf("parse multipart: %v", err), http.StatusBadRequest)
		return
	}
	if r.MultipartForm == nil {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}
	var refs []ArtifactRef
	for _, files := range r.MultipartForm.File {
		for _, fh := range files {
			ref, err := s.saveSEGYUpload(fh)
			if err != nil {
				http.Error(w, fmt.Sprintf("upload %s: %v", fh.Filename, err), http.StatusBadRequest)
				return
			}
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}
	resp := struct {
		Files []ArtifactRef `json:"files"`
	}{Files: refs}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) saveSEGYUpload(fh *multipart.FileHeader) (ArtifactRef, error) {
	if fh == nil {
		return ArtifactRef{}, fmt.Errorf("nil file header")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".segy" && ext != ".sgy" {
		return ArtifactRef{}, fmt.Errorf("extension %q is not a SEG-Y file, want .segy or .sgy", filepath.Ext(fh.Filename))
	}
	src, err := fh.Open()
	if err != nil {
		return ArtifactRef{}, err
	}
	defer src.Close()
	dest, err := os.CreateTemp(s.uploadsDir, "upload-*"+ext)
	if err != nil {
		return ArtifactRef{}, err
	}
	written, err := io.Copy(dest, src)
	if err != nil {
		dest.Close()
		os.Remove(dest.Name())
		return ArtifactRef{}, err
	}
	dest.Close()
	if written < segy.FileHeaderSize {
		os.Remove(dest.Name())
		return ArtifactRef{}, fmt.Errorf("%d bytes, smaller than the %d-byte file header region", written, segy.FileHeaderSize)
	}
	art, err := s.addArtifact(dest.Name(), fh.Filename, guessContentType(fh.Filename), "segy")
	if err != nil {
		return ArtifactRef{}, err
	}
	return toRef(art), nil
}

package manifest

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"example.com/segygate/internal/common"
)

type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
	Type   string `json:"type"`
}

// Conversion records the processing options that produced an output item, so
// a manifest fully describes how a standardized file came to be.
type Conversion struct {
	SourcePath   string  `json:"sourcePath"`
	SourceFormat string  `json:"sourceFormat"`
	Normalize    bool    `json:"normalize"`
	ClipOutliers bool    `json:"clipOutliers"`
	ClipSigma    float64 `json:"clipSigma,omitempty"`
}

type Manifest struct {
	CreatedAt  time.Time   `json:"createdAt"`
	ShaAlgo    string      `json:"shaAlgo"`
	Items      []Item      `json:"items"`
	Conversion *Conversion `json:"conversion,omitempty"`
}

func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		hex, sz, err := common.Sha256OfFile(p)
		if err != nil {
			return m, err
		}
		m.Items = append(m.Items, Item{Path: p, Size: sz, Sha256: hex, Type: itemType(p)})
	}
	return m, nil
}

func itemType(path string) string {
	lower := strings.ToLower(path)
	switch {
	case hasExt(lower, ".segy", ".sgy"):
		return "segy"
	case hasExt(lower, ".json"):
		return "json"
	case hasExt(lower, ".jsonl"):
		return "jsonl"
	case hasExt(lower, ".pdf"):
		return "pdf"
	}
	return "other"
}

func hasExt(path string, exts ...string) bool {
	for _, e := range exts {
		if strings.HasSuffix(path, e) {
			return true
		}
	}
	return false
}

func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

package report

import (
	"encoding/json"
	"os"

	"example.com/segygate/internal/checks"
)

func SaveReportJSON(rep checks.ValidationReport, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadReportJSON(path string) (checks.ValidationReport, error) {
	var rep checks.ValidationReport
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}

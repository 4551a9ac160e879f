package core

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// WriteCSV writes one row per processed file with columns
// file, status, reasons, action, message. The header row is always present.
func WriteCSV(path string, results []ProcessResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"file", "status", "reasons", "action", "message"}); err != nil {
		return err
	}
	for _, r := range results {
		reasons := r.Reasons
		if reasons == "" {
			reasons = "(none)"
		}
		if err := w.Write([]string{r.Path, string(r.Status), reasons, r.Action, r.Message}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

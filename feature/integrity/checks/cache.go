package checks

import (
	"fmt"
	"os"
	"strings"
)

// CacheReport describes the local image cache directory.
type CacheReport struct {
	Dir               string `json:"dir"`
	Exists            bool   `json:"exists"`
	Writable          bool   `json:"writable"`
	Files             int    `json:"files"`
	PlaceholderExists bool   `json:"placeholder_exists"`
	Status            string `json:"status"` // "ok", "error"
	Error             string `json:"error,omitempty"`
}

// CheckCache verifies that dir exists and accepts writes, counts cached
// files and checks that the placeholder image is present.
func CheckCache(dir, placeholder string) *CacheReport {
	report := &CacheReport{Dir: dir, Status: "ok"}

	if _, err := os.Stat(placeholder); err == nil {
		report.PlaceholderExists = true
	} else {
		report.Status = "error"
		report.Error = fmt.Sprintf("placeholder %s not found", placeholder)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		report.Status = "error"
		report.Error = fmt.Sprintf("cache directory %s does not exist", dir)
		return report
	}
	report.Exists = true

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		report.Status = "error"
		report.Error = fmt.Sprintf("cache directory is not writable: %v", err)
	} else {
		report.Writable = true
		probe.Close()
		_ = os.Remove(probe.Name())
	}

	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
				report.Files++
			}
		}
	}

	return report
}

// FixCache creates the cache directory.
func FixCache(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

package packplan

import (
	"os"
	"path/filepath"
)

// WriteFile canonicalizes plan and writes it to <outDir>/pack-plan.json,
// creating outDir if necessary.
func WriteFile(outDir string, plan *PackPlan) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	data, err := MarshalCanonical(plan)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, "pack-plan.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

package moderation

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LoadLabelsFile reads the label dictionary snapshot at path. A missing
// file is not an error; it yields an empty dictionary.
func LoadLabelsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defs := make(map[string]string)
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// SaveLabelsFile atomically rewrites the label dictionary snapshot at
// path as pretty-printed JSON: write to a temp file in the same
// directory, then rename over the destination, so a crash mid-write
// never leaves a truncated labels.json behind.
func SaveLabelsFile(path string, defs map[string]string) error {
	data, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "labels-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

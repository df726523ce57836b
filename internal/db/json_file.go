package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// JSONFile is a JSON backend persisted to a file. Every comment rewrites
// the whole file atomically.
type JSONFile struct {
	*JSON
	Path string
}

// NewJSONFile loads the document tree from path.
func NewJSONFile(path string) (*JSONFile, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: json file database needs a path", ErrInvalidArgument)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json database: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse json database %s: %w", path, err)
	}
	inner, err := NewJSON(data)
	if err != nil {
		return nil, err
	}

	f := &JSONFile{JSON: inner, Path: path}
	inner.self = f
	inner.persist = f.save
	return f, nil
}

func (f *JSONFile) Name() string { return "json_file_db" }

// save is called with the write lock held.
func (f *JSONFile) save() error {
	encoded, err := json.MarshalIndent(f.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json database: %w", err)
	}
	if err := atomic.WriteFile(f.Path, bytes.NewReader(encoded)); err != nil {
		return fmt.Errorf("write json database %s: %w", f.Path, err)
	}
	return nil
}

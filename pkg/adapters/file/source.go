package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/espalier/pkg/domain"
)

// Source implements ports.TranscriptSource over a directory of JSON
// transcript files, one conversation per file.
type Source struct {
	BasePath string
}

// NewSource creates a source reading from the given directory.
func NewSource(dir string) *Source {
	return &Source{BasePath: dir}
}

// List returns the transcript IDs, file names without the .json
// extension. os.ReadDir yields entries sorted by name, which keeps the
// merge order reproducible across runs.
func (s *Source) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

// Load reads and decodes one transcript file.
func (s *Source) Load(ctx context.Context, id string) (domain.Transcript, error) {
	if id == "" {
		return nil, fmt.Errorf("transcript id cannot be empty")
	}

	path := filepath.Join(s.BasePath, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var transcript domain.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", id, err)
	}

	return transcript, nil
}

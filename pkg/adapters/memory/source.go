package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
)

// Source implements ports.TranscriptSource over an in-memory map.
// Useful for tests and embedding; List order is the sorted key order.
type Source struct {
	transcripts map[string]domain.Transcript
}

// NewSource creates a source serving the given transcripts.
func NewSource(transcripts map[string]domain.Transcript) *Source {
	copied := make(map[string]domain.Transcript, len(transcripts))
	for id, transcript := range transcripts {
		copied[id] = transcript
	}
	return &Source{transcripts: copied}
}

// List returns the transcript identifiers in sorted order.
func (s *Source) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.transcripts))
	for id := range s.transcripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Load returns the transcript registered under id.
func (s *Source) Load(ctx context.Context, id string) (domain.Transcript, error) {
	transcript, ok := s.transcripts[id]
	if !ok {
		return nil, fmt.Errorf("unknown transcript %q", id)
	}
	return transcript, nil
}

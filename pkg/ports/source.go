package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// TranscriptSource defines how the pipeline discovers and reads
// conversation transcripts. Implementations must keep List deterministic
// so repeated runs over the same inputs merge in the same order.
type TranscriptSource interface {
	// List returns the identifiers of all available transcripts in a
	// stable, deterministic order.
	List(ctx context.Context) ([]string, error)

	// Load reads one transcript by identifier.
	Load(ctx context.Context, id string) (domain.Transcript, error)
}

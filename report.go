package espalier

import (
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// Report summarizes one Build run: how many transcripts were seen, how
// many made it into the tree, and why the rest were skipped.
type Report struct {
	Transcripts     int              `json:"transcripts"`
	Merged          int              `json:"merged"`
	Skipped         []Skip           `json:"skipped,omitempty"`
	ResolvedPhrases int              `json:"resolved_phrases"`
	Tree            domain.TreeStats `json:"tree"`
	Duration        time.Duration    `json:"duration"`
}

// Skip records one transcript left out of the tree and the error that
// excluded it.
type Skip struct {
	Transcript string `json:"transcript"`
	Reason     string `json:"reason"`
}

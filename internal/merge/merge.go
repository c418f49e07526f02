// Package merge folds conversation transcripts into the shared dialog tree.
//
// Merges run strictly one at a time, after the transcript's phrases have
// been resolved: the tree is never touched concurrently and a transcript
// whose classification failed never reaches this package.
package merge

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// LookupFunc resolves a phrase to its intent label. ok is false for
// blank or never-resolved phrases.
type LookupFunc func(phrase string) (string, bool)

// Transcript folds one conversation into the tree rooted at root.
//
// The first bot turn's wording joins the root's phrase set; every later
// turn walks down one level, finding or creating the child keyed by the
// turn's intent (bot turns share the single empty key) and adding its
// wording there. Variants at the same position accumulate in one node;
// divergent human intents fork sibling branches.
//
// Leading human turns are dropped: with no preceding bot phrase there is
// nothing to attach them to. Blank turns store nothing and do not move
// the walk. A non-blank human turn without a resolved intent breaks the
// resolve-before-merge contract and returns an InvariantError.
func Transcript(root *domain.Node, transcript domain.Transcript, lookup LookupFunc) error {
	for len(transcript) > 0 && !transcript[0].IsBot {
		transcript = transcript[1:]
	}
	if len(transcript) == 0 {
		return nil
	}

	root.AddPhrase(transcript[0].Text)

	current := root
	for _, turn := range transcript[1:] {
		phrase := domain.NormalizePhrase(turn.Text)
		if phrase == "" {
			// An absent phrase must not materialize an empty reply.
			continue
		}

		intent := ""
		if !turn.IsBot {
			resolved, ok := lookup(phrase)
			if !ok {
				return &domain.InvariantError{
					Reason: fmt.Sprintf("human turn %q has no resolved intent", phrase),
				}
			}
			intent = resolved
		}

		child, err := current.EnsureReply(intent, turn.IsBot)
		if err != nil {
			return err
		}
		child.AddPhrase(phrase)
		current = child
	}

	return nil
}

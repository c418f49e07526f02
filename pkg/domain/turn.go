package domain

import "strings"

// Turn is a single utterance in a conversation transcript.
// Turns are immutable once read from their source.
type Turn struct {
	Text  string `json:"text"`
	IsBot bool   `json:"is_bot"`
}

// Transcript is an ordered sequence of turns forming one conversation.
type Transcript []Turn

// NormalizePhrase trims surrounding whitespace from a phrase.
// A phrase that normalizes to the empty string is treated as absent:
// it is never classified and never stored in the tree.
func NormalizePhrase(text string) string {
	return strings.TrimSpace(text)
}

// HumanPhrases returns the normalized, non-blank texts of all human turns,
// in transcript order. Duplicates are preserved; deduplication is the
// resolver's concern.
func (t Transcript) HumanPhrases() []string {
	var phrases []string
	for _, turn := range t {
		if turn.IsBot {
			continue
		}
		if phrase := NormalizePhrase(turn.Text); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

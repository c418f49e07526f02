package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Node is one position in the merged dialog tree. It accumulates every
// observed wording at that position and branches on the classified intent
// of the human reply. Bot nodes carry no intent; all bot replies of a node
// share the single empty intent key, so consecutive bot turns at the same
// position collapse into one node merging their phrasings.
type Node struct {
	isBot   bool
	intent  string
	phrases []string
	known   map[string]struct{}
	replies map[string]*Node
}

// NewTree returns the root of an empty dialog tree: a bot node with no
// intent. The first bot turn of every merged transcript contributes its
// wording to the root.
func NewTree() *Node {
	return newNode(true, "")
}

func newNode(isBot bool, intent string) *Node {
	return &Node{
		isBot:   isBot,
		intent:  intent,
		known:   make(map[string]struct{}),
		replies: make(map[string]*Node),
	}
}

// IsBot reports whether the node represents a bot turn.
func (n *Node) IsBot() bool { return n.isBot }

// Intent returns the intent label the node is keyed under, empty for bot nodes.
func (n *Node) Intent() string { return n.intent }

// Empty reports whether the node holds no phrases.
func (n *Node) Empty() bool { return len(n.phrases) == 0 }

// AddPhrase records a wording observed at this position. The text is
// normalized first; blanks and already-known phrases are ignored.
func (n *Node) AddPhrase(text string) {
	phrase := NormalizePhrase(text)
	if phrase == "" {
		return
	}
	if _, ok := n.known[phrase]; ok {
		return
	}
	n.known[phrase] = struct{}{}
	n.phrases = append(n.phrases, phrase)
}

// Phrases returns the wordings observed at this position in first-seen order.
func (n *Node) Phrases() []string {
	out := make([]string, len(n.phrases))
	copy(out, n.phrases)
	return out
}

// Reply returns the child under the given intent key, if any. Bot replies
// live under the empty key.
func (n *Node) Reply(intent string) (*Node, bool) {
	child, ok := n.replies[intent]
	return child, ok
}

// EnsureReply finds or creates the child under the given intent key. Bot
// children must use the empty intent and human children a non-empty one;
// an existing child must agree on speaker and intent. A mismatch means the
// resolve-before-merge contract was broken and surfaces as an InvariantError.
func (n *Node) EnsureReply(intent string, isBot bool) (*Node, error) {
	if isBot && intent != "" {
		return nil, &InvariantError{Reason: fmt.Sprintf("bot reply cannot carry intent %q", intent)}
	}
	if !isBot && intent == "" {
		return nil, &InvariantError{Reason: "human reply requires an intent"}
	}
	if child, ok := n.replies[intent]; ok {
		if child.isBot != isBot {
			return nil, &InvariantError{Reason: fmt.Sprintf("reply under intent %q changed speaker", intent)}
		}
		return child, nil
	}
	child := newNode(isBot, intent)
	n.replies[intent] = child
	return child, nil
}

// Replies returns the children in deterministic order: the bot reply
// first (its key sorts lowest), then human replies sorted by intent.
func (n *Node) Replies() []*Node {
	keys := make([]string, 0, len(n.replies))
	for k := range n.replies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Node, 0, len(keys))
	for _, k := range keys {
		out = append(out, n.replies[k])
	}
	return out
}

// Walk visits the node and its descendants depth first, children in the
// same deterministic order used for serialization.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Replies() {
		child.Walk(visit)
	}
}

// Intents returns the distinct intent labels keyed anywhere in the
// tree, sorted alphabetically.
func (n *Node) Intents() []string {
	seen := make(map[string]struct{})
	n.Walk(func(node *Node) {
		if node.intent != "" {
			seen[node.intent] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for intent := range seen {
		out = append(out, intent)
	}
	sort.Strings(out)
	return out
}

// TreeStats summarizes a built tree.
type TreeStats struct {
	Nodes   int `json:"nodes"`
	Phrases int `json:"phrases"`
	Intents int `json:"intents"`
}

// Stats counts the non-empty nodes, phrase variants, and distinct human
// intents reachable from n.
func (n *Node) Stats() TreeStats {
	var stats TreeStats
	intents := make(map[string]struct{})
	n.Walk(func(node *Node) {
		if node.Empty() {
			return
		}
		stats.Nodes++
		stats.Phrases += len(node.phrases)
		if node.intent != "" {
			intents[node.intent] = struct{}{}
		}
	})
	stats.Intents = len(intents)
	return stats
}

type nodeJSON struct {
	Intent  string   `json:"intent,omitempty"`
	IsBot   bool     `json:"is_bot"`
	Phrases []string `json:"phrases"`
	Replies []*Node  `json:"replies"`
}

// MarshalJSON renders the node in the canonical artifact shape: optional
// intent, speaker flag, phrase variants, and embedded children. A node
// with no phrases and no replies renders as an empty object.
func (n *Node) MarshalJSON() ([]byte, error) {
	if len(n.phrases) == 0 && len(n.replies) == 0 {
		return []byte("{}"), nil
	}
	phrases := n.phrases
	if phrases == nil {
		phrases = []string{}
	}
	return json.Marshal(nodeJSON{
		Intent:  n.intent,
		IsBot:   n.isBot,
		Phrases: phrases,
		Replies: n.Replies(),
	})
}

// UnmarshalJSON rebuilds a node from its serialized form so a previously
// built artifact can be served, rendered, or walked again.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		Intent  string            `json:"intent"`
		IsBot   *bool             `json:"is_bot"`
		Phrases []string          `json:"phrases"`
		Replies []json.RawMessage `json:"replies"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// An empty artifact carries no fields at all; the receiver keeps its
	// speaker in that case so an unmarshalled "{}" stays a valid root.
	if raw.IsBot != nil {
		n.isBot = *raw.IsBot
	}
	if n.isBot && raw.Intent != "" {
		return fmt.Errorf("bot node cannot carry intent %q", raw.Intent)
	}
	n.intent = raw.Intent
	n.phrases = nil
	n.known = make(map[string]struct{})
	n.replies = make(map[string]*Node)
	for _, phrase := range raw.Phrases {
		n.AddPhrase(phrase)
	}
	for _, rawChild := range raw.Replies {
		child := &Node{}
		if err := json.Unmarshal(rawChild, child); err != nil {
			return err
		}
		if _, dup := n.replies[child.intent]; dup {
			return fmt.Errorf("duplicate reply under intent %q", child.intent)
		}
		n.replies[child.intent] = child
	}
	return nil
}

package merge

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
)

func lookupTable(intents map[string]string) LookupFunc {
	return func(phrase string) (string, bool) {
		intent, ok := intents[phrase]
		return intent, ok
	}
}

func bot(text string) domain.Turn   { return domain.Turn{Text: text, IsBot: true} }
func human(text string) domain.Turn { return domain.Turn{Text: text, IsBot: false} }

func mustJSON(t *testing.T, tree *domain.Node) string {
	t.Helper()
	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal tree: %v", err)
	}
	return string(data)
}

func TestTranscript_EmptyIsNoOp(t *testing.T) {
	tests := []struct {
		name       string
		transcript domain.Transcript
	}{
		{name: "Empty", transcript: nil},
		{name: "Only Leading Human", transcript: domain.Transcript{human("hi")}},
		{name: "Only Leading Humans", transcript: domain.Transcript{human("hi"), human("anyone?")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := domain.NewTree()
			if err := Transcript(tree, tt.transcript, lookupTable(nil)); err != nil {
				t.Fatalf("Transcript() error = %v", err)
			}
			if got := mustJSON(t, tree); got != "{}" {
				t.Errorf("tree = %s, want {}", got)
			}
		})
	}
}

func TestTranscript_LeadingHumanDrop(t *testing.T) {
	lookup := lookupTable(map[string]string{"bye": "farewell"})

	with := domain.NewTree()
	if err := Transcript(with, domain.Transcript{human("hi"), bot("hello"), human("bye")}, lookup); err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}

	without := domain.NewTree()
	if err := Transcript(without, domain.Transcript{bot("hello"), human("bye")}, lookup); err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}

	if a, b := mustJSON(t, with), mustJSON(t, without); a != b {
		t.Errorf("leading human turn changed the merge:\n with %s\n without %s", a, b)
	}
}

func TestTranscript_BranchOnIntent(t *testing.T) {
	tree := domain.NewTree()
	lookup := lookupTable(map[string]string{"yes": "A", "no": "B"})

	if err := Transcript(tree, domain.Transcript{bot("hi"), human("yes"), bot("ok")}, lookup); err != nil {
		t.Fatalf("first Transcript() error = %v", err)
	}
	if err := Transcript(tree, domain.Transcript{bot("hi"), human("no"), bot("sorry")}, lookup); err != nil {
		t.Fatalf("second Transcript() error = %v", err)
	}

	if got := tree.Phrases(); !reflect.DeepEqual(got, []string{"hi"}) {
		t.Errorf("root phrases = %v, want [hi]", got)
	}

	yes, ok := tree.Reply("A")
	if !ok {
		t.Fatal("no child under intent A")
	}
	if got := yes.Phrases(); !reflect.DeepEqual(got, []string{"yes"}) {
		t.Errorf("intent A phrases = %v, want [yes]", got)
	}
	okReply, ok := yes.Reply("")
	if !ok || !reflect.DeepEqual(okReply.Phrases(), []string{"ok"}) {
		t.Errorf("intent A bot reply missing or wrong: %v", okReply)
	}

	no, ok := tree.Reply("B")
	if !ok {
		t.Fatal("no child under intent B")
	}
	sorry, ok := no.Reply("")
	if !ok || !reflect.DeepEqual(sorry.Phrases(), []string{"sorry"}) {
		t.Errorf("intent B bot reply missing or wrong: %v", sorry)
	}
}

func TestTranscript_PhraseMergeAtSamePosition(t *testing.T) {
	tree := domain.NewTree()
	lookup := lookupTable(map[string]string{"yes": "A"})

	if err := Transcript(tree, domain.Transcript{bot("hi"), human("yes")}, lookup); err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}
	if err := Transcript(tree, domain.Transcript{bot("hello"), human("yes")}, lookup); err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}

	if got := tree.Phrases(); !reflect.DeepEqual(got, []string{"hi", "hello"}) {
		t.Errorf("root phrases = %v, want [hi hello]", got)
	}
	if len(tree.Replies()) != 1 {
		t.Errorf("root has %d branches, want 1", len(tree.Replies()))
	}
}

func TestTranscript_ConsecutiveBotTurnsCollapse(t *testing.T) {
	tree := domain.NewTree()
	lookup := lookupTable(map[string]string{"thanks": "gratitude"})

	if err := Transcript(tree, domain.Transcript{bot("hi"), bot("what can I do?"), human("thanks")}, lookup); err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}
	if err := Transcript(tree, domain.Transcript{bot("hi"), bot("how can I help?")}, lookup); err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}

	followup, ok := tree.Reply("")
	if !ok {
		t.Fatal("no collapsed bot child under the empty key")
	}
	want := []string{"what can I do?", "how can I help?"}
	if got := followup.Phrases(); !reflect.DeepEqual(got, want) {
		t.Errorf("collapsed bot phrases = %v, want %v", got, want)
	}
	if _, ok := followup.Reply("gratitude"); !ok {
		t.Error("human reply missing under the collapsed bot node")
	}
}

func TestTranscript_BlankTurnsAreSkipped(t *testing.T) {
	lookup := lookupTable(map[string]string{"yes": "A"})

	t.Run("Blank Human Mid Transcript", func(t *testing.T) {
		tree := domain.NewTree()
		err := Transcript(tree, domain.Transcript{bot("hi"), human("   "), human("yes")}, lookup)
		if err != nil {
			t.Fatalf("Transcript() error = %v", err)
		}
		if _, ok := tree.Reply("A"); !ok {
			t.Error("blank human turn should not move the walk; intent A child missing at root")
		}
	})

	t.Run("Blank Bot Mid Transcript", func(t *testing.T) {
		tree := domain.NewTree()
		err := Transcript(tree, domain.Transcript{bot("hi"), bot("  "), human("yes")}, lookup)
		if err != nil {
			t.Fatalf("Transcript() error = %v", err)
		}
		if _, ok := tree.Reply("A"); !ok {
			t.Error("blank bot turn should not create a reply; intent A child missing at root")
		}
	})

	t.Run("Blank First Bot Turn Anchors Root", func(t *testing.T) {
		tree := domain.NewTree()
		err := Transcript(tree, domain.Transcript{bot("   "), human("yes")}, lookup)
		if err != nil {
			t.Fatalf("Transcript() error = %v", err)
		}
		if len(tree.Phrases()) != 0 {
			t.Errorf("root phrases = %v, want none", tree.Phrases())
		}
		if _, ok := tree.Reply("A"); !ok {
			t.Error("walk should still descend from the root")
		}
	})
}

func TestTranscript_UnresolvedHumanTurn(t *testing.T) {
	tree := domain.NewTree()

	err := Transcript(tree, domain.Transcript{bot("hi"), human("mystery")}, lookupTable(nil))

	var invariant *domain.InvariantError
	if !errors.As(err, &invariant) {
		t.Fatalf("Transcript() error = %v, want *domain.InvariantError", err)
	}
}

func TestTranscript_EmptyIntentFromLookup(t *testing.T) {
	tree := domain.NewTree()
	lookup := func(string) (string, bool) { return "", true }

	err := Transcript(tree, domain.Transcript{bot("hi"), human("odd")}, lookup)

	var invariant *domain.InvariantError
	if !errors.As(err, &invariant) {
		t.Fatalf("Transcript() error = %v, want *domain.InvariantError", err)
	}
}

func TestTranscript_Determinism(t *testing.T) {
	lookup := lookupTable(map[string]string{"yes": "A", "no": "B", "bye": "farewell"})
	transcripts := []domain.Transcript{
		{bot("hi"), human("yes"), bot("ok"), human("bye")},
		{bot("hello"), human("no"), bot("sorry")},
		{bot("hi"), human("yes"), bot("great")},
	}

	build := func() string {
		tree := domain.NewTree()
		for _, transcript := range transcripts {
			if err := Transcript(tree, transcript, lookup); err != nil {
				t.Fatalf("Transcript() error = %v", err)
			}
		}
		return mustJSON(t, tree)
	}

	first := build()
	for i := 0; i < 10; i++ {
		if again := build(); again != first {
			t.Fatalf("merge output changed between identical runs:\n%s\n%s", first, again)
		}
	}
}

package file

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestSourceList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zebra.json", `[]`)
	writeFile(t, dir, "alpha.json", `[]`)
	writeFile(t, dir, "notes.txt", `ignore me`)
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	source := NewSource(dir)
	ids, err := source.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"alpha", "zebra"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("List() = %v, want %v", ids, want)
	}
}

func TestSourceList_MissingDir(t *testing.T) {
	source := NewSource(filepath.Join(t.TempDir(), "nope"))
	if _, err := source.List(context.Background()); err == nil {
		t.Error("List() on missing directory should error")
	}
}

func TestSourceLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeting.json", `[
		{"text": "hello, how can I help?", "is_bot": true},
		{"text": "what are your hours", "is_bot": false}
	]`)
	writeFile(t, dir, "broken.json", `{not valid`)

	source := NewSource(dir)

	t.Run("Decodes Turns", func(t *testing.T) {
		transcript, err := source.Load(context.Background(), "greeting")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(transcript) != 2 {
			t.Fatalf("Load() returned %d turns, want 2", len(transcript))
		}
		if !transcript[0].IsBot || transcript[0].Text != "hello, how can I help?" {
			t.Errorf("first turn = %+v, want bot greeting", transcript[0])
		}
		if transcript[1].IsBot {
			t.Errorf("second turn should be human, got %+v", transcript[1])
		}
	})

	t.Run("Malformed JSON Errors", func(t *testing.T) {
		if _, err := source.Load(context.Background(), "broken"); err == nil {
			t.Error("Load() on malformed file should error")
		}
	})

	t.Run("Missing File Errors", func(t *testing.T) {
		if _, err := source.Load(context.Background(), "ghost"); err == nil {
			t.Error("Load() on missing file should error")
		}
	})
}

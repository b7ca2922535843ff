package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.json")

	state := &State{
		Messages: []MinimalMessage{
			{ID: "$root", TS: 100, Type: CategoryIdea, Body: "💡 idea", Keywords: []string{"idea"}},
			{ID: "$reply", TS: 200, Type: CategoryReply, Body: "yes", ParentID: "$root"},
		},
		ProcessedIDs:    []string{"$reply", "$root"},
		LastProcessedTS: 200,
	}
	if err := SaveState(path, state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if !reflect.DeepEqual(loaded, state) {
		t.Fatalf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", state, loaded)
	}
}

func TestLoadStateMissingFileIsFreshStart(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state, got %+v", state)
	}
}

func TestLoadStateCorruptFileIsFreshStartWithError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	state, err := LoadState(path)
	if state != nil {
		t.Fatalf("corrupt state must yield fresh start, got %+v", state)
	}
	if err == nil || !strings.Contains(err.Error(), "parse export state") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestSavedStateOmitsEmptyOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.json")
	state := &State{
		Messages:        []MinimalMessage{{ID: "$root", TS: 1, Type: CategoryFieldNote, Body: "📔 note"}},
		ProcessedIDs:    []string{"$root"},
		LastProcessedTS: 1,
	}
	if err := SaveState(path, state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entry := raw["messages"].([]any)[0].(map[string]any)
	for _, key := range []string{"parent_id", "formatted_body", "keywords"} {
		if _, present := entry[key]; present {
			t.Fatalf("empty %s must be omitted from the document", key)
		}
	}
}

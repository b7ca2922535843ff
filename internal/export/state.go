package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/campaignlab/fieldnotes/internal/fsio"
)

// LoadState reads a persisted export document. A missing file returns
// (nil, nil): a fresh start. A file that exists but cannot be parsed
// also yields a fresh start, with the parse error returned so the
// caller can warn; the merge itself never fails on prior-state damage.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read export state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse export state: %w", err)
	}
	return &state, nil
}

// SaveState writes the export document atomically.
func SaveState(path string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = fsio.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), data, 0o644)
	return err
}

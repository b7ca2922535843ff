package cli

import (
	"flag"
	"os"

	"github.com/campaignlab/fieldnotes/internal/export"
	"golang.org/x/term"
)

// reviewPreviewWidth is the body preview width when stdout is not a
// terminal (pipes, CI logs).
const reviewPreviewWidth = 80

type reviewEntry struct {
	ID       string   `json:"id"`
	TS       int64    `json:"ts"`
	Type     string   `json:"type"`
	Preview  string   `json:"preview"`
	Keywords []string `json:"keywords,omitempty"`
}

func runReview(args []string) error {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	inFlag := fs.String("in", stateFileName, "Export document to review")
	jsonFlag := fs.Bool("json", false, "Emit JSON output")

	usage := usageWithFlags(fs, "fieldnotes review [options]",
		"Prints exported root posts (id, type, body preview) for a",
		"manual pass over the classification.")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}

	if !fileExists(*inFlag) {
		return NotFoundError("export not found: %s", *inFlag)
	}
	state, err := export.LoadState(*inFlag)
	if err != nil {
		return err
	}
	if state == nil {
		return NotFoundError("export not found: %s", *inFlag)
	}

	width := previewWidth()
	var entries []reviewEntry
	for _, m := range state.Messages {
		if !m.IsRoot() {
			continue
		}
		entries = append(entries, reviewEntry{
			ID:       m.ID,
			TS:       m.TS,
			Type:     string(m.Type),
			Preview:  flattenPreview(m.Body, width),
			Keywords: m.Keywords,
		})
	}

	if *jsonFlag {
		return writeJSON(os.Stdout, entries)
	}
	for _, e := range entries {
		if err := writeStdout("%s\t%s\t%s\n", e.ID, e.Type, e.Preview); err != nil {
			return err
		}
	}
	return nil
}

// previewWidth sizes previews to the terminal when stdout is one,
// leaving room for the id and type columns.
func previewWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return reviewPreviewWidth
	}
	cols, _, err := term.GetSize(fd)
	if err != nil || cols <= 40 {
		return reviewPreviewWidth
	}
	return cols - 40
}

package cli

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/campaignlab/fieldnotes/internal/export"
	"github.com/campaignlab/fieldnotes/internal/fsio"
	"github.com/campaignlab/fieldnotes/internal/validate"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	inFlag := fs.String("in", stateFileName, "Export document to validate")
	reportFlag := fs.String("report", reportFileName, "Where to write the validation report")
	jsonFlag := fs.Bool("json", false, "Emit the report on stdout as JSON")

	usage := usageWithFlags(fs, "fieldnotes validate [options]",
		"Flags root posts failing textual heuristics and removes them",
		"from the export so only clean entries get published. Pruned ids",
		"leave processed_ids and will be re-examined on the next run.")
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

	valid, flagged := validate.Partition(state.Messages)
	report := validate.BuildReport(valid, flagged)

	reportData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	reportData = append(reportData, '\n')
	if _, err := fsio.WriteFileAtomic(filepath.Dir(*reportFlag), filepath.Base(*reportFlag), reportData, 0o644); err != nil {
		return err
	}

	if *jsonFlag {
		if err := writeJSON(os.Stdout, report); err != nil {
			return err
		}
	}

	if len(flagged) == 0 {
		if !*jsonFlag {
			if err := writeStdout("Validation: all %d items clean\n", report.ValidCount); err != nil {
				return err
			}
		}
		return nil
	}

	if !*jsonFlag {
		if err := writeStdout("Validation: %d item(s) flagged, %d clean\n", report.FlaggedCount, report.ValidCount); err != nil {
			return err
		}
		shown := flagged
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, item := range shown {
			if err := writeStdout("  - %s %v: %s\n", item.ID, item.Issues, flattenPreview(item.BodyPreview, 50)); err != nil {
				return err
			}
		}
		if rest := len(flagged) - len(shown); rest > 0 {
			if err := writeStdout("  ... and %d more\n", rest); err != nil {
				return err
			}
		}
	}

	err = withOutputLock(*inFlag, func() error {
		validate.Prune(state, flagged)
		return export.SaveState(*inFlag, state)
	})
	if err != nil {
		return err
	}
	if !*jsonFlag {
		if err := writeStdout("Excluded %d items from export\n", len(flagged)); err != nil {
			return err
		}
	}
	return FlaggedError("%d flagged item(s) pruned", len(flagged))
}

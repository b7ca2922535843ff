package cli

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/campaignlab/fieldnotes/internal/event"
	"github.com/campaignlab/fieldnotes/internal/export"
	"github.com/fsnotify/fsnotify"
)

// rawDump is the on-disk shape of an unprocessed history fetch:
// the full event list as delivered by the channel client.
type rawDump struct {
	Messages []event.Message `json:"messages"`
}

type cleanSummary struct {
	In              string `json:"in"`
	Out             string `json:"out"`
	Raw             int    `json:"raw"`
	Messages        int    `json:"messages"`
	ProcessedIDs    int    `json:"processed_ids"`
	LastProcessedTS int64  `json:"last_processed_ts"`
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	inFlag := fs.String("in", "export.json", "Raw history dump to curate")
	outFlag := fs.String("out", stateFileName, "Path of the export document")
	incrementalFlag := fs.Bool("incremental", false, "Merge into the existing export instead of replacing it")
	watchFlag := fs.Bool("watch", false, "Re-run whenever the input file changes (until interrupted)")
	pollFlag := fs.Bool("poll", false, "Use polling fallback instead of fsnotify (for network filesystems)")
	jsonFlag := fs.Bool("json", false, "Emit JSON output")

	usage := usageWithFlags(fs, "fieldnotes clean [options]",
		"Curates a raw room history dump into the publishable export.",
		"With --incremental, previously processed events are skipped and",
		"new replies attach to already-exported roots.")
	if handled, err := parseFlags(fs, args, usage); err != nil {
		return err
	} else if handled {
		return nil
	}

	if !*watchFlag {
		if !fileExists(*inFlag) {
			return NotFoundError("input not found: %s", *inFlag)
		}
		summary, err := cleanOnce(*inFlag, *outFlag, *incrementalFlag)
		if err != nil {
			return err
		}
		return printCleanSummary(summary, *jsonFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchAndClean(ctx, *inFlag, *outFlag, *incrementalFlag, *jsonFlag, *pollFlag)
}

// cleanOnce reads the raw dump and merges it into the export document
// under the output lock. Without incremental the prior document is
// ignored and fully rebuilt.
func cleanOnce(inPath, outPath string, incremental bool) (cleanSummary, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return cleanSummary{}, err
	}
	var dump rawDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return cleanSummary{}, err
	}

	var summary cleanSummary
	err = withOutputLock(outPath, func() error {
		var prior *export.State
		if incremental {
			prior = loadPriorState(outPath)
		}
		state := export.Merge(dump.Messages, prior)
		if err := export.SaveState(outPath, state); err != nil {
			return err
		}
		summary = cleanSummary{
			In:              inPath,
			Out:             outPath,
			Raw:             len(dump.Messages),
			Messages:        len(state.Messages),
			ProcessedIDs:    len(state.ProcessedIDs),
			LastProcessedTS: state.LastProcessedTS,
		}
		return nil
	})
	return summary, err
}

func printCleanSummary(summary cleanSummary, asJSON bool) error {
	if asJSON {
		return writeJSON(os.Stdout, summary)
	}
	if err := writeStdout("Wrote %s\n", summary.Out); err != nil {
		return err
	}
	if err := writeStdout("  Original: %d -> %d messages\n", summary.Raw, summary.Messages); err != nil {
		return err
	}
	return writeStdout("  processed_ids: %d, last_processed_ts: %d\n",
		summary.ProcessedIDs, summary.LastProcessedTS)
}

// watchAndClean re-runs the curation whenever the input file changes.
// Watching the parent directory instead of the file itself survives
// editors and fetchers that replace the file by rename.
func watchAndClean(ctx context.Context, inPath, outPath string, incremental, asJSON, poll bool) error {
	rerun := func() {
		if !fileExists(inPath) {
			return
		}
		summary, err := cleanOnce(inPath, outPath, incremental)
		if err != nil {
			_ = writeStderr("clean failed: %v\n", err)
			return
		}
		if err := printCleanSummary(summary, asJSON); err != nil {
			_ = writeStderr("%v\n", err)
		}
	}

	// Initial pass before watching so a pre-existing dump is handled.
	rerun()

	if poll {
		return pollAndClean(ctx, inPath, rerun)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Fall back to polling if fsnotify fails
		return pollAndClean(ctx, inPath, rerun)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(inPath)
	if err := watcher.Add(dir); err != nil {
		return pollAndClean(ctx, inPath, rerun)
	}

	target := filepath.Clean(inPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// Small delay to ensure the file is fully written
			time.Sleep(10 * time.Millisecond)
			rerun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = writeStderr("watch error: %v\n", err)
		}
	}
}

func pollAndClean(ctx context.Context, inPath string, rerun func()) error {
	var lastMod time.Time
	if info, err := os.Stat(inPath); err == nil {
		lastMod = info.ModTime()
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(inPath)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				rerun()
			}
		}
	}
}

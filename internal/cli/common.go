package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/campaignlab/fieldnotes/internal/config"
	"github.com/campaignlab/fieldnotes/internal/export"
	"github.com/campaignlab/fieldnotes/internal/lock"
)

type commonFlags struct {
	Out     string
	JSON    bool
	Verbose bool
}

func addCommonFlags(fs *flag.FlagSet, cfg config.Config) *commonFlags {
	flags := &commonFlags{}
	fs.StringVar(&flags.Out, "out", filepath.Join(cfg.OutputDir, stateFileName), "Path of the export document")
	fs.BoolVar(&flags.JSON, "json", false, "Emit JSON output")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Log debug detail to stderr")
	return flags
}

// newLogger builds the stderr logger for a command. Human-readable
// output stays on stdout; logs never mix into it.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withOutputLock serializes writers of the same output directory.
func withOutputLock(outPath string, fn func() error) error {
	lockPath := filepath.Join(filepath.Dir(outPath), lockFileName)
	return lock.WithExclusiveFileLock(lockPath, fn)
}

// loadPriorState reads the existing export for an incremental run,
// downgrading a corrupt file to a fresh start with a warning.
func loadPriorState(path string) *export.State {
	state, err := export.LoadState(path)
	if err != nil {
		_ = writeStderr("warning: ignoring existing export: %v\n", err)
		return nil
	}
	return state
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func isHelp(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func parseFlags(fs *flag.FlagSet, args []string, usage func()) (bool, error) {
	fs.SetOutput(io.Discard)
	if usage != nil {
		fs.Usage = usage
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func usageWithFlags(fs *flag.FlagSet, usage string, notes ...string) func() {
	return func() {
		_ = writeStdoutLine("Usage:")
		_ = writeStdoutLine("  " + usage)
		if len(notes) > 0 {
			_ = writeStdoutLine("")
			for _, note := range notes {
				_ = writeStdoutLine(note)
			}
		}
		_ = writeStdoutLine("")
		_ = writeStdoutLine("Options:")
		_ = writeFlagDefaults(fs)
	}
}

func writeFlagDefaults(fs *flag.FlagSet) error {
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	if buf.Len() == 0 {
		return nil
	}
	return writeStdout("%s", buf.String())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStdout(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeStdoutLine(args ...any) error {
	_, err := fmt.Fprintln(os.Stdout, args...)
	return err
}

func writeStderr(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stderr, format, args...)
	return err
}

// flattenPreview collapses a body to a single line capped at width runes.
func flattenPreview(body string, width int) string {
	body = strings.ReplaceAll(body, "\n", " ")
	body = strings.TrimRight(body, " ")
	runes := []rune(body)
	if len(runes) <= width {
		return body
	}
	return string(runes[:width]) + "..."
}

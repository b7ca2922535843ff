// Package cli implements the fieldnotes command line: fetching room
// history, curating it into the publishable export, validating the
// result, and a daemon mode that exports on command.
package cli

import "fmt"

const (
	// stateFileName is the curated document written next to the lock.
	stateFileName = "content.json"
	// reportFileName is the validation report for the publish workflow.
	reportFileName = "validation_report.json"
	// lockFileName guards the output directory against overlapping runs.
	lockFileName = ".fieldnotes.lock"
)

func Run(args []string) error {
	if len(args) == 0 || isHelp(args[0]) {
		return printUsage()
	}

	switch args[0] {
	case "export":
		return runExport(args[1:])
	case "clean":
		return runClean(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "review":
		return runReview(args[1:])
	case "run":
		return runDaemon(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() error {
	if err := writeStdoutLine("fieldnotes - channel export for publishing"); err != nil {
		return err
	}
	if err := writeStdoutLine(""); err != nil {
		return err
	}
	if err := writeStdoutLine("Usage:"); err != nil {
		return err
	}
	if err := writeStdoutLine("  fieldnotes <command> [options]"); err != nil {
		return err
	}
	if err := writeStdoutLine(""); err != nil {
		return err
	}
	if err := writeStdoutLine("Commands:"); err != nil {
		return err
	}
	if err := writeStdoutLine("  export    Fetch room history and update the export"); err != nil {
		return err
	}
	if err := writeStdoutLine("  clean     Curate a raw history dump file into an export"); err != nil {
		return err
	}
	if err := writeStdoutLine("  validate  Flag and prune low-quality entries"); err != nil {
		return err
	}
	if err := writeStdoutLine("  review    List exported roots for manual review"); err != nil {
		return err
	}
	if err := writeStdoutLine("  run       Stay online and export on !export command"); err != nil {
		return err
	}
	if err := writeStdoutLine(""); err != nil {
		return err
	}
	if err := writeStdoutLine("Environment:"); err != nil {
		return err
	}
	if err := writeStdoutLine("  MATRIX_HOMESERVER, MATRIX_USER, MATRIX_PASSWORD (or"); err != nil {
		return err
	}
	if err := writeStdoutLine("  MATRIX_ACCESS_TOKEN + MATRIX_USER_ID), MATRIX_ROOM_ID,"); err != nil {
		return err
	}
	return writeStdoutLine("  OUTPUT_DIR; a .env file is honored if present")
}

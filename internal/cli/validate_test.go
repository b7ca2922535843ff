package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/campaignlab/fieldnotes/internal/export"
	"github.com/campaignlab/fieldnotes/internal/validate"
)

func writeExport(t *testing.T, path string, state *export.State) {
	t.Helper()
	if err := export.SaveState(path, state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
}

func TestRunValidatePrunesFlagged(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "content.json")
	reportPath := filepath.Join(dir, "validation_report.json")

	writeExport(t, in, &export.State{
		Messages: []export.MinimalMessage{
			{ID: "$good", TS: 100, Type: export.CategoryJournal,
				Body: "Spent the evening phone banking; three callbacks promised for Saturday."},
			{ID: "$stub", TS: 200, Type: export.CategoryJournal, Body: "ok"},
		},
		ProcessedIDs:    []string{"$good", "$stub"},
		LastProcessedTS: 200,
	})

	err := Run([]string{"validate", "--in", in, "--report", reportPath})
	if GetExitCode(err) != ExitFlagged {
		t.Fatalf("exit code = %d, want %d (err: %v)", GetExitCode(err), ExitFlagged, err)
	}

	state := readState(t, in)
	if len(state.Messages) != 1 || state.Messages[0].ID != "$good" {
		t.Errorf("expected only $good after prune, got %+v", state.Messages)
	}
	if slices.Contains(state.ProcessedIDs, "$stub") {
		t.Errorf("pruned id still in processed_ids: %v", state.ProcessedIDs)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report validate.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Total != 2 || report.ValidCount != 1 || report.FlaggedCount != 1 {
		t.Errorf("report counts = %d/%d/%d, want 2/1/1",
			report.Total, report.ValidCount, report.FlaggedCount)
	}
	if len(report.Flagged) != 1 || report.Flagged[0].ID != "$stub" {
		t.Fatalf("flagged = %+v, want $stub", report.Flagged)
	}
	if !slices.Contains(report.Flagged[0].Issues, validate.IssueEmptyOrMinimal) {
		t.Errorf("issues = %v, want %s", report.Flagged[0].Issues, validate.IssueEmptyOrMinimal)
	}
}

func TestRunValidateAllClean(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "content.json")
	reportPath := filepath.Join(dir, "validation_report.json")

	writeExport(t, in, &export.State{
		Messages: []export.MinimalMessage{
			{ID: "$good", TS: 100, Type: export.CategoryIdea,
				Body: "Pair every new volunteer with someone who has done two canvasses already."},
		},
		ProcessedIDs:    []string{"$good"},
		LastProcessedTS: 100,
	})

	if err := Run([]string{"validate", "--in", in, "--report", reportPath}); err != nil {
		t.Fatalf("expected clean pass, got %v", err)
	}

	state := readState(t, in)
	if len(state.Messages) != 1 {
		t.Errorf("clean pass must not prune, got %d messages", len(state.Messages))
	}
	if !fileExists(reportPath) {
		t.Error("report not written on clean pass")
	}
}

func TestRunValidateRepliesExempt(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "content.json")

	writeExport(t, in, &export.State{
		Messages: []export.MinimalMessage{
			{ID: "$root", TS: 100, Type: export.CategoryQuestion,
				Body: "Has anyone compared leaflet response rates by delivery day of week?"},
			{ID: "$reply", TS: 200, Type: export.CategoryReply, ParentID: "$root", Body: "yes"},
		},
		ProcessedIDs:    []string{"$reply", "$root"},
		LastProcessedTS: 200,
	})

	err := Run([]string{"validate", "--in", in,
		"--report", filepath.Join(dir, "validation_report.json")})
	if err != nil {
		t.Fatalf("short reply must not be flagged, got %v", err)
	}
}

func TestRunValidateMissingExport(t *testing.T) {
	dir := t.TempDir()
	err := Run([]string{"validate", "--in", filepath.Join(dir, "absent.json"),
		"--report", filepath.Join(dir, "validation_report.json")})
	if GetExitCode(err) != ExitNotFound {
		t.Errorf("exit code = %d, want %d (err: %v)", GetExitCode(err), ExitNotFound, err)
	}
}

// Package validate is the quality gate over a produced export. It flags
// root posts failing simple textual heuristics and can prune flagged
// entries from the document before it is published.
package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/campaignlab/fieldnotes/internal/export"
)

// Issue codes attached to flagged messages.
const (
	IssueEmptyOrMinimal    = "empty_or_minimal"
	IssueNoSubstantiveText = "no_substantive_text"
	IssuePossibleEncoding  = "possible_encoding_issue"
)

const (
	minimalBodyRunes     = 25
	substantiveBodyRunes = 100
	previewRunes         = 120
)

// FlaggedItem describes one message that failed validation.
type FlaggedItem struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	BodyPreview string   `json:"body_preview"`
	Issues      []string `json:"issues"`
}

// Report summarizes a validation pass; it is written alongside the
// export for the publishing workflow to inspect.
type Report struct {
	Total        int           `json:"total"`
	ValidCount   int           `json:"valid_count"`
	FlaggedCount int           `json:"flagged_count"`
	Flagged      []FlaggedItem `json:"flagged"`
}

// MessageIssues returns the issue codes for a single message. Only
// roots are checked; replies get a pass (they inherit context from
// their thread).
func MessageIssues(m export.MinimalMessage) []string {
	if !m.IsRoot() {
		return nil
	}
	var issues []string
	body := strings.TrimSpace(m.Body)
	length := utf8.RuneCountInString(body)
	hasURL := strings.Contains(body, "http://") || strings.Contains(body, "https://")

	if length < minimalBodyRunes && !hasURL {
		issues = append(issues, IssueEmptyOrMinimal)
	}
	if length > 0 && length < substantiveBodyRunes && !containsLetter(body) {
		issues = append(issues, IssueNoSubstantiveText)
	}
	if strings.ContainsRune(body, '�') || strings.HasSuffix(body, `\`) {
		issues = append(issues, IssuePossibleEncoding)
	}
	return issues
}

// Partition splits the export's messages into valid records and flagged
// items.
func Partition(messages []export.MinimalMessage) ([]export.MinimalMessage, []FlaggedItem) {
	valid := make([]export.MinimalMessage, 0, len(messages))
	var flagged []FlaggedItem
	for _, m := range messages {
		issues := MessageIssues(m)
		if len(issues) == 0 {
			valid = append(valid, m)
			continue
		}
		flagged = append(flagged, FlaggedItem{
			ID:          m.ID,
			Type:        string(m.Type),
			BodyPreview: preview(m.Body),
			Issues:      issues,
		})
	}
	return valid, flagged
}

// Prune removes flagged entries and their ids from the state, in place.
// This is the one sanctioned path that shrinks processed_ids: pruned
// events will be re-examined if they ever reappear in a batch.
func Prune(state *export.State, flagged []FlaggedItem) {
	if len(flagged) == 0 {
		return
	}
	remove := make(map[string]struct{}, len(flagged))
	for _, f := range flagged {
		remove[f.ID] = struct{}{}
	}

	kept := state.Messages[:0]
	for _, m := range state.Messages {
		if _, drop := remove[m.ID]; !drop {
			kept = append(kept, m)
		}
	}
	state.Messages = kept

	ids := state.ProcessedIDs[:0]
	for _, id := range state.ProcessedIDs {
		if _, drop := remove[id]; !drop {
			ids = append(ids, id)
		}
	}
	state.ProcessedIDs = ids
}

// BuildReport assembles the report for a partition result.
func BuildReport(valid []export.MinimalMessage, flagged []FlaggedItem) Report {
	if flagged == nil {
		flagged = []FlaggedItem{}
	}
	return Report{
		Total:        len(valid) + len(flagged),
		ValidCount:   len(valid),
		FlaggedCount: len(flagged),
		Flagged:      flagged,
	}
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func preview(body string) string {
	body = strings.ReplaceAll(body, "\n", " ")
	runes := []rune(body)
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	return string(runes)
}

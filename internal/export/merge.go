package export

import (
	"sort"

	"github.com/campaignlab/fieldnotes/internal/event"
)

// MinimalMessage is one entry of the published document. ParentID is
// set on replies only; Keywords on roots only.
type MinimalMessage struct {
	ID            string   `json:"id"`
	TS            int64    `json:"ts"`
	Type          Category `json:"type"`
	Body          string   `json:"body"`
	ParentID      string   `json:"parent_id,omitempty"`
	FormattedBody string   `json:"formatted_body,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// IsRoot reports whether the entry is a category root.
func (m MinimalMessage) IsRoot() bool {
	return m.ParentID == ""
}

// State is the persisted export document. Messages are sorted ascending
// by timestamp (stable on ties); ProcessedIDs is the sorted set of
// event ids already incorporated, used to skip reprocessing on the next
// run.
type State struct {
	Messages        []MinimalMessage `json:"messages"`
	ProcessedIDs    []string         `json:"processed_ids"`
	LastProcessedTS int64            `json:"last_processed_ts"`
}

// editOverride is replacement content supplied by a later m.replace
// event; the latest edit in scan order wins per target.
type editOverride struct {
	body          string
	formattedBody string
}

// buildEditOverrides collects the latest replacement content per edited
// event id across the whole batch.
func buildEditOverrides(batch []event.Message) map[string]editOverride {
	overrides := make(map[string]editOverride)
	for _, m := range batch {
		if !m.IsRoomMessage() {
			continue
		}
		rel := event.Resolve(m)
		if rel.Kind != event.RelationEdit {
			continue
		}
		overrides[rel.TargetID] = editOverride{
			body:          rel.NewBody,
			formattedBody: rel.NewFormattedBody,
		}
	}
	return overrides
}

// Merge incorporates one run's full fetch into the prior persisted
// state and returns the new state. prior may be nil for a fresh start.
//
// Already-processed events are skipped entirely, but roots from the
// prior state remain valid attachment points, so a reply arriving this
// run still joins its thread even though the root itself is not
// refetched. Edit overrides are collected from the entire batch; they
// apply only to records built this run — records already persisted are
// never rewritten, so an edit targeting an earlier run's message stays
// invisible until that message is reprocessed.
//
// Merge is idempotent: re-running with the same batch and the resulting
// state changes nothing. ProcessedIDs only ever grows here; the
// validation step is the one consumer allowed to remove ids.
func Merge(batch []event.Message, prior *State) *State {
	already := make(map[string]struct{})
	existingRoots := make(map[string]struct{})
	var existingMessages []MinimalMessage
	var existingLastTS int64

	if prior != nil {
		for _, id := range prior.ProcessedIDs {
			already[id] = struct{}{}
		}
		existingMessages = prior.Messages
		existingLastTS = prior.LastProcessedTS
		for _, m := range prior.Messages {
			if m.IsRoot() {
				existingRoots[m.ID] = struct{}{}
			}
		}
	}

	newOnly := batch
	if prior != nil {
		newOnly = make([]event.Message, 0, len(batch))
		for _, m := range batch {
			if _, done := already[m.EventID]; done {
				continue
			}
			newOnly = append(newOnly, m)
		}
	}

	roots := make(map[string]struct{}, len(existingRoots))
	for id := range existingRoots {
		roots[id] = struct{}{}
	}
	for _, m := range newOnly {
		if m.EventID != "" && IsRootCandidate(m) {
			roots[m.EventID] = struct{}{}
		}
	}

	keep := CloseThreads(newOnly, roots)

	kept := make([]event.Message, 0, len(keep))
	for _, m := range newOnly {
		if _, ok := keep[m.EventID]; ok {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].OriginServerTS < kept[j].OriginServerTS
	})

	overrides := buildEditOverrides(batch)

	built := make([]MinimalMessage, 0, len(kept))
	for _, m := range kept {
		_, isRoot := roots[m.EventID]
		built = append(built, buildMinimal(m, !isRoot, overrides))
	}

	next := &State{}
	if prior != nil {
		next.Messages = make([]MinimalMessage, 0, len(existingMessages)+len(built))
		next.Messages = append(next.Messages, existingMessages...)
		next.Messages = append(next.Messages, built...)
	} else {
		next.Messages = built
	}
	sort.SliceStable(next.Messages, func(i, j int) bool {
		return next.Messages[i].TS < next.Messages[j].TS
	})

	ids := make(map[string]struct{}, len(already)+len(keep))
	for id := range already {
		ids[id] = struct{}{}
	}
	for id := range keep {
		ids[id] = struct{}{}
	}
	next.ProcessedIDs = make([]string, 0, len(ids))
	for id := range ids {
		next.ProcessedIDs = append(next.ProcessedIDs, id)
	}
	sort.Strings(next.ProcessedIDs)

	next.LastProcessedTS = existingLastTS
	for _, m := range kept {
		if m.OriginServerTS > next.LastProcessedTS {
			next.LastProcessedTS = m.OriginServerTS
		}
	}
	return next
}

// buildMinimal assembles the published record for one kept message.
// The displayed body honors the edit override when one targets this
// message; classification uses the original body, keywords the
// displayed one.
func buildMinimal(m event.Message, isReply bool, overrides map[string]editOverride) MinimalMessage {
	out := MinimalMessage{
		ID:   m.EventID,
		TS:   m.OriginServerTS,
		Type: Classify(m, isReply),
		Body: m.Body(),
	}
	formatted := m.FormattedBody()
	if o, ok := overrides[m.EventID]; ok {
		out.Body = o.body
		formatted = o.formattedBody
	}
	if isReply {
		out.ParentID = event.Resolve(m).ParentID()
	}
	if formatted != "" {
		out.FormattedBody = formatted
	}
	if !isReply {
		out.Keywords = ExtractKeywords(out.Body)
	}
	return out
}

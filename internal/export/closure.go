package export

import (
	"github.com/campaignlab/fieldnotes/internal/event"
)

// CloseThreads computes the transitive closure of reply descendants
// reachable from the root set: the ids of all batch messages whose
// parent chain leads to a root. The fixed-point loop re-scans pending
// messages until a full pass adds nothing, so reply chains of arbitrary
// depth resolve regardless of batch order. Growth is monotonic and
// bounded by the batch, which guarantees termination even on malformed
// or cyclic relation graphs. Messages whose parent never enters the
// keep-set are excluded.
func CloseThreads(batch []event.Message, roots map[string]struct{}) map[string]struct{} {
	keep := make(map[string]struct{}, len(roots))
	for id := range roots {
		keep[id] = struct{}{}
	}

	for {
		added := false
		for _, m := range batch {
			if !m.IsRoomMessage() || m.EventID == "" {
				continue
			}
			if _, kept := keep[m.EventID]; kept {
				continue
			}
			parent := event.Resolve(m).ParentID()
			if parent == "" {
				continue
			}
			if _, ok := keep[parent]; ok {
				keep[m.EventID] = struct{}{}
				added = true
			}
		}
		if !added {
			break
		}
	}
	return keep
}

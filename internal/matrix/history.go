package matrix

import (
	"context"
	"sort"

	"github.com/campaignlab/fieldnotes/internal/event"
)

// historyPageSize is the page size used when walking room history.
const historyPageSize = 100

// FetchRoomHistory pages backward through the full history of a room
// and returns its text messages in chronological order. The batch is
// fully materialized before it is returned; the merge never sees a
// partial fetch.
func FetchRoomHistory(ctx context.Context, session *Session, roomID string) ([]event.Message, error) {
	logger := session.client.logger
	var messages []event.Message

	from := "" // empty token starts at the room's most recent event
	for {
		response, err := session.RoomMessages(ctx, roomID, RoomMessagesOptions{
			From:      from,
			Direction: "b",
			Limit:     historyPageSize,
		})
		if err != nil {
			return nil, err
		}
		if len(response.Chunk) == 0 {
			break
		}
		for _, msg := range response.Chunk {
			if msg.IsRoomMessage() {
				if msg.RoomID == "" {
					msg.RoomID = roomID
				}
				messages = append(messages, msg)
			}
		}
		if response.End == "" {
			break
		}
		from = response.End
		logger.Info("fetching room history", "room_id", roomID, "events", len(messages))
	}

	// Backward pagination returns newest first; the pipeline wants
	// chronological order.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].OriginServerTS < messages[j].OriginServerTS
	})

	logger.Info("room history fetched", "room_id", roomID, "messages", len(messages))
	return messages, nil
}

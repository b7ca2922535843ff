package matrix

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/campaignlab/fieldnotes/internal/event"
)

// Session is an authenticated homeserver session.
type Session struct {
	client      *Client
	userID      string
	accessToken string
}

// UserID returns the session's user id, if known.
func (s *Session) UserID() string {
	return s.userID
}

// WhoAmI asks the homeserver which account the token belongs to and
// caches the answer on the session.
func (s *Session) WhoAmI(ctx context.Context) (string, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return "", fmt.Errorf("matrix: whoami failed: %w", err)
	}
	var response struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("matrix: failed to parse whoami response: %w", err)
	}
	s.userID = response.UserID
	return response.UserID, nil
}

// ResolveAlias resolves a room alias (#field-notes:example.org) to a
// room id. Values that are not aliases are returned unchanged.
func (s *Session) ResolveAlias(ctx context.Context, room string) (string, error) {
	if !strings.HasPrefix(room, "#") {
		return room, nil
	}
	path := "/_matrix/client/v3/directory/room/" + url.PathEscape(room)
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return "", fmt.Errorf("matrix: resolve alias %s failed: %w", room, err)
	}
	var response struct {
		RoomID string `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("matrix: failed to parse alias response: %w", err)
	}
	return response.RoomID, nil
}

// RoomMessagesOptions controls pagination for room history fetching.
type RoomMessagesOptions struct {
	From      string // pagination token; empty means "from now"
	Direction string // "b" (backward/older) or "f" (forward/newer)
	Limit     int    // max events to return; 0 uses the server default
}

// RoomMessagesResponse is returned by RoomMessages.
type RoomMessagesResponse struct {
	Start string          `json:"start"`
	End   string          `json:"end"`
	Chunk []event.Message `json:"chunk"`
}

// RoomMessages fetches one page of room history.
func (s *Session) RoomMessages(ctx context.Context, roomID string, options RoomMessagesOptions) (*RoomMessagesResponse, error) {
	query := url.Values{}
	if options.From != "" {
		query.Set("from", options.From)
	}
	if options.Direction != "" {
		query.Set("dir", options.Direction)
	}
	if options.Limit > 0 {
		query.Set("limit", strconv.Itoa(options.Limit))
	}

	path := "/_matrix/client/v3/rooms/" + url.PathEscape(roomID) + "/messages"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("matrix: room messages failed: %w", err)
	}
	var response RoomMessagesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("matrix: failed to parse messages response: %w", err)
	}
	return &response, nil
}

// SendText sends a plain text message to a room and returns the new
// event id. Uses PUT with a random transaction id so a retried call is
// deduplicated by the server.
func (s *Session) SendText(ctx context.Context, roomID, text string) (string, error) {
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(roomID) +
		"/send/m.room.message/" + newTransactionID()
	content := event.Content{MsgType: "m.text", Body: text}
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return "", fmt.Errorf("matrix: send message failed: %w", err)
	}
	var response struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("matrix: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// SyncOptions controls the /sync long poll.
type SyncOptions struct {
	Since   string // next_batch from the previous sync; empty for initial
	Timeout int    // long-poll timeout in milliseconds; 0 returns immediately
}

// SyncResponse is the subset of /sync the exporter consumes: the next
// batch token and per-room timelines.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection groups rooms by membership; only joined rooms matter here.
type RoomsSection struct {
	Join map[string]JoinedRoom `json:"join"`
}

// JoinedRoom carries the timeline delta for one joined room.
type JoinedRoom struct {
	Timeline Timeline `json:"timeline"`
}

// Timeline is a batch of events from /sync.
type Timeline struct {
	Events    []event.Message `json:"events"`
	Limited   bool            `json:"limited,omitempty"`
	PrevBatch string          `json:"prev_batch,omitempty"`
}

// Sync performs one /sync long poll.
func (s *Session) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.Timeout > 0 {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("matrix: sync failed: %w", err)
	}
	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("matrix: failed to parse sync response: %w", err)
	}
	return &response, nil
}

// Logout invalidates the session's access token.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/logout", s.accessToken, struct{}{})
	if err != nil {
		return fmt.Errorf("matrix: logout failed: %w", err)
	}
	return nil
}

func newTransactionID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a constant rather than panicking in a send path.
		return "fieldnotes-txn"
	}
	return "fieldnotes-" + hex.EncodeToString(buf[:])
}

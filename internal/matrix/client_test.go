package matrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{}); err == nil {
			t.Fatal("expected error for empty URL")
		}
	})
}

func TestLogin(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_matrix/client/v3/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if body["type"] != "m.login.password" || body["user"] != "bot" {
			t.Errorf("unexpected login request: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_id":      "@bot:example.org",
			"access_token": "tok-123",
			"device_id":    "DEV",
		})
	}))

	session, err := client.Login(context.Background(), "bot", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.UserID() != "@bot:example.org" {
		t.Fatalf("user id = %q", session.UserID())
	}
}

func TestLoginErrorSurface(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"errcode": "M_FORBIDDEN", "error": "Invalid password"}`)
	}))

	_, err := client.Login(context.Background(), "bot", "wrong")
	if err == nil {
		t.Fatal("expected login error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Code != "M_FORBIDDEN" || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestResolveAlias(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_matrix/client/v3/directory/room/#notes:example.org" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"room_id": "!resolved:example.org"})
	}))
	session := client.SessionFromToken("@bot:example.org", "tok")

	roomID, err := session.ResolveAlias(context.Background(), "#notes:example.org")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if roomID != "!resolved:example.org" {
		t.Fatalf("room id = %q", roomID)
	}
}

func TestResolveAliasPassthrough(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for a literal room id, got %s", r.URL.Path)
	}))
	session := client.SessionFromToken("@bot:example.org", "tok")

	roomID, err := session.ResolveAlias(context.Background(), "!already:example.org")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if roomID != "!already:example.org" {
		t.Fatalf("room id = %q", roomID)
	}
}

func TestSendTextUsesAuthorizedPut(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"event_id": "$sent:example.org"})
	}))
	session := client.SessionFromToken("@bot:example.org", "tok")

	eventID, err := session.SendText(context.Background(), "!room:example.org", "Export complete.")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if eventID != "$sent:example.org" {
		t.Fatalf("event id = %q", eventID)
	}
}

func TestSync(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_matrix/client/v3/sync" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("since"); got != "s1" {
			t.Errorf("since = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"next_batch": "s2",
			"rooms": map[string]any{
				"join": map[string]any{
					"!room:example.org": map[string]any{
						"timeline": map[string]any{
							"events": []map[string]any{{
								"type":             "m.room.message",
								"event_id":         "$cmd",
								"sender":           "@jo:example.org",
								"origin_server_ts": 42,
								"content":          map[string]any{"msgtype": "m.text", "body": "!export"},
							}},
						},
					},
				},
			},
		})
	}))
	session := client.SessionFromToken("@bot:example.org", "tok")

	response, err := session.Sync(context.Background(), SyncOptions{Since: "s1", Timeout: 30000})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if response.NextBatch != "s2" {
		t.Fatalf("next_batch = %q", response.NextBatch)
	}
	events := response.Rooms.Join["!room:example.org"].Timeline.Events
	if len(events) != 1 || events[0].Body() != "!export" {
		t.Fatalf("unexpected timeline: %+v", events)
	}
}

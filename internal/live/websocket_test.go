package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/code-arena/internal/domain"
)

func TestWebSocketHandler_StreamsSnapshotAndEntries(t *testing.T) {
	hub := NewHub()
	snapshot := func(_ context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
		return []domain.LeaderboardEntry{{ChallengeID: challengeID, Handle: "first", Score: 100}}, nil
	}
	srv := httptest.NewServer(NewWebSocketHandler(hub, snapshot, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?challengeId=rate-limiter"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var ev Event
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if ev.Type != EventSnapshot || len(ev.Entries) != 1 || ev.Entries[0].Handle != "first" {
		t.Fatalf("Unexpected snapshot %+v", ev)
	}

	// The subscription is registered before the snapshot is written.
	hub.Publish(domain.LeaderboardEntry{ChallengeID: "rate-limiter", Handle: "second", Score: 100})

	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("Failed to decode entry: %v", err)
	}
	if ev.Type != EventEntry || ev.Entry == nil || ev.Entry.Handle != "second" {
		t.Errorf("Unexpected entry event %+v", ev)
	}
}

package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/code-arena/internal/domain"
)

const writeTimeout = 5 * time.Second

// SnapshotFunc returns the current leaderboard for a challenge.
type SnapshotFunc func(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error)

// WebSocketHandler streams leaderboard events to a websocket client.
type WebSocketHandler struct {
	hub            *Hub
	snapshot       SnapshotFunc
	originPatterns []string
}

// NewWebSocketHandler creates a handler. snapshot may be nil.
func NewWebSocketHandler(hub *Hub, snapshot SnapshotFunc, originPatterns []string) *WebSocketHandler {
	if len(originPatterns) == 0 {
		originPatterns = []string{"*"}
	}
	return &WebSocketHandler{
		hub:            hub,
		snapshot:       snapshot,
		originPatterns: originPatterns,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	challengeID := r.URL.Query().Get("challengeId")

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "challenge_id", challengeID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	sub := h.hub.Subscribe(challengeID)
	defer h.hub.Unsubscribe(sub)

	// Clients never send; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := ws.CloseRead(r.Context())

	if h.snapshot != nil {
		entries, err := h.snapshot(ctx, challengeID)
		if err != nil {
			slog.Warn("Failed to load leaderboard snapshot", "error", err, "challenge_id", challengeID)
		} else if err := h.writeJSON(ctx, ws, Event{Type: EventSnapshot, Entries: entries}); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C:
			if !ok {
				_ = ws.Close(websocket.StatusPolicyViolation, "subscriber too slow")
				return
			}
			if err := h.write(ctx, ws, msg); err != nil {
				slog.Debug("WebSocket write error", "error", err)
				return
			}
		}
	}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.write(ctx, ws, data)
}

func (h *WebSocketHandler) write(ctx context.Context, ws *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}

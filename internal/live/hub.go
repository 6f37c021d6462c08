// Package live fans newly recorded leaderboard entries out to websocket
// subscribers.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ashureev/code-arena/internal/domain"
)

// subscriberBuffer is the number of undelivered events a subscriber may
// queue before it is dropped.
const subscriberBuffer = 16

// Event types sent to subscribers.
const (
	EventSnapshot = "snapshot"
	EventEntry    = "entry"
)

// Event is the JSON message delivered to subscribers.
type Event struct {
	Type    string                    `json:"type"`
	Entry   *domain.LeaderboardEntry  `json:"entry,omitempty"`
	Entries []domain.LeaderboardEntry `json:"entries,omitempty"`
}

// Subscription receives events for one challenge, or for every challenge
// when ChallengeID is empty. C is closed when the hub drops the subscriber.
type Subscription struct {
	ChallengeID string
	C           <-chan []byte

	ch     chan []byte
	closed bool
}

// Hub tracks subscriptions keyed by challenge id.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscription.
func (h *Hub) Subscribe(challengeID string) *Subscription {
	ch := make(chan []byte, subscriberBuffer)
	sub := &Subscription{ChallengeID: challengeID, C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[challengeID]; !exists {
		h.active[challengeID] = make(map[*Subscription]struct{})
	}
	h.active[challengeID][sub] = struct{}{}
	slog.Debug("Leaderboard subscriber registered", "challenge_id", challengeID)
	return sub
}

// Unsubscribe removes sub. It is safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	subs, ok := h.active[sub.ChallengeID]
	if !ok {
		return
	}
	if _, exists := subs[sub]; !exists {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.active, sub.ChallengeID)
	}
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subs := range h.active {
		n += len(subs)
	}
	return n
}

// Publish delivers entry to subscribers of its challenge and to subscribers
// of every challenge. It never blocks: a subscriber with a full queue is
// dropped.
func (h *Hub) Publish(entry domain.LeaderboardEntry) {
	msg, err := json.Marshal(Event{Type: EventEntry, Entry: &entry})
	if err != nil {
		slog.Error("Failed to encode leaderboard event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, key := range []string{entry.ChallengeID, ""} {
		for sub := range h.active[key] {
			select {
			case sub.ch <- msg:
			default:
				slog.Warn("Dropping slow leaderboard subscriber", "challenge_id", sub.ChallengeID)
				h.removeLocked(sub)
			}
		}
	}
}

// Package notify publishes room-scoped events. The current transport is
// the service log; clients poll for state, and the event stream exists
// so a push transport can be slotted in without touching the services.
package notify

import (
	"context"
	"log"
)

// EventType names a room event.
type EventType string

const (
	// EventMemberEvicted fires when the owner removes a member.
	EventMemberEvicted EventType = "member_evicted"
	// EventGameStarted fires when a game session leaves the lobby.
	EventGameStarted EventType = "game_started"
	// EventRoundAdvanced fires when a game moves to the next round.
	EventRoundAdvanced EventType = "round_advanced"
	// EventGameEnded fires when a game session completes.
	EventGameEnded EventType = "game_ended"
)

// Event is a single room-scoped notification.
type Event struct {
	Type          EventType
	RoomID        string
	MemberID      string
	GameSessionID string
	Round         int
}

// Notifier delivers events to whoever is listening. Delivery is best
// effort; publishing never fails the operation that triggered it.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// LogNotifier writes events to a logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier returns a notifier backed by logger. A nil logger uses
// the default logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Publish logs the event.
func (n *LogNotifier) Publish(_ context.Context, event Event) {
	if n == nil || n.logger == nil {
		return
	}
	switch {
	case event.GameSessionID != "":
		n.logger.Printf("event %s room=%s game=%s round=%d", event.Type, event.RoomID, event.GameSessionID, event.Round)
	default:
		n.logger.Printf("event %s room=%s member=%s", event.Type, event.RoomID, event.MemberID)
	}
}

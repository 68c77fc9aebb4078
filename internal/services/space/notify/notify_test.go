package notify

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
)

func TestLogNotifierPublish(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewLogNotifier(log.New(&buf, "", 0))

	notifier.Publish(context.Background(), Event{
		Type:     EventMemberEvicted,
		RoomID:   "room-1",
		MemberID: "member-1",
	})
	if got := buf.String(); !strings.Contains(got, "member_evicted") || !strings.Contains(got, "member-1") {
		t.Fatalf("unexpected log line %q", got)
	}

	buf.Reset()
	notifier.Publish(context.Background(), Event{
		Type:          EventRoundAdvanced,
		RoomID:        "room-1",
		GameSessionID: "game-1",
		Round:         3,
	})
	if got := buf.String(); !strings.Contains(got, "round_advanced") || !strings.Contains(got, "round=3") {
		t.Fatalf("unexpected log line %q", got)
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var notifier *LogNotifier
	notifier.Publish(context.Background(), Event{Type: EventGameEnded})
}

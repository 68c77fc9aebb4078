package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
	"github.com/kopcaptz/daybookai/internal/services/space/game"
	"github.com/kopcaptz/daybookai/internal/services/space/generation"
	"github.com/kopcaptz/daybookai/internal/services/space/membership"
	"github.com/kopcaptz/daybookai/internal/services/space/storage/sqlite"
	"github.com/kopcaptz/daybookai/internal/services/space/token"
)

type scriptedGenerator struct{}

func (scriptedGenerator) GenerateSituations(context.Context, generation.SituationRequest) ([]generation.Situation, error) {
	return []generation.Situation{{
		Text:     "Plan a surprise evening.",
		CardType: play.CardTypeChoice,
		Options:  []string{"Dinner out", "Home picnic"},
	}}, nil
}

func (scriptedGenerator) GenerateReflection(context.Context, generation.ReflectionRequest) (string, error) {
	return "You both leaned toward comfort.", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "space.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	tokens := token.NewService(codec, store, store, 24*time.Hour)
	members := membership.NewService(store, tokens, nil, []byte("pin-secret"))
	games := game.NewService(store, store, scriptedGenerator{}, nil)

	server := httptest.NewServer(NewHandler(tokens, members, games).Routes())
	t.Cleanup(server.Close)
	return server
}

// call sends a request and decodes the envelope.
func call(t *testing.T, server *httptest.Server, method, path, authToken string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if authToken != "" {
		req.Header.Set(TokenHeader, authToken)
	}

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, envelope
}

func mustCall(t *testing.T, server *httptest.Server, method, path, authToken string, body any) map[string]any {
	t.Helper()
	status, envelope := call(t, server, method, path, authToken, body)
	if status >= 300 || envelope["success"] != true {
		t.Fatalf("%s %s: status %d, envelope %v", method, path, status, envelope)
	}
	return envelope
}

func joinMember(t *testing.T, server *httptest.Server, pin, device, name string) map[string]any {
	t.Helper()
	return mustCall(t, server, http.MethodPost, "/api/space/join", "", map[string]any{
		"pin":          pin,
		"device_id":    device,
		"display_name": name,
	})
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	status, envelope := call(t, server, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK || envelope["success"] != true {
		t.Fatalf("unexpected health response: %d %v", status, envelope)
	}
}

func TestAuthRequired(t *testing.T) {
	server := newTestServer(t)

	status, envelope := call(t, server, http.MethodGet, "/api/space/members", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if envelope["success"] != false || envelope["error"] != "unauthorized" {
		t.Fatalf("unexpected envelope %v", envelope)
	}

	status, _ = call(t, server, http.MethodGet, "/api/space/members", "forged.token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", status)
	}
}

func TestJoinAndRoster(t *testing.T) {
	server := newTestServer(t)

	owner := joinMember(t, server, "4321", "device-a", "Alex")
	if owner["is_owner"] != true {
		t.Fatalf("expected owner, got %v", owner)
	}
	guest := joinMember(t, server, "4321", "device-b", "Sam")
	if guest["room_id"] != owner["room_id"] {
		t.Fatal("expected both joins in one room")
	}

	envelope := mustCall(t, server, http.MethodGet, "/api/space/members", owner["token"].(string), nil)
	members := envelope["members"].([]any)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	// Short PIN is a 400 with the dedicated code.
	status, envelope := call(t, server, http.MethodPost, "/api/space/join", "", map[string]any{
		"pin": "12", "device_id": "d", "display_name": "X",
	})
	if status != http.StatusBadRequest || envelope["error"] != "pin_too_short" {
		t.Fatalf("expected pin_too_short, got %d %v", status, envelope)
	}
}

func TestRoomCapacityOverHTTP(t *testing.T) {
	server := newTestServer(t)

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		joinMember(t, server, "4321", "device-"+name, name)
	}
	status, envelope := call(t, server, http.MethodPost, "/api/space/join", "", map[string]any{
		"pin": "4321", "device_id": "device-late", "display_name": "Late",
	})
	if status != http.StatusConflict || envelope["error"] != "room_full" {
		t.Fatalf("expected room_full, got %d %v", status, envelope)
	}
}

func TestEvictRevokesToken(t *testing.T) {
	server := newTestServer(t)
	owner := joinMember(t, server, "4321", "device-a", "Alex")
	guest := joinMember(t, server, "4321", "device-b", "Sam")

	// The guest cannot evict.
	status, envelope := call(t, server, http.MethodPost,
		fmt.Sprintf("/api/space/members/%s/evict", owner["member_id"]),
		guest["token"].(string), nil)
	if status != http.StatusForbidden || envelope["error"] != "not_authorized" {
		t.Fatalf("expected not_authorized, got %d %v", status, envelope)
	}

	mustCall(t, server, http.MethodPost,
		fmt.Sprintf("/api/space/members/%s/evict", guest["member_id"]),
		owner["token"].(string), nil)

	// The evicted member's token is dead immediately.
	status, _ = call(t, server, http.MethodGet, "/api/space/members", guest["token"].(string), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after evict, got %d", status)
	}
}

func TestFullGameFlowOverHTTP(t *testing.T) {
	server := newTestServer(t)
	picker := joinMember(t, server, "4321", "device-a", "Alex")
	responder := joinMember(t, server, "4321", "device-b", "Sam")
	pickerToken := picker["token"].(string)
	responderToken := responder["token"].(string)

	// Create a level-2 session.
	envelope := mustCall(t, server, http.MethodPost, "/api/space/games", pickerToken, map[string]any{"adult_level": 2})
	session := envelope["session"].(map[string]any)
	gameID := session["id"].(string)
	base := "/api/space/games/" + gameID

	mustCall(t, server, http.MethodPost, base+"/join", responderToken, nil)

	// Start blocks until both consent.
	status, envelope := call(t, server, http.MethodPost, base+"/start", pickerToken, nil)
	if status != http.StatusBadRequest || envelope["error"] != "consent_required" {
		t.Fatalf("expected consent_required, got %d %v", status, envelope)
	}
	mustCall(t, server, http.MethodPost, base+"/consent", pickerToken, map[string]any{
		"boundaries": map[string]any{"no_family": true},
	})
	mustCall(t, server, http.MethodPost, base+"/consent", responderToken, nil)
	envelope = mustCall(t, server, http.MethodPost, base+"/start", pickerToken, nil)
	if envelope["session"].(map[string]any)["status"] != "active" {
		t.Fatalf("expected active session, got %v", envelope)
	}

	// Categories reflect the session level.
	envelope = mustCall(t, server, http.MethodGet, "/api/space/categories?game="+gameID, pickerToken, nil)
	available := map[string]bool{}
	for _, entry := range envelope["categories"].([]any) {
		category := entry.(map[string]any)
		available[category["id"].(string)] = category["available"].(bool)
	}
	if !available["desire"] || available["intimacy"] {
		t.Fatalf("unexpected availability %v", available)
	}

	// Generate, then pick one of the candidates.
	envelope = mustCall(t, server, http.MethodPost, "/api/space/generate", pickerToken, map[string]any{
		"game_session_id": gameID,
		"category":        "desire",
	})
	situation := envelope["situations"].([]any)[0].(map[string]any)
	mustCall(t, server, http.MethodPost, base+"/pick", pickerToken, map[string]any{
		"category":       "desire",
		"situation_text": situation["text"],
		"card_type":      situation["card_type"],
		"options":        situation["options"],
		"picker_answer":  "Home picnic",
	})

	// The responder sees the round with the picker's answer masked.
	envelope = mustCall(t, server, http.MethodGet, base+"/round", responderToken, nil)
	round := envelope["round"].(map[string]any)
	if _, present := round["picker_answer"]; present {
		t.Fatalf("expected masked picker answer, got %v", round)
	}

	mustCall(t, server, http.MethodPost, base+"/respond", responderToken, map[string]any{"answer": "Dinner out"})
	mustCall(t, server, http.MethodPost, base+"/reveal", pickerToken, nil)

	envelope = mustCall(t, server, http.MethodGet, base+"/round", responderToken, nil)
	round = envelope["round"].(map[string]any)
	if round["picker_answer"] != "Home picnic" {
		t.Fatalf("expected revealed answer, got %v", round)
	}

	envelope = mustCall(t, server, http.MethodPost, base+"/reflect", pickerToken, nil)
	if envelope["round"].(map[string]any)["ai_reflection"] != "You both leaned toward comfort." {
		t.Fatalf("unexpected reflection %v", envelope)
	}

	// Next swaps roles; the old responder may pick round two.
	envelope = mustCall(t, server, http.MethodPost, base+"/next", responderToken, nil)
	session = envelope["session"].(map[string]any)
	if session["current_round"] != float64(2) {
		t.Fatalf("expected round 2, got %v", session["current_round"])
	}
	if session["picker_id"] != responder["member_id"] {
		t.Fatalf("expected swapped picker, got %v", session)
	}

	// The new responder lowers the level unilaterally.
	envelope = mustCall(t, server, http.MethodPost, base+"/level", pickerToken, map[string]any{"level": 1})
	if envelope["session"].(map[string]any)["adult_level"] != float64(1) {
		t.Fatalf("expected level 1, got %v", envelope)
	}
	status, envelope = call(t, server, http.MethodPost, base+"/level", pickerToken, map[string]any{"level": 3})
	if status != http.StatusBadRequest || envelope["error"] != "can_only_downshift" {
		t.Fatalf("expected can_only_downshift, got %d %v", status, envelope)
	}

	envelope = mustCall(t, server, http.MethodPost, base+"/end", pickerToken, nil)
	if envelope["session"].(map[string]any)["status"] != "completed" {
		t.Fatalf("expected completed, got %v", envelope)
	}
}

func TestCrossRoomIsolation(t *testing.T) {
	server := newTestServer(t)
	alpha := joinMember(t, server, "4321", "device-a", "Alex")
	bravo := joinMember(t, server, "9876", "device-b", "Sam")

	envelope := mustCall(t, server, http.MethodPost, "/api/space/games", alpha["token"].(string), map[string]any{"adult_level": 0})
	gameID := envelope["session"].(map[string]any)["id"].(string)

	status, envelope := call(t, server, http.MethodGet, "/api/space/games/"+gameID, bravo["token"].(string), nil)
	if status != http.StatusNotFound || envelope["error"] != "session_not_found" {
		t.Fatalf("expected session_not_found across rooms, got %d %v", status, envelope)
	}
}

func TestMalformedBody(t *testing.T) {
	server := newTestServer(t)
	member := joinMember(t, server, "4321", "device-a", "Alex")

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/space/games", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(TokenHeader, member["token"].(string))
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

package httpapi

import (
	"net/http"

	"github.com/kopcaptz/daybookai/internal/services/space/domain/play"
	"github.com/kopcaptz/daybookai/internal/services/space/domain/room"
	"github.com/kopcaptz/daybookai/internal/services/space/game"
	"github.com/kopcaptz/daybookai/internal/services/space/membership"
	"github.com/kopcaptz/daybookai/internal/services/space/token"
)

// Handler serves the private-space HTTP API.
type Handler struct {
	tokens     *token.Service
	membership *membership.Service
	games      *game.Service
}

// NewHandler wires the API over the three services.
func NewHandler(tokens *token.Service, members *membership.Service, games *game.Service) *Handler {
	return &Handler{
		tokens:     tokens,
		membership: members,
		games:      games,
	}
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PIN         string `json:"pin"`
		DeviceID    string `json:"device_id"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.membership.Join(r.Context(), room.JoinInput{
		PIN:         body.PIN,
		DeviceID:    body.DeviceID,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"token":       result.Token,
		"room_id":     result.RoomID,
		"member_id":   result.MemberID,
		"is_owner":    result.IsOwner,
		"channel_key": result.ChannelKey,
	})
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	members, err := h.membership.List(r.Context(), principal.Room.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) handleEvict(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	err := h.membership.Evict(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("memberID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AdultLevel int `json:"adult_level"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	principal := principalFrom(r)
	session, err := h.games.Create(r.Context(), principal.Member.ID, principal.Room.ID, body.AdultLevel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"session": session})
}

func (h *Handler) handleListGames(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	sessions, err := h.games.List(r.Context(), principal.Room.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	session, err := h.games.Get(r.Context(), principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	session, err := h.games.Join(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleConsent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Boundaries play.BoundaryPatch `json:"boundaries"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	principal := principalFrom(r)
	session, err := h.games.SetConsent(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"), body.Boundaries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleLevel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level int `json:"level"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	principal := principalFrom(r)
	session, err := h.games.SetLevel(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"), body.Level)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	session, err := h.games.Start(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GameSessionID string `json:"game_session_id"`
		Category      string `json:"category"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	principal := principalFrom(r)
	situations, err := h.games.Generate(r.Context(), principal.Member.ID, principal.Room.ID, body.GameSessionID, body.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"situations": situations})
}

func (h *Handler) handlePick(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category        string        `json:"category"`
		SituationText   string        `json:"situation_text"`
		CardType        play.CardType `json:"card_type"`
		Options         []string      `json:"options"`
		ValuesQuestions []string      `json:"values_questions"`
		PickerAnswer    string        `json:"picker_answer"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	principal := principalFrom(r)
	round, err := h.games.Pick(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"), game.PickInput{
		CategoryID:      body.Category,
		SituationText:   body.SituationText,
		CardType:        body.CardType,
		Options:         body.Options,
		ValuesQuestions: body.ValuesQuestions,
		PickerAnswer:    body.PickerAnswer,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"round": round})
}

func (h *Handler) handleGetRound(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	round, err := h.games.CurrentRound(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"round": round})
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answer       string `json:"answer"`
		CustomAnswer string `json:"custom_answer"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	principal := principalFrom(r)
	round, err := h.games.Respond(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"), body.Answer, body.CustomAnswer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"round": round})
}

func (h *Handler) handleReveal(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	round, err := h.games.Reveal(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"round": round})
}

func (h *Handler) handleReflect(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	round, err := h.games.Reflect(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"round": round})
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	session, err := h.games.Next(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	round, err := h.games.Skip(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"round": round})
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	session, err := h.games.End(r.Context(), principal.Member.ID, principal.Room.ID, r.PathValue("gameID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	categories, err := h.games.Categories(r.Context(), principal.Room.ID, r.URL.Query().Get("game"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"categories": categories})
}

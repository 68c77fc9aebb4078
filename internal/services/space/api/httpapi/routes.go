package httpapi

import "net/http"

// Routes builds the service mux. Everything under /api/space except join
// requires a verified token.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/space/join", h.handleJoin)

	mux.HandleFunc("GET /api/space/members", h.withAuth(h.handleListMembers))
	mux.HandleFunc("POST /api/space/members/{memberID}/evict", h.withAuth(h.handleEvict))

	mux.HandleFunc("POST /api/space/games", h.withAuth(h.handleCreateGame))
	mux.HandleFunc("GET /api/space/games", h.withAuth(h.handleListGames))
	mux.HandleFunc("GET /api/space/games/{gameID}", h.withAuth(h.handleGetGame))
	mux.HandleFunc("POST /api/space/games/{gameID}/join", h.withAuth(h.handleJoinGame))
	mux.HandleFunc("POST /api/space/games/{gameID}/consent", h.withAuth(h.handleConsent))
	mux.HandleFunc("POST /api/space/games/{gameID}/level", h.withAuth(h.handleLevel))
	mux.HandleFunc("POST /api/space/games/{gameID}/start", h.withAuth(h.handleStart))
	mux.HandleFunc("POST /api/space/games/{gameID}/pick", h.withAuth(h.handlePick))
	mux.HandleFunc("GET /api/space/games/{gameID}/round", h.withAuth(h.handleGetRound))
	mux.HandleFunc("POST /api/space/games/{gameID}/respond", h.withAuth(h.handleRespond))
	mux.HandleFunc("POST /api/space/games/{gameID}/reveal", h.withAuth(h.handleReveal))
	mux.HandleFunc("POST /api/space/games/{gameID}/reflect", h.withAuth(h.handleReflect))
	mux.HandleFunc("POST /api/space/games/{gameID}/next", h.withAuth(h.handleNext))
	mux.HandleFunc("POST /api/space/games/{gameID}/skip", h.withAuth(h.handleSkip))
	mux.HandleFunc("POST /api/space/games/{gameID}/end", h.withAuth(h.handleEnd))

	mux.HandleFunc("POST /api/space/generate", h.withAuth(h.handleGenerate))
	mux.HandleFunc("GET /api/space/categories", h.withAuth(h.handleCategories))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, nil)
	})

	return withTrace(mux)
}

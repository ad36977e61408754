package handlers

import (
	"net/http"

	"github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/services"
)

// ==================== Observer reads ====================

func (h *Handlers) handleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.Rounds.ListRounds(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rounds)
}

func (h *Handlers) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	round, err := h.Rounds.GetRound(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, round)
}

// handleGetActiveRound returns the active round with its clock and seats.
// An empty 204 means no round is in progress.
func (h *Handlers) handleGetActiveRound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	round, err := h.Rounds.GetActiveRound(ctx)
	if errors.Is(err, errors.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Rounds.GetClock(ctx, round.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	state, err := h.Rounds.GetEliminationState(ctx, round.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ActiveRoundResponse{Round: round, Clock: view, Elimination: state})
}

func (h *Handlers) handleGetClock(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	view, err := h.Rounds.GetClock(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, view)
}

func (h *Handlers) handleGetEliminationState(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	state, err := h.Rounds.GetEliminationState(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

func (h *Handlers) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	limit, err := parseIntQuery(r, "limit", 50)
	if err != nil {
		respondError(w, err)
		return
	}
	events, err := h.Rounds.ListEvents(r.Context(), id, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, events)
}

func (h *Handlers) handleListResults(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	results, err := h.Rounds.ListResults(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, results)
}

// ==================== Round lifecycle ====================

func (h *Handlers) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	var req services.CreateRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	round, err := h.Rounds.CreateRound(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, round)
}

func (h *Handlers) handleActivateRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req ActivateRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	round, err := h.Rounds.ActivateRound(r.Context(), id, req.PlayerIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, round)
}

// ==================== Clock ====================

func (h *Handlers) handleStartRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	view, err := h.Rounds.StartRound(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, view)
}

func (h *Handlers) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req PausedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Paused == nil {
		respondError(w, BadRequest("paused is required"))
		return
	}
	view, err := h.Rounds.SetPaused(r.Context(), id, *req.Paused)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, view)
}

func (h *Handlers) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	view, err := h.Rounds.TogglePause(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, view)
}

func (h *Handlers) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req services.SetLevelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	view, err := h.Rounds.SetLevel(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, view)
}

func (h *Handlers) handleAdvanceLevel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	req := AdvanceRequest{Direction: 1}
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	view, changed, err := h.Rounds.AdvanceLevel(r.Context(), id, req.Direction)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, AdvanceResponse{Clock: view, Changed: changed})
}

// ==================== Seats ====================

func (h *Handlers) handleEliminate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req services.EliminateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	result, err := h.Rounds.Eliminate(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// decodePlayer reads the round id and the player named in the body
func decodePlayer(r *http.Request) (int64, int64, error) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	var req PlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, 0, err
	}
	if req.PlayerID <= 0 {
		return 0, 0, BadRequest("player_id is required")
	}
	return id, req.PlayerID, nil
}

func (h *Handlers) handleRebuy(w http.ResponseWriter, r *http.Request) {
	id, playerID, err := decodePlayer(r)
	if err != nil {
		respondError(w, err)
		return
	}
	state, err := h.Rounds.Rebuy(r.Context(), id, playerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

func (h *Handlers) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, playerID, err := decodePlayer(r)
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.Rounds.Restore(r.Context(), id, playerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	playerID, err := parseIDParam(r, "playerID")
	if err != nil {
		respondError(w, err)
		return
	}
	state, err := h.Rounds.RemovePlayer(r.Context(), id, playerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// ==================== Completion ====================

func (h *Handlers) handleProposePayouts(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	dist, err := h.Rounds.ProposePayouts(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, dist)
}

func (h *Handlers) handleCompleteRound(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req services.CompleteRoundRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	results, err := h.Rounds.CompleteRound(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, results)
}

// ==================== Spectator link ====================

func (h *Handlers) handleGetSpectatorURL(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	url, err := h.Rounds.SpectatorURL(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, SpectatorResponse{URL: url})
}

func (h *Handlers) handleGetSpectatorQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	png, err := h.Rounds.SpectatorQR(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

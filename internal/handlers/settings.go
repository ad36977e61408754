package handlers

import (
	"net/http"

	"github.com/abrezinsky/pokerleague/internal/models"
)

func (h *Handlers) handleGetPublicConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := h.Settings.Config(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	interval, err := h.Settings.GetPollInterval(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, PublicConfigResponse{
		PollIntervalSeconds: interval,
		Ladder:              cfg.Ladder,
		RebuyDeadlineLevel:  cfg.RebuyDeadlineLevel,
	})
}

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.GetTournamentSettings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, settings)
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.TournamentSettings
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Settings.UpdateTournamentSettings(r.Context(), req); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Settings updated")
}

func (h *Handlers) handleGetAppSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	baseURL, err := h.Settings.GetBaseURL(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	interval, err := h.Settings.GetPollInterval(ctx)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, AppSettingsResponse{BaseURL: baseURL, PollIntervalSeconds: interval})
}

func (h *Handlers) handleUpdateAppSettings(w http.ResponseWriter, r *http.Request) {
	var req AppSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ctx := r.Context()
	if req.BaseURL != nil {
		if err := h.Settings.SetBaseURL(ctx, *req.BaseURL); err != nil {
			respondError(w, err)
			return
		}
	}
	if req.PollIntervalSeconds != nil {
		if err := h.Settings.SetPollInterval(ctx, *req.PollIntervalSeconds); err != nil {
			respondError(w, err)
			return
		}
	}
	respondSuccess(w, "Settings updated")
}

// ==================== Rankings ====================

func (h *Handlers) handleGetRankings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.Rankings.GetRankings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, standings)
}

func (h *Handlers) handleGetQualifiers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Rankings.GetQualifiers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	respondOK(w, QualifiersResponse{PlayerIDs: ids})
}

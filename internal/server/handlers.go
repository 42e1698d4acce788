package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/knoguchi/talentrank/internal/auth"
	"github.com/knoguchi/talentrank/internal/memory"
	"github.com/knoguchi/talentrank/internal/service"
)

const maxRequestBody = 1 << 20

// Ranker is the ranking pipeline as seen by the HTTP layer.
type Ranker interface {
	Rank(ctx context.Context, req service.RankRequest) (*service.RankResult, error)
	Suggestions(ctx context.Context, ownerID uuid.UUID) (*service.Suggestions, error)
}

type rankingHandlers struct {
	ranker Ranker
	logger *slog.Logger
}

// rankRequest is the POST /rank-candidates body.
type rankRequest struct {
	Query               string         `json:"query"`
	JobID               *string        `json:"jobId"`
	ConversationHistory memory.History `json:"conversationHistory"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *rankingHandlers) rank(w http.ResponseWriter, r *http.Request) {
	var body rankRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	req := service.RankRequest{
		Query:   body.Query,
		History: body.ConversationHistory,
	}
	if body.JobID != nil && strings.TrimSpace(*body.JobID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*body.JobID))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid jobId", Details: err.Error()})
			return
		}
		req.JobID = &id
	}

	result, err := h.ranker.Rank(r.Context(), req)
	if err != nil {
		h.writeRankError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *rankingHandlers) writeRankError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Search query is required"})
	case errors.Is(err, service.ErrConfiguration):
		h.logger.Error("ranking service misconfigured", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Ranking service not configured.", Details: err.Error()})
	default:
		h.logger.Error("ranking failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
	}
}

func (h *rankingHandlers) suggestions(w http.ResponseWriter, r *http.Request) {
	var owner uuid.UUID
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		owner = p.UserID
	}

	out, err := h.ranker.Suggestions(r.Context(), owner)
	if err != nil {
		h.logger.Error("loading suggestions failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, out)
}

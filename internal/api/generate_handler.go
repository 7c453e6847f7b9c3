package api

import (
	"context"
	"fmt"
	"net/http"

	"drafter/client/internal/backend"
	app_errors "drafter/client/internal/errors"
)

// HandleGenerate godoc
// @Summary      Draft a document in one shot
// @Description  Starts a fresh unbound conversation and streams the generated markdown into it. Progress is pushed over /v1/events.
// @Tags         Generate
// @Accept       json
// @Produce      json
// @Param        request  body  GenerateRequest  true  "Drafting request"
// @Success      202  {object}  TurnResponse
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /v1/generate [post]
func (h *ChatHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	turn, err := h.chat.Generate(context.WithoutCancel(r.Context()), backend.GenerateRequest{
		Prompt:       req.Prompt,
		CompanyName:  req.CompanyName,
		Jurisdiction: req.Jurisdiction,
		Tone:         req.Tone,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	if turn == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondWithJSON(w, http.StatusAccepted, newTurnResponse(turn))
}

// GetDraftTurn godoc
// @Summary      Running draft
// @Tags         Generate
// @Produce      json
// @Success      200  {object}  TurnResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/generate [get]
func (h *ChatHandler) GetDraftTurn(w http.ResponseWriter, r *http.Request) {
	turn, ok := h.chat.ActiveTurn("")
	if !ok {
		respondWithError(w, fmt.Errorf("%w: no draft running", app_errors.ErrNotFound))
		return
	}
	respondWithJSON(w, http.StatusOK, newTurnResponse(turn))
}

// HandleAbortDraft godoc
// @Summary      Abort the running draft
// @Tags         Generate
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/generate [delete]
func (h *ChatHandler) HandleAbortDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.Abort(""); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "aborted"})
}

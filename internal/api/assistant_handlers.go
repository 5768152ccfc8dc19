package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/feitime/storefront/internal/assistant"
	"github.com/feitime/storefront/internal/models"
)

// AssistantTurnResponse is the result payload for POST /api/assistant/turn.
type AssistantTurnResponse struct {
	Answer   string               `json:"answer"`
	Products []models.CatalogItem `json:"products,omitempty"`
	Debug    *assistant.TurnDebug `json:"debug,omitempty"`
}

// assistantTurnHandler handles POST /api/assistant/turn. The engine is
// deterministic and cheap; only the generation call can fail, and when it
// does the shopper still gets a usable apology answer.
func (s *Server) assistantTurnHandler(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		slog.Error("assistantTurnHandler: generation client not configured")
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Assistant is not configured"))
		return
	}

	var req models.AssistantTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("assistantTurnHandler: invalid JSON payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Error("assistantTurnHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	turn := s.engine.HandleTurn(r.Context(), req.Question, req.History)

	answer, err := s.generator.GeneratePrompt(r.Context(), turn.SystemInstructions, turn.UserInstructions)
	if err != nil {
		slog.Error("assistantTurnHandler: generation failed", "error", err, "stage", turn.Debug.Stage)
		resp := AssistantTurnResponse{Answer: assistant.FallbackAnswer}
		if s.debugPayload {
			resp.Debug = &turn.Debug
		}
		writeJSONResponse(w, http.StatusInternalServerError, models.APIResponse{
			Status:  string(models.APIStatusError),
			Message: "Text generation failed",
			Result:  resp,
		})
		return
	}

	resp := AssistantTurnResponse{
		Answer:   strings.TrimSpace(answer),
		Products: turn.Products,
	}
	if s.debugPayload {
		resp.Debug = &turn.Debug
	}
	slog.Debug("assistantTurnHandler: turn completed", "stage", turn.Debug.Stage, "products", len(turn.Products))
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

package controllers

import (
	"net/http"

	"socialpost/app/middleware"
	"socialpost/app/models"
	"socialpost/app/services"

	"github.com/sirupsen/logrus"
)

// GenerationController turns product prompts into draft posts
type GenerationController struct {
	generation *services.GenerationService
	ledger     *services.CreditLedger
	log        logrus.FieldLogger
}

// NewGenerationController creates a new GenerationController
func NewGenerationController(generation *services.GenerationService, ledger *services.CreditLedger, log logrus.FieldLogger) *GenerationController {
	return &GenerationController{generation: generation, ledger: ledger, log: log}
}

type generationResponse struct {
	*models.GenerationResult
	CreditsRemaining int `json:"creditsRemaining"`
}

// Generate runs a generation request. Without a requestId in the body the
// X-Request-ID header is used, so client retries are charged once.
func (gc *GenerationController) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if err := decodeJSON(r, &req); err != nil {
		sendServiceError(w, r, gc.log, err)
		return
	}
	if req.RequestID == "" && r.Header.Get(middleware.RequestIDHeader) != "" {
		req.RequestID = middleware.RequestIDFrom(r.Context())
	}
	result, err := gc.generation.Generate(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, gc.log, err)
		return
	}
	sendJSON(w, http.StatusCreated, generationResponse{GenerationResult: result, CreditsRemaining: gc.ledger.Balance()})
}

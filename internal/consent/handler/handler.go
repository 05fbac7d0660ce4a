package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"physioflow/internal/consent/banner"
	"physioflow/internal/consent/models"
	"physioflow/internal/platform/middleware"
	respond "physioflow/internal/transport/http/json"
	"physioflow/internal/transport/http/shared"
	dErrors "physioflow/pkg/domain-errors"
	"physioflow/pkg/validation"
)

// Service defines the interface for consent operations.
type Service interface {
	Current(ctx context.Context, clientID string) (*models.Record, error)
	Decide(ctx context.Context, clientID string, flags models.CategoryFlags, action models.Action) (*models.Record, error)
	Clear(ctx context.Context, clientID string) error
}

// Handler handles the consent endpoints.
type Handler struct {
	logger           *slog.Logger
	consent          Service
	privacyPolicyURL string
	bannerDelay      time.Duration
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger, privacyPolicyURL string, bannerDelay time.Duration) *Handler {
	if bannerDelay <= 0 {
		bannerDelay = banner.DefaultDisplayDelay
	}
	return &Handler{
		logger:           logger,
		consent:          consent,
		privacyPolicyURL: privacyPolicyURL,
		bannerDelay:      bannerDelay,
	}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/consent", h.handleGetConsent)
	r.Post("/consent", h.handleDecide)
	r.Delete("/consent", h.handleClear)
	r.Get("/consent/settings", h.handleGetSettings)
}

// handleGetConsent reports the client's stored decision, or the undecided
// state when none exists. It never 404s: "no decision yet" is a normal state
// the frontend polls for.
func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := middleware.GetClientID(ctx)

	record, err := h.consent.Current(ctx, clientID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read consent state",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, newStateResponse(record))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	clientID := middleware.GetClientID(ctx)

	var req models.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode consent decision request",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid consent decision request",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	record, err := h.consent.Decide(ctx, clientID, req.Flags(), req.Action)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record consent decision",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, DecisionResponse{
		State:   newStateResponse(record),
		Message: "consent decision recorded",
	})
}

// handleClear is the "withdraw consent" action from the privacy settings
// page. The client returns to the undecided state and the banner shows again
// on the next visit.
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := middleware.GetClientID(ctx)

	if err := h.consent.Clear(ctx, clientID); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear consent",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, SettingsResponse{
		Categories:       categoryDescriptions(),
		PrivacyPolicyURL: h.privacyPolicyURL,
		BannerDelayMs:    h.bannerDelay.Milliseconds(),
	})
}

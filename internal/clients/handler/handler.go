package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bgv/internal/clients/models"
	"bgv/internal/clients/service"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/httputil"
	"bgv/pkg/requestcontext"
)

// Service defines the client operations the handler needs.
type Service interface {
	Onboard(ctx context.Context, cmd service.OnboardCommand) (*models.Client, error)
	Get(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	UpdatePolicy(ctx context.Context, clientID id.ClientID, settings models.Settings) (*models.Client, error)
}

// Handler wires client onboarding endpoints to the client service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts client endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/clients", h.HandleOnboard)
	r.Get("/clients/{clientID}", h.HandleGet)
	r.Put("/clients/{clientID}/policy", h.HandleUpdatePolicy)
}

// HandleOnboard handles POST /clients.
func (h *Handler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[OnboardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	client, err := h.service.Onboard(ctx, service.OnboardCommand{
		CompanyName: req.CompanyName,
		Settings:    req.Settings(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "client onboarding failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, client)
}

// HandleGet handles GET /clients/{clientID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	client, err := h.service.Get(r.Context(), clientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

// HandleUpdatePolicy handles PUT /clients/{clientID}/policy.
func (h *Handler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[PolicyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	client, err := h.service.UpdatePolicy(ctx, clientID, req.Settings())
	if err != nil {
		h.logger.WarnContext(ctx, "client policy update failed",
			"request_id", requestID,
			"client_id", clientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

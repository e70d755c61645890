package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bgv/internal/checks/models"
	"bgv/internal/checks/service"
	cmodels "bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/platform/httputil"
	"bgv/pkg/requestcontext"
)

// Service defines the check and case operations the handler needs.
type Service interface {
	Classify(ctx context.Context, cmd service.ClassifyCommand) (*service.ClassifyOutcome, error)
	Review(ctx context.Context, cmd service.ReviewCommand) (*models.Check, error)
	GetCheck(ctx context.Context, checkID id.CheckID) (*models.Check, error)
	LatestResult(ctx context.Context, checkID id.CheckID) (*cmodels.ComparisonResult, error)
	History(ctx context.Context, checkID id.CheckID) (*models.History, error)
	CreateCase(ctx context.Context, cmd service.CreateCaseCommand) (*service.CaseView, error)
	ListCaseChecks(ctx context.Context, caseID id.CaseID) (*service.CaseView, error)
	ClassifyCase(ctx context.Context, caseID id.CaseID, inputs map[id.CheckID]service.CheckInput) (*service.CaseRun, error)
}

// Handler exposes classification, review and case endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts check and case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/checks/{checkID}", h.HandleGetCheck)
	r.Post("/checks/{checkID}/classify", h.HandleClassify)
	r.Post("/checks/{checkID}/review", h.HandleReview)
	r.Get("/checks/{checkID}/result", h.HandleLatestResult)
	r.Get("/checks/{checkID}/history", h.HandleHistory)
	r.Post("/cases", h.HandleCreateCase)
	r.Get("/cases/{caseID}", h.HandleGetCase)
	r.Post("/cases/{caseID}/classify", h.HandleClassifyCase)
	r.Get("/rules", h.HandleListRules)
}

type classifyResponse struct {
	CheckID    id.CheckID               `json:"checkId"`
	State      models.CheckState        `json:"state"`
	Status     models.Status            `json:"status"`
	Supersedes *id.CheckID              `json:"supersedes,omitempty"`
	Result     cmodels.ComparisonResult `json:"comparisonResult"`
}

func newClassifyResponse(out *service.ClassifyOutcome) classifyResponse {
	return classifyResponse{
		CheckID:    out.Check.ID,
		State:      out.Check.State,
		Status:     out.Check.Status(),
		Supersedes: out.Superseded,
		Result:     out.Result,
	}
}

// HandleClassify handles POST /checks/{checkID}/classify.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	checkID, err := id.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ClassifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	out, err := h.service.Classify(ctx, req.Command(checkID))
	if err != nil {
		h.logger.WarnContext(ctx, "classification failed",
			"request_id", requestID,
			"check_id", checkID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if out.Superseded != nil {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, newClassifyResponse(out))
}

// HandleReview handles POST /checks/{checkID}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	checkID, err := id.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	check, err := h.service.Review(ctx, service.ReviewCommand{
		CheckID:    checkID,
		Decision:   models.Decision(req.Decision),
		Notes:      req.Notes,
		ReviewedBy: req.ReviewedBy,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "review refused",
			"request_id", requestID,
			"check_id", checkID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

// HandleGetCheck handles GET /checks/{checkID}.
func (h *Handler) HandleGetCheck(w http.ResponseWriter, r *http.Request) {
	checkID, err := id.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	check, err := h.service.GetCheck(r.Context(), checkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

// HandleLatestResult handles GET /checks/{checkID}/result.
func (h *Handler) HandleLatestResult(w http.ResponseWriter, r *http.Request) {
	checkID, err := id.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.LatestResult(r.Context(), checkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleHistory handles GET /checks/{checkID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	checkID, err := id.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.service.History(r.Context(), checkID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

// HandleCreateCase handles POST /cases.
func (h *Handler) HandleCreateCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	cmd, err := req.Command()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.CreateCase(ctx, cmd)
	if err != nil {
		h.logger.WarnContext(ctx, "case creation failed",
			"request_id", requestID,
			"client_id", cmd.ClientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

// HandleGetCase handles GET /cases/{caseID}.
func (h *Handler) HandleGetCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.ListCaseChecks(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

type checkRunResponse struct {
	CheckID          id.CheckID        `json:"checkId"`
	Result           *classifyResponse `json:"result,omitempty"`
	Error            string            `json:"error,omitempty"`
	ErrorDescription string            `json:"error_description,omitempty"`
}

type caseRunResponse struct {
	Case   *models.Case       `json:"case"`
	Checks []checkRunResponse `json:"checks"`
}

// HandleClassifyCase handles POST /cases/{caseID}/classify. Per-check
// failures are reported inline and do not fail the request.
func (h *Handler) HandleClassifyCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ClassifyCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	inputs, err := req.Inputs()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	run, err := h.service.ClassifyCase(ctx, caseID, inputs)
	if err != nil {
		h.logger.WarnContext(ctx, "case classification failed",
			"request_id", requestID,
			"case_id", caseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := caseRunResponse{Case: run.Case, Checks: make([]checkRunResponse, len(run.Runs))}
	for i, cr := range run.Runs {
		item := checkRunResponse{CheckID: cr.CheckID}
		if cr.Err != nil {
			item.Error = string(dErrors.CodeInternal)
			if de, ok := dErrors.As(cr.Err); ok {
				item.Error = string(de.Code)
				if de.Code != dErrors.CodeInternal {
					item.ErrorDescription = de.Message
				}
			}
		} else {
			res := newClassifyResponse(cr.Outcome)
			item.Result = &res
		}
		resp.Checks[i] = item
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type ruleResponse struct {
	ID          rules.ID `json:"id"`
	Phase       string   `json:"phase"`
	Description string   `json:"description"`
}

// HandleListRules handles GET /rules.
func (h *Handler) HandleListRules(w http.ResponseWriter, _ *http.Request) {
	catalog := rules.Catalog()
	out := make([]ruleResponse, len(catalog))
	for i, rule := range catalog {
		out[i] = ruleResponse{ID: rule.ID(), Phase: rule.Phase().String(), Description: rule.Description()}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"rules": out})
}

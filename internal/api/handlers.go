/**
 * @description
 * This file contains the HTTP handlers for the campaign lifecycle endpoints:
 * approve, reject, request-verification, submit-evidence and the generic
 * status override. Handlers parse the request, call the application service
 * and map its sentinel errors onto distinct client-facing status codes;
 * internal failures surface as a generic 500 without leaking details.
 *
 * @dependencies
 * - internal/app, internal/domain, internal/store: For service logic,
 *   models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fundflow/campaign-service/internal/app"
	"github.com/fundflow/campaign-service/internal/domain"
	"github.com/fundflow/campaign-service/internal/store"
)

// CampaignHandlers holds the application service that handlers will use.
type CampaignHandlers struct {
	service *app.Service
	logger  *slog.Logger
}

// NewCampaignHandlers creates a new instance of CampaignHandlers.
func NewCampaignHandlers(service *app.Service, logger *slog.Logger) *CampaignHandlers {
	return &CampaignHandlers{service: service, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *CampaignHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *CampaignHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps application and store sentinels onto client-facing
// status codes.
func (h *CampaignHandlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidDonationAmount),
		errors.Is(err, app.ErrInvalidHistoryGrouping):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrCampaignNotFound),
		errors.Is(err, store.ErrDonationNotFound),
		errors.Is(err, store.ErrVerificationRequestNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrNotificationNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrNotCampaignOwner):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrDuplicateDonation),
		errors.Is(err, store.ErrOpenVerificationRequest),
		errors.Is(err, app.ErrInvalidStatusTransition),
		errors.Is(err, app.ErrCampaignClosed):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// campaignIDParam parses the {campaignID} URL parameter.
func campaignIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "campaignID"), 10, 64)
}

// ApproveCampaignHandler handles POST /campaigns/{campaignID}/approve.
func (h *CampaignHandlers) ApproveCampaignHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := h.service.ApproveCampaign(r.Context(), actorID, campaignID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, campaign)
}

type rejectCampaignRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// RejectCampaignHandler handles POST /campaigns/{campaignID}/reject.
func (h *CampaignHandlers) RejectCampaignHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req rejectCampaignRequest
	if r.Body != nil {
		// Body is optional for rejections without a reason.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	campaign, err := h.service.RejectCampaign(r.Context(), actorID, campaignID, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, campaign)
}

type updateStatusRequest struct {
	Status domain.CampaignStatus `json:"status"`
}

// UpdateCampaignStatusHandler handles PUT /campaigns/{campaignID}/status.
func (h *CampaignHandlers) UpdateCampaignStatusHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		h.writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	campaign, err := h.service.UpdateCampaignStatus(r.Context(), actorID, campaignID, req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, campaign)
}

type requestVerificationRequest struct {
	Message string  `json:"message"`
	Reason  *string `json:"reason,omitempty"`
}

// RequestVerificationHandler handles POST /campaigns/{campaignID}/request-verification.
func (h *CampaignHandlers) RequestVerificationHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req requestVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	request, err := h.service.RequestVerification(r.Context(), actorID, campaignID, req.Message, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, request)
}

type submitEvidenceRequest struct {
	Description  string   `json:"description"`
	DocumentURLs []string `json:"document_urls,omitempty"`
}

// OpenVerificationRequestHandler handles GET /campaigns/{campaignID}/verification.
func (h *CampaignHandlers) OpenVerificationRequestHandler(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	request, err := h.service.OpenVerificationRequest(r.Context(), campaignID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, request)
}

// CampaignAuditLogHandler handles GET /campaigns/{campaignID}/audit-log.
func (h *CampaignHandlers) CampaignAuditLogHandler(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.service.CampaignAuditLog(r.Context(), campaignID, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// SubmitEvidenceHandler handles POST /campaigns/{campaignID}/evidence.
func (h *CampaignHandlers) SubmitEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req submitEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		h.writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	response, err := h.service.SubmitEvidence(r.Context(), actorID, campaignID, req.Description, req.DocumentURLs)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, response)
}

// CampaignCreatedHandler handles POST /campaigns/{campaignID}/created, the
// badge hook invoked after campaign creation.
func (h *CampaignHandlers) CampaignCreatedHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if err := h.service.RegisterCampaignCreated(r.Context(), actorID, campaignID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

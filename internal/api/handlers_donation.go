/**
 * @description
 * This file contains the HTTP handlers for the donation ledger read and
 * write endpoints: donation creation, the gap-filled donation history and
 * the per-campaign financial report.
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundflow/campaign-service/internal/domain"
)

// CreateDonationHandler handles POST /donations.
func (h *CampaignHandlers) CreateDonationHandler(w http.ResponseWriter, r *http.Request) {
	donorID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req domain.CreateDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CampaignID == 0 {
		h.writeError(w, http.StatusBadRequest, "campaign_id is required")
		return
	}

	donation, err := h.service.CreateDonation(r.Context(), donorID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, donation)
}

// GetDonationHandler handles GET /donations/{donationID}.
func (h *CampaignHandlers) GetDonationHandler(w http.ResponseWriter, r *http.Request) {
	donationID, err := strconv.ParseInt(chi.URLParam(r, "donationID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid donation id")
		return
	}

	donation, err := h.service.GetDonation(r.Context(), donationID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, donation)
}

// ListDonationsHandler handles GET /campaigns/{campaignID}/donations.
func (h *CampaignHandlers) ListDonationsHandler(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	donations, err := h.service.ListDonations(r.Context(), campaignID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if donations == nil {
		donations = []domain.Donation{}
	}
	h.writeJSON(w, http.StatusOK, donations)
}

// DonationHistoryHandler handles GET /campaigns/{campaignID}/donations/history.
// Query parameters: group_by (day|week|month, required), start_date and
// end_date (RFC 3339, optional).
func (h *CampaignHandlers) DonationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	opts := domain.HistoryOptions{
		GroupBy: domain.HistoryGroupBy(r.URL.Query().Get("group_by")),
	}
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "start_date must be RFC 3339")
			return
		}
		opts.StartDate = start
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "end_date must be RFC 3339")
			return
		}
		opts.EndDate = end
	}

	buckets, err := h.service.DonationHistory(r.Context(), campaignID, opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, buckets)
}

// FinancialReportHandler handles GET /campaigns/{campaignID}/financial-report.
func (h *CampaignHandlers) FinancialReportHandler(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	report, err := h.service.FinancialReport(r.Context(), campaignID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

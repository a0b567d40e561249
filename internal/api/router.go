/**
 * @description
 * This file sets up the HTTP router for the campaign-service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, timeouts, authentication
 * and admin gating.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/prometheus/client_golang: Metrics exposition on /metrics.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CampaignRoutes creates and returns a new router for the campaign service.
func CampaignRoutes(h *CampaignHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check and metrics endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Donation ledger endpoints
		r.Post("/donations", h.CreateDonationHandler)
		r.Get("/donations/{donationID}", h.GetDonationHandler)
		r.Get("/campaigns/{campaignID}/donations", h.ListDonationsHandler)
		r.Get("/campaigns/{campaignID}/donations/history", h.DonationHistoryHandler)
		r.Get("/campaigns/{campaignID}/financial-report", h.FinancialReportHandler)

		// Campaign owner endpoints
		r.Post("/campaigns/{campaignID}/evidence", h.SubmitEvidenceHandler)
		r.Post("/campaigns/{campaignID}/created", h.CampaignCreatedHandler)

		// Notification feed and badge endpoints
		r.Get("/badges", h.ListUserBadgesHandler)
		r.Get("/notifications", h.ListNotificationsHandler)
		r.Get("/notifications/unread-count", h.UnreadCountHandler)
		r.Put("/notifications/{notificationID}/read", h.MarkNotificationReadHandler)

		// Admin lifecycle endpoints
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Post("/campaigns/{campaignID}/approve", h.ApproveCampaignHandler)
			r.Post("/campaigns/{campaignID}/reject", h.RejectCampaignHandler)
			r.Post("/campaigns/{campaignID}/request-verification", h.RequestVerificationHandler)
			r.Get("/campaigns/{campaignID}/verification", h.OpenVerificationRequestHandler)
			r.Get("/campaigns/{campaignID}/audit-log", h.CampaignAuditLogHandler)
			r.Put("/campaigns/{campaignID}/status", h.UpdateCampaignStatusHandler)
		})
	})

	return r
}

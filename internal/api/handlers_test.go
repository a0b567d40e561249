package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fundflow/campaign-service/internal/app"
	"github.com/fundflow/campaign-service/internal/store"
)

func testHandlers() *CampaignHandlers {
	return NewCampaignHandlers(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWriteServiceError_StatusMapping(t *testing.T) {
	h := testHandlers()

	cases := []struct {
		err  error
		want int
	}{
		{app.ErrInvalidDonationAmount, http.StatusBadRequest},
		{app.ErrInvalidHistoryGrouping, http.StatusBadRequest},
		{store.ErrCampaignNotFound, http.StatusNotFound},
		{store.ErrDonationNotFound, http.StatusNotFound},
		{store.ErrVerificationRequestNotFound, http.StatusNotFound},
		{store.ErrUserNotFound, http.StatusNotFound},
		{store.ErrNotificationNotFound, http.StatusNotFound},
		{app.ErrNotCampaignOwner, http.StatusForbidden},
		{store.ErrDuplicateDonation, http.StatusConflict},
		{store.ErrOpenVerificationRequest, http.StatusConflict},
		{app.ErrInvalidStatusTransition, http.StatusConflict},
		{app.ErrCampaignClosed, http.StatusConflict},
		{errors.New("pool exhausted"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.writeServiceError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("writeServiceError(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}

		var body errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decoding error body: %v", err)
		}
		if body.Error == "" {
			t.Errorf("writeServiceError(%v) produced an empty error body", tc.err)
		}
	}
}

func TestWriteServiceError_WrappedErrorsStillMap(t *testing.T) {
	h := testHandlers()

	rec := httptest.NewRecorder()
	h.writeServiceError(rec, errors.Join(errors.New("context"), store.ErrCampaignNotFound))
	if rec.Code != http.StatusNotFound {
		t.Errorf("wrapped not-found = %d, want 404", rec.Code)
	}
}

func TestWriteServiceError_InternalHidesDetail(t *testing.T) {
	h := testHandlers()

	rec := httptest.NewRecorder()
	h.writeServiceError(rec, errors.New("pq: connection refused at 10.0.0.3"))

	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error != "internal error" {
		t.Errorf("internal errors must not leak, got %q", body.Error)
	}
}

// withRouteParams injects chi URL parameters so a handler can be exercised
// without a full router.
func withRouteParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withIdentity(r *http.Request, userID int64, role string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	return r.WithContext(ctx)
}

func TestApproveCampaignHandler_InvalidCampaignID(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPost, "/campaigns/abc/approve", nil)
	req = withIdentity(req, 1, RoleAdmin)
	req = withRouteParams(req, map[string]string{"campaignID": "abc"})

	rec := httptest.NewRecorder()
	h.ApproveCampaignHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestApproveCampaignHandler_MissingIdentity(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPost, "/campaigns/1/approve", nil)
	req = withRouteParams(req, map[string]string{"campaignID": "1"})

	rec := httptest.NewRecorder()
	h.ApproveCampaignHandler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUpdateCampaignStatusHandler_RequiresStatus(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPut, "/campaigns/1/status", strings.NewReader(`{}`))
	req = withIdentity(req, 1, RoleAdmin)
	req = withRouteParams(req, map[string]string{"campaignID": "1"})

	rec := httptest.NewRecorder()
	h.UpdateCampaignStatusHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRequestVerificationHandler_RequiresMessage(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPost, "/campaigns/1/request-verification", strings.NewReader(`{"message":""}`))
	req = withIdentity(req, 1, RoleAdmin)
	req = withRouteParams(req, map[string]string{"campaignID": "1"})

	rec := httptest.NewRecorder()
	h.RequestVerificationHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateDonationHandler_RequiresCampaignID(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPost, "/donations", strings.NewReader(`{"amount":"10"}`))
	req = withIdentity(req, 20, "user")

	rec := httptest.NewRecorder()
	h.CreateDonationHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDonationHistoryHandler_RejectsBadDates(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/campaigns/1/donations/history?group_by=day&start_date=March+2nd", nil)
	req = withIdentity(req, 20, "user")
	req = withRouteParams(req, map[string]string{"campaignID": "1"})

	rec := httptest.NewRecorder()
	h.DonationHistoryHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSubmitEvidenceHandler_RequiresDescription(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPost, "/campaigns/1/evidence", strings.NewReader(`{"document_urls":["https://docs/1"]}`))
	req = withIdentity(req, 1, "user")
	req = withRouteParams(req, map[string]string{"campaignID": "1"})

	rec := httptest.NewRecorder()
	h.SubmitEvidenceHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

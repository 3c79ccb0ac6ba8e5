package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/datastore"
	"github.com/tradesentry/fraudwatch-go/internal/notification"
	"github.com/tradesentry/fraudwatch-go/internal/workflow"
)

type nopDispatcher struct{}

func (nopDispatcher) Name() string                                     { return "nop" }
func (nopDispatcher) Send(context.Context, *notification.Alert) error { return nil }

func newTestAPI(t *testing.T) *Controller {
	t.Helper()

	settings := &conf.Settings{
		Thresholds: conf.ThresholdSettings{
			AnnouncementVerified:   70,
			AnnouncementFraudulent: 30,
			TipSuspicious:          70,
			TipLegitimate:          30,
		},
		Workflow: conf.WorkflowSettings{MaxSubmitRetries: 3},
	}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = ":memory:"

	ds := datastore.New(settings)
	require.NotNil(t, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	wf := workflow.New(ds, nopDispatcher{}, settings)
	c := New(echo.New(), ds, wf, settings)
	t.Cleanup(c.Shutdown)
	return c
}

func doRequest(c *Controller, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createAnnouncementViaAPI(t *testing.T, c *Controller) AnnouncementResponse {
	t.Helper()
	rec := doRequest(c, http.MethodPost, "/api/v1/announcements",
		`{"companyId":"ACME","companyName":"Acme Corp","title":"Quarterly results","body":"Revenue grew 4%."}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[AnnouncementResponse](t, rec)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)

	rec := doRequest(c, http.MethodGet, "/api/v1/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetAnnouncement(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)

	created := createAnnouncementViaAPI(t, c)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "pending", string(created.Status))
	assert.Nil(t, created.CredibilityScore)
	assert.Equal(t, uint(0), created.Revision)

	rec := doRequest(c, http.MethodGet, "/api/v1/announcements/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[AnnouncementResponse](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Acme Corp", got.CompanyName)
}

func TestGetAnnouncementNotFound(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)

	rec := doRequest(c, http.MethodGet, "/api/v1/announcements/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.NotEmpty(t, resp.CorrelationID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateAnnouncementValidation(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)

	rec := doRequest(c, http.MethodPost, "/api/v1/announcements", `{"title":"missing company"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitEvidenceRescores(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)
	created := createAnnouncementViaAPI(t, c)

	rec := doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/evidence",
		`{"method":"counter-party-verification","delta":{"counterParty":"confirmed"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[AnnouncementResponse](t, rec)
	require.NotNil(t, got.CredibilityScore)
	assert.Equal(t, 70, *got.CredibilityScore)
	assert.Equal(t, "verified", string(got.Status))
	assert.Equal(t, uint(1), got.Revision)
}

func TestSubmitEvidenceUnknownMethod(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)
	created := createAnnouncementViaAPI(t, c)

	rec := doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/evidence",
		`{"method":"palm-reading"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyWithStatusOverride(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)
	created := createAnnouncementViaAPI(t, c)

	rec := doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/verify",
		`{"status":"fraudulent","notes":"fabricated filing references"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[AnnouncementResponse](t, rec)
	assert.Equal(t, "fraudulent", string(got.Status))

	// The override is not available to automated methods.
	rec = doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/evidence",
		`{"method":"content-analysis","status":"verified"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScorePreviewDoesNotPersist(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)
	created := createAnnouncementViaAPI(t, c)

	rec := doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/score/preview",
		`{"counterParty":"contradicted"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[ScorePreviewResponse](t, rec)
	assert.Equal(t, 20, preview.Score)
	assert.Equal(t, "fraudulent", preview.Status)

	rec = doRequest(c, http.MethodGet, "/api/v1/announcements/"+created.ID+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[HistoryResponse](t, rec)
	assert.Empty(t, history.Events)
}

func TestHistoryAccumulates(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)
	created := createAnnouncementViaAPI(t, c)

	for _, body := range []string{
		`{"method":"content-analysis","delta":{"content":{"precise":true,"detailed":true}}}`,
		`{"method":"historical-filing-check","delta":{"historical":{"performanceConsistency":"true"}}}`,
	} {
		rec := doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/evidence", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doRequest(c, http.MethodGet, "/api/v1/announcements/"+created.ID+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[HistoryResponse](t, rec)
	require.Len(t, history.Events, 2)
	assert.Equal(t, "content-analysis", string(history.Events[0].Method))
	assert.Equal(t, "historical-filing-check", string(history.Events[1].Method))
}

func TestAlertEndpoints(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)
	created := createAnnouncementViaAPI(t, c)

	// Alerts require a fraudulent classification first.
	rec := doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/alerts",
		`{"message":"suspicious","recipients":["desk"]}`)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/verify",
		`{"status":"fraudulent"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/alerts",
		`{"message":"Announcement classified as fraudulent","recipients":["desk","compliance"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alert := decode[AlertResponse](t, rec)
	assert.Equal(t, "sent", alert.Status)

	rec = doRequest(c, http.MethodGet, "/api/v1/announcements/"+created.ID+"/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]AlertResponse](t, rec)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.ID, alerts[0].ID)

	rec = doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/alerts",
		`{"message":"","recipients":["desk"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheInvalidationOnEvidence(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)
	created := createAnnouncementViaAPI(t, c)

	// Prime the cache.
	rec := doRequest(c, http.MethodGet, "/api/v1/announcements/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(c, http.MethodPost, "/api/v1/announcements/"+created.ID+"/evidence",
		`{"method":"content-analysis"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(c, http.MethodGet, "/api/v1/announcements/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[AnnouncementResponse](t, rec)
	require.NotNil(t, got.CredibilityScore, "stale cache entry served after evidence submission")
	assert.Equal(t, uint(1), got.Revision)
}

func TestTipLifecycle(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)

	rec := doRequest(c, http.MethodPost, "/api/v1/tips",
		`{"platform":"twitter","authorHandle":"@guru","content":"Guaranteed returns, act now!"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tip := decode[TipResponse](t, rec)
	assert.Equal(t, "pending", string(tip.Status))

	rec = doRequest(c, http.MethodPost, "/api/v1/tips/"+tip.ID+"/evidence",
		`{"method":"content-analysis","delta":{"authorVerified":false,"accountAgeDays":5}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[TipResponse](t, rec)
	require.NotNil(t, got.SuspicionScore)
	// 30 baseline + 20 young account + 25 pressure phrasing.
	assert.Equal(t, 75, *got.SuspicionScore)
	assert.Equal(t, "suspicious", string(got.Status))

	rec = doRequest(c, http.MethodGet, "/api/v1/tips/"+tip.ID+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[HistoryResponse](t, rec)
	assert.Len(t, history.Events, 1)

	rec = doRequest(c, http.MethodGet, "/api/v1/tips?minScore=50", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tips := decode[[]TipResponse](t, rec)
	require.Len(t, tips, 1)
	assert.Equal(t, tip.ID, tips[0].ID)
}

func TestActivityLifecycleAndLinking(t *testing.T) {
	t.Parallel()
	c := newTestAPI(t)

	rec := doRequest(c, http.MethodPost, "/api/v1/tips",
		`{"platform":"reddit","authorHandle":"u/trader","content":"watch this one"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	tip := decode[TipResponse](t, rec)

	observedAt := time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC).Format(time.RFC3339)
	rec = doRequest(c, http.MethodPost, "/api/v1/activities",
		`{"symbol":"ACME","type":"volume_surge","description":"12x average volume","observedAt":"`+observedAt+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	activity := decode[ActivityResponse](t, rec)

	rec = doRequest(c, http.MethodPost, "/api/v1/activities", `{"symbol":"ACME","type":"teleport"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(c, http.MethodPost, "/api/v1/tips/"+tip.ID+"/activities/"+activity.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(c, http.MethodGet, "/api/v1/tips/"+tip.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[TipResponse](t, rec)
	require.Len(t, got.Activities, 1)
	assert.Equal(t, activity.ID, got.Activities[0].ID)

	rec = doRequest(c, http.MethodGet, "/api/v1/activities?symbol=ACME", "")
	require.Equal(t, http.StatusOK, rec.Code)
	activities := decode[[]ActivityResponse](t, rec)
	require.Len(t, activities, 1)
	assert.Contains(t, activities[0].TipIDs, tip.ID)
}

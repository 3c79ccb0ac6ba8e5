package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradesentry/fraudwatch-go/internal/datastore"
	"github.com/tradesentry/fraudwatch-go/internal/evidence"
	"github.com/tradesentry/fraudwatch-go/internal/ledger"
	"github.com/tradesentry/fraudwatch-go/internal/scoring"
	"github.com/tradesentry/fraudwatch-go/internal/workflow"
)

// AnnouncementResponse is the API representation of an announcement.
type AnnouncementResponse struct {
	ID               string                        `json:"id"`
	CompanyID        string                        `json:"companyId"`
	CompanyName      string                        `json:"companyName"`
	Title            string                        `json:"title"`
	Body             string                        `json:"body,omitempty"`
	PublishedAt      time.Time                     `json:"publishedAt"`
	Status           scoring.AnnouncementStatus    `json:"status"`
	CredibilityScore *int                          `json:"credibilityScore"`
	Revision         uint                          `json:"revision"`
	Evidence         evidence.AnnouncementSnapshot `json:"evidence"`
	CreatedAt        time.Time                     `json:"createdAt"`
	UpdatedAt        time.Time                     `json:"updatedAt"`
}

func announcementResponse(a *datastore.Announcement) *AnnouncementResponse {
	return &AnnouncementResponse{
		ID:               a.ID,
		CompanyID:        a.CompanyID,
		CompanyName:      a.CompanyName,
		Title:            a.Title,
		Body:             a.Body,
		PublishedAt:      a.PublishedAt,
		Status:           a.Status,
		CredibilityScore: a.CredibilityScore,
		Revision:         a.Revision,
		Evidence:         a.Snapshot(),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// CreateAnnouncementRequest registers an announcement for surveillance.
type CreateAnnouncementRequest struct {
	CompanyID            string    `json:"companyId"`
	CompanyName          string    `json:"companyName"`
	Title                string    `json:"title"`
	Body                 string    `json:"body"`
	PublishedAt          time.Time `json:"publishedAt"`
	ReleasedAfterHours   bool      `json:"releasedAfterHours"`
	ContainsMaterialInfo bool      `json:"containsMaterialInfo"`
}

// CreateAnnouncement handles POST /api/v1/announcements.
func (c *Controller) CreateAnnouncement(ctx echo.Context) error {
	var req CreateAnnouncementRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}

	a := &datastore.Announcement{
		CompanyID:            req.CompanyID,
		CompanyName:          req.CompanyName,
		Title:                req.Title,
		Body:                 req.Body,
		PublishedAt:          req.PublishedAt,
		ReleasedAfterHours:   req.ReleasedAfterHours,
		ContainsMaterialInfo: req.ContainsMaterialInfo,
	}
	if err := c.Workflow.CreateAnnouncement(ctx.Request().Context(), a); err != nil {
		return c.HandleError(ctx, err, "Failed to create announcement")
	}
	return ctx.JSON(http.StatusCreated, announcementResponse(a))
}

// GetAnnouncement handles GET /api/v1/announcements/:id.
func (c *Controller) GetAnnouncement(ctx echo.Context) error {
	id := ctx.Param("id")

	if cached, found := c.entityCache.Get(announcementCacheKey(id)); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	a, err := c.DS.GetAnnouncement(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get announcement")
	}
	resp := announcementResponse(&a)
	c.entityCache.SetDefault(announcementCacheKey(id), resp)
	return ctx.JSON(http.StatusOK, resp)
}

// ListAnnouncements handles GET /api/v1/announcements.
func (c *Controller) ListAnnouncements(ctx echo.Context) error {
	filter := datastore.AnnouncementFilter{
		CompanyID: ctx.QueryParam("companyId"),
		Status:    ctx.QueryParam("status"),
	}
	filter.Limit, filter.Offset = pagination(ctx)

	announcements, err := c.DS.ListAnnouncements(ctx.Request().Context(), filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list announcements")
	}
	out := make([]*AnnouncementResponse, 0, len(announcements))
	for i := range announcements {
		out = append(out, announcementResponse(&announcements[i]))
	}
	return ctx.JSON(http.StatusOK, out)
}

// AnnouncementEvidenceRequest is one evidence submission.
type AnnouncementEvidenceRequest struct {
	Method evidence.SubmissionMethod  `json:"method"`
	Delta  evidence.AnnouncementDelta `json:"delta"`
	Status string                     `json:"status,omitempty"`
	Notes  string                     `json:"notes,omitempty"`
}

func (r *AnnouncementEvidenceRequest) submission() *workflow.AnnouncementSubmission {
	sub := &workflow.AnnouncementSubmission{
		Method: r.Method,
		Delta:  r.Delta,
		Notes:  r.Notes,
	}
	if r.Status != "" {
		status := scoring.AnnouncementStatus(r.Status)
		sub.Status = &status
	}
	return sub
}

// SubmitAnnouncementEvidence handles POST /api/v1/announcements/:id/evidence.
func (c *Controller) SubmitAnnouncementEvidence(ctx echo.Context) error {
	id := ctx.Param("id")
	var req AnnouncementEvidenceRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}

	a, err := c.Workflow.SubmitAnnouncementEvidence(ctx.Request().Context(), id, req.submission())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to submit evidence")
	}
	c.entityCache.Delete(announcementCacheKey(id))
	return ctx.JSON(http.StatusOK, announcementResponse(&a))
}

// VerifyAnnouncement handles POST /api/v1/announcements/:id/verify. It is
// the comprehensive analyst verification: the full delta in one submission,
// with an optional explicit status.
func (c *Controller) VerifyAnnouncement(ctx echo.Context) error {
	id := ctx.Param("id")
	var req AnnouncementEvidenceRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}
	req.Method = evidence.MethodComprehensive

	a, err := c.Workflow.SubmitAnnouncementEvidence(ctx.Request().Context(), id, req.submission())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to verify announcement")
	}
	c.entityCache.Delete(announcementCacheKey(id))
	return ctx.JSON(http.StatusOK, announcementResponse(&a))
}

// ScorePreviewResponse is the computed outcome of a hypothetical submission.
type ScorePreviewResponse struct {
	Score  int    `json:"score"`
	Status string `json:"status"`
}

// PreviewAnnouncementScore handles POST /api/v1/announcements/:id/score/preview.
func (c *Controller) PreviewAnnouncementScore(ctx echo.Context) error {
	id := ctx.Param("id")
	var delta evidence.AnnouncementDelta
	if err := ctx.Bind(&delta); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}

	score, status, err := c.Workflow.PreviewAnnouncementScore(ctx.Request().Context(), id, delta)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to preview score")
	}
	return ctx.JSON(http.StatusOK, &ScorePreviewResponse{Score: score, Status: string(status)})
}

// HistoryResponse is an entity's ordered evidence ledger.
type HistoryResponse struct {
	Events []ledger.Event `json:"events"`
}

// GetAnnouncementHistory handles GET /api/v1/announcements/:id/history.
func (c *Controller) GetAnnouncementHistory(ctx echo.Context) error {
	log, err := c.Workflow.GetAnnouncementHistory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get history")
	}
	return ctx.JSON(http.StatusOK, &HistoryResponse{Events: log.Events()})
}

// SendAlertRequest dispatches a fraud alert.
type SendAlertRequest struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// AlertResponse is the API representation of a dispatched alert.
type AlertResponse struct {
	ID             string    `json:"id"`
	AnnouncementID string    `json:"announcementId"`
	AlertType      string    `json:"alertType"`
	Message        string    `json:"message"`
	Recipients     []string  `json:"recipients"`
	SentAt         time.Time `json:"sentAt"`
	Status         string    `json:"status"`
}

func alertResponse(record *datastore.AlertRecord) *AlertResponse {
	return &AlertResponse{
		ID:             record.ID,
		AnnouncementID: record.AnnouncementID,
		AlertType:      record.AlertType,
		Message:        record.Message,
		Recipients:     record.Recipients,
		SentAt:         record.SentAt,
		Status:         record.Status,
	}
}

// SendAlert handles POST /api/v1/announcements/:id/alerts.
func (c *Controller) SendAlert(ctx echo.Context) error {
	id := ctx.Param("id")
	var req SendAlertRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}

	record, err := c.Workflow.SendAlert(ctx.Request().Context(), id, req.Message, req.Recipients)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to send alert")
	}
	return ctx.JSON(http.StatusCreated, alertResponse(&record))
}

// GetAlerts handles GET /api/v1/announcements/:id/alerts.
func (c *Controller) GetAlerts(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := c.DS.GetAnnouncement(ctx.Request().Context(), id); err != nil {
		return c.HandleError(ctx, err, "Failed to get announcement")
	}

	records, err := c.DS.GetAlerts(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get alerts")
	}
	out := make([]*AlertResponse, 0, len(records))
	for i := range records {
		out = append(out, alertResponse(&records[i]))
	}
	return ctx.JSON(http.StatusOK, out)
}

func announcementCacheKey(id string) string { return "announcement:" + id }

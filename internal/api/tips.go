package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradesentry/fraudwatch-go/internal/datastore"
	"github.com/tradesentry/fraudwatch-go/internal/evidence"
	"github.com/tradesentry/fraudwatch-go/internal/scoring"
	"github.com/tradesentry/fraudwatch-go/internal/workflow"
)

// TipResponse is the API representation of a social-media tip.
type TipResponse struct {
	ID             string               `json:"id"`
	Platform       string               `json:"platform"`
	AuthorHandle   string               `json:"authorHandle"`
	Content        string               `json:"content"`
	PublishedAt    time.Time            `json:"publishedAt"`
	Status         scoring.TipStatus    `json:"status"`
	SuspicionScore *int                 `json:"suspicionScore"`
	Revision       uint                 `json:"revision"`
	Evidence       evidence.TipSnapshot `json:"evidence"`
	Activities     []*ActivityResponse  `json:"activities,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func tipResponse(tip *datastore.SocialMediaTip) *TipResponse {
	resp := &TipResponse{
		ID:             tip.ID,
		Platform:       tip.Platform,
		AuthorHandle:   tip.AuthorHandle,
		Content:        tip.Content,
		PublishedAt:    tip.PublishedAt,
		Status:         tip.Status,
		SuspicionScore: tip.SuspicionScore,
		Revision:       tip.Revision,
		Evidence:       tip.Snapshot(),
		CreatedAt:      tip.CreatedAt,
		UpdatedAt:      tip.UpdatedAt,
	}
	for i := range tip.Activities {
		resp.Activities = append(resp.Activities, activityResponse(&tip.Activities[i]))
	}
	return resp
}

// CreateTipRequest registers a tip for analysis.
type CreateTipRequest struct {
	Platform     string    `json:"platform"`
	AuthorHandle string    `json:"authorHandle"`
	Content      string    `json:"content"`
	PublishedAt  time.Time `json:"publishedAt"`
}

// CreateTip handles POST /api/v1/tips.
func (c *Controller) CreateTip(ctx echo.Context) error {
	var req CreateTipRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}

	tip := &datastore.SocialMediaTip{
		Platform:     req.Platform,
		AuthorHandle: req.AuthorHandle,
		Content:      req.Content,
		PublishedAt:  req.PublishedAt,
	}
	if err := c.Workflow.CreateTip(ctx.Request().Context(), tip); err != nil {
		return c.HandleError(ctx, err, "Failed to create tip")
	}
	return ctx.JSON(http.StatusCreated, tipResponse(tip))
}

// GetTip handles GET /api/v1/tips/:id.
func (c *Controller) GetTip(ctx echo.Context) error {
	id := ctx.Param("id")

	if cached, found := c.entityCache.Get(tipCacheKey(id)); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	tip, err := c.DS.GetTip(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get tip")
	}
	resp := tipResponse(&tip)
	c.entityCache.SetDefault(tipCacheKey(id), resp)
	return ctx.JSON(http.StatusOK, resp)
}

// ListTips handles GET /api/v1/tips.
func (c *Controller) ListTips(ctx echo.Context) error {
	filter := datastore.TipFilter{
		Platform: ctx.QueryParam("platform"),
		Status:   ctx.QueryParam("status"),
	}
	if raw := ctx.QueryParam("minScore"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return c.HandleError(ctx, validationError("minScore must be an integer"), "Failed to parse query")
		}
		filter.MinScore = &v
	}
	filter.Limit, filter.Offset = pagination(ctx)

	tips, err := c.DS.ListTips(ctx.Request().Context(), filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list tips")
	}
	out := make([]*TipResponse, 0, len(tips))
	for i := range tips {
		out = append(out, tipResponse(&tips[i]))
	}
	return ctx.JSON(http.StatusOK, out)
}

// TipEvidenceRequest is one evidence submission against a tip.
type TipEvidenceRequest struct {
	Method evidence.SubmissionMethod `json:"method"`
	Delta  evidence.TipDelta         `json:"delta"`
	Status string                    `json:"status,omitempty"`
	Notes  string                    `json:"notes,omitempty"`
}

func (r *TipEvidenceRequest) submission() *workflow.TipSubmission {
	sub := &workflow.TipSubmission{
		Method: r.Method,
		Delta:  r.Delta,
		Notes:  r.Notes,
	}
	if r.Status != "" {
		status := scoring.TipStatus(r.Status)
		sub.Status = &status
	}
	return sub
}

// SubmitTipEvidence handles POST /api/v1/tips/:id/evidence.
func (c *Controller) SubmitTipEvidence(ctx echo.Context) error {
	id := ctx.Param("id")
	var req TipEvidenceRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}

	tip, err := c.Workflow.SubmitTipEvidence(ctx.Request().Context(), id, req.submission())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to submit evidence")
	}
	c.entityCache.Delete(tipCacheKey(id))
	return ctx.JSON(http.StatusOK, tipResponse(&tip))
}

// PreviewTipScore handles POST /api/v1/tips/:id/score/preview.
func (c *Controller) PreviewTipScore(ctx echo.Context) error {
	id := ctx.Param("id")
	var delta evidence.TipDelta
	if err := ctx.Bind(&delta); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}

	score, status, err := c.Workflow.PreviewTipScore(ctx.Request().Context(), id, delta)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to preview score")
	}
	return ctx.JSON(http.StatusOK, &ScorePreviewResponse{Score: score, Status: string(status)})
}

// GetTipHistory handles GET /api/v1/tips/:id/history.
func (c *Controller) GetTipHistory(ctx echo.Context) error {
	log, err := c.Workflow.GetTipHistory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get history")
	}
	return ctx.JSON(http.StatusOK, &HistoryResponse{Events: log.Events()})
}

// LinkTipToActivity handles POST /api/v1/tips/:id/activities/:activityId.
func (c *Controller) LinkTipToActivity(ctx echo.Context) error {
	tipID := ctx.Param("id")
	activityID := ctx.Param("activityId")

	if err := c.DS.LinkTipToActivity(ctx.Request().Context(), tipID, activityID); err != nil {
		return c.HandleError(ctx, err, "Failed to link tip to activity")
	}
	c.entityCache.Delete(tipCacheKey(tipID))
	return ctx.NoContent(http.StatusNoContent)
}

func tipCacheKey(id string) string { return "tip:" + id }

package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradesentry/fraudwatch-go/internal/datastore"
)

// ActivityResponse is the API representation of a market-activity record.
type ActivityResponse struct {
	ID          string                 `json:"id"`
	Symbol      string                 `json:"symbol"`
	Type        datastore.ActivityType `json:"type"`
	Description string                 `json:"description,omitempty"`
	ObservedAt  time.Time              `json:"observedAt"`
	TipIDs      []string               `json:"tipIds,omitempty"`
}

func activityResponse(activity *datastore.MarketActivity) *ActivityResponse {
	resp := &ActivityResponse{
		ID:          activity.ID,
		Symbol:      activity.Symbol,
		Type:        activity.Type,
		Description: activity.Description,
		ObservedAt:  activity.ObservedAt,
	}
	for i := range activity.Tips {
		resp.TipIDs = append(resp.TipIDs, activity.Tips[i].ID)
	}
	return resp
}

// CreateActivityRequest records an observed unusual trading event.
type CreateActivityRequest struct {
	Symbol      string                 `json:"symbol"`
	Type        datastore.ActivityType `json:"type"`
	Description string                 `json:"description"`
	ObservedAt  time.Time              `json:"observedAt"`
}

// CreateActivity handles POST /api/v1/activities.
func (c *Controller) CreateActivity(ctx echo.Context) error {
	var req CreateActivityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, validationError("invalid request body"), "Failed to parse request")
	}
	if req.Symbol == "" {
		return c.HandleError(ctx, validationError("symbol is required"), "Failed to create activity")
	}
	if !req.Type.Valid() {
		return c.HandleError(ctx, validationError("unknown activity type"), "Failed to create activity")
	}

	activity := &datastore.MarketActivity{
		ID:          newActivityID(),
		Symbol:      req.Symbol,
		Type:        req.Type,
		Description: req.Description,
		ObservedAt:  req.ObservedAt,
	}
	if activity.ObservedAt.IsZero() {
		activity.ObservedAt = time.Now().UTC()
	}
	if err := c.DS.CreateMarketActivity(ctx.Request().Context(), activity); err != nil {
		return c.HandleError(ctx, err, "Failed to create activity")
	}
	return ctx.JSON(http.StatusCreated, activityResponse(activity))
}

// GetActivity handles GET /api/v1/activities/:id.
func (c *Controller) GetActivity(ctx echo.Context) error {
	activity, err := c.DS.GetMarketActivity(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get activity")
	}
	return ctx.JSON(http.StatusOK, activityResponse(&activity))
}

// ListActivities handles GET /api/v1/activities.
func (c *Controller) ListActivities(ctx echo.Context) error {
	filter := datastore.ActivityFilter{Symbol: ctx.QueryParam("symbol")}
	filter.Limit, filter.Offset = pagination(ctx)

	activities, err := c.DS.ListMarketActivity(ctx.Request().Context(), filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list activities")
	}
	out := make([]*ActivityResponse, 0, len(activities))
	for i := range activities {
		out = append(out, activityResponse(&activities[i]))
	}
	return ctx.JSON(http.StatusOK, out)
}

// Package notification dispatches fraud alerts to external channels. The
// workflow treats dispatch as best-effort: a failed push is logged and
// recorded, never propagated back into the verification state machine.
package notification

import (
	"context"
	"time"
)

// Alert is an outbound fraud alert for an announcement that was classified
// fraudulent.
type Alert struct {
	AnnouncementID string    `json:"announcementId"`
	CompanyID      string    `json:"companyId"`
	CompanyName    string    `json:"companyName"`
	Title          string    `json:"title"`
	Score          *int      `json:"score,omitempty"`
	Message        string    `json:"message"`
	Recipients     []string  `json:"recipients"`
	Timestamp      time.Time `json:"timestamp"`
}

// Dispatcher pushes alerts to a delivery channel.
type Dispatcher interface {
	Name() string
	Send(ctx context.Context, alert *Alert) error
}

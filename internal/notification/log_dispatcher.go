package notification

import (
	"context"
	"log/slog"

	"github.com/tradesentry/fraudwatch-go/internal/logging"
)

// LogDispatcher records alerts on the structured logger. It is the fallback
// channel when push dispatch is disabled, so every alert still leaves an
// audit trace.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = logging.Structured()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Name() string { return "log" }

func (d *LogDispatcher) Send(_ context.Context, alert *Alert) error {
	attrs := []any{
		"announcement_id", alert.AnnouncementID,
		"company_id", alert.CompanyID,
		"company_name", alert.CompanyName,
		"recipients", alert.Recipients,
		"message", alert.Message,
	}
	if alert.Score != nil {
		attrs = append(attrs, "score", *alert.Score)
	}
	d.logger.Warn("fraud alert", attrs...)
	return nil
}

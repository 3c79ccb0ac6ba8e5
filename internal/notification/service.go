package notification

import (
	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/logging"
)

// NewFromSettings builds the dispatcher for the configured alert channel.
// With push disabled the log dispatcher keeps an audit trail.
func NewFromSettings(settings *conf.AlertSettings) (Dispatcher, error) {
	if settings == nil || !settings.Enabled {
		return NewLogDispatcher(logging.ForService("notification")), nil
	}
	d := NewShoutrrrDispatcher("shoutrrr", settings.URLs, settings.Timeout)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

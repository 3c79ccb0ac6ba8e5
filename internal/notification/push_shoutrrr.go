package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

// ShoutrrrDispatcher pushes alerts via nicholas-fedor/shoutrrr.
// A single router fans out to all configured URLs.
type ShoutrrrDispatcher struct {
	name    string
	urls    []string
	sender  *router.ServiceRouter
	timeout time.Duration
}

func NewShoutrrrDispatcher(name string, urls []string, timeout time.Duration) *ShoutrrrDispatcher {
	d := &ShoutrrrDispatcher{
		name:    strings.TrimSpace(name),
		urls:    slices.Clone(urls),
		timeout: timeout,
	}
	if d.name == "" {
		d.name = "shoutrrr"
	}
	return d
}

func (d *ShoutrrrDispatcher) Name() string { return d.name }

// Validate builds the sender, checking every configured URL. Must be called
// before Send.
func (d *ShoutrrrDispatcher) Validate() error {
	if len(d.urls) == 0 {
		return errors.Newf("at least one alert URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	sender, err := shoutrrr.CreateSender(d.urls...)
	if err != nil {
		return errors.Newf("invalid alert URL: %w", err).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	d.sender = sender
	if d.timeout > 0 {
		d.sender.Timeout = d.timeout
	}
	d.sender.SetLogger(log.New(io.Discard, "", 0))
	return nil
}

func (d *ShoutrrrDispatcher) Send(ctx context.Context, alert *Alert) error {
	if d.sender == nil {
		return errors.Newf("shoutrrr sender not initialized").
			Component("notification").
			Category(errors.CategoryState).
			Build()
	}
	_ = ctx // router handles its own timeouts

	params := stypes.Params{}
	params.SetTitle(alertTitle(alert))
	errs := d.sender.Send(alert.Message, &params)
	for _, e := range errs {
		if e != nil {
			return errors.Newf("dispatching alert: %w", e).
				Component("notification").
				Category(errors.CategoryDispatch).
				Build()
		}
	}
	return nil
}

func alertTitle(alert *Alert) string {
	if alert.Score != nil {
		return fmt.Sprintf("Fraud alert: %s (score %d)", alert.CompanyName, *alert.Score)
	}
	return fmt.Sprintf("Fraud alert: %s", alert.CompanyName)
}

package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

func TestShoutrrrValidateRequiresURLs(t *testing.T) {
	t.Parallel()

	d := NewShoutrrrDispatcher("", nil, time.Second)
	assert.Equal(t, "shoutrrr", d.Name())

	err := d.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestShoutrrrValidateRejectsBadURL(t *testing.T) {
	t.Parallel()

	d := NewShoutrrrDispatcher("alerts", []string{"not-a-shoutrrr-url"}, time.Second)
	err := d.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestShoutrrrSendWithoutValidate(t *testing.T) {
	t.Parallel()

	d := NewShoutrrrDispatcher("alerts", []string{"generic://example.invalid"}, time.Second)
	err := d.Send(context.Background(), &Alert{Message: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

func TestLogDispatcherSend(t *testing.T) {
	t.Parallel()

	d := NewLogDispatcher(nil)
	assert.Equal(t, "log", d.Name())

	score := 12
	alert := &Alert{
		AnnouncementID: "a-1",
		CompanyID:      "ACME",
		CompanyName:    "Acme Corp",
		Score:          &score,
		Message:        "Announcement classified as fraudulent",
		Recipients:     []string{"surveillance-desk"},
		Timestamp:      time.Now().UTC(),
	}
	require.NoError(t, d.Send(context.Background(), alert))
}

func TestNewFromSettings(t *testing.T) {
	t.Parallel()

	t.Run("disabled falls back to log", func(t *testing.T) {
		t.Parallel()
		d, err := NewFromSettings(&conf.AlertSettings{Enabled: false})
		require.NoError(t, err)
		assert.Equal(t, "log", d.Name())
	})

	t.Run("nil settings fall back to log", func(t *testing.T) {
		t.Parallel()
		d, err := NewFromSettings(nil)
		require.NoError(t, err)
		assert.Equal(t, "log", d.Name())
	})

	t.Run("enabled without URLs is a config error", func(t *testing.T) {
		t.Parallel()
		_, err := NewFromSettings(&conf.AlertSettings{Enabled: true})
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	})
}

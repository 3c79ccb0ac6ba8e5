package conf

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

func defaultSettings(t *testing.T) *Settings {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()
	s := &Settings{}
	require.NoError(t, viper.Unmarshal(s))
	return s
}

func TestDefaults(t *testing.T) {
	s := defaultSettings(t)

	assert.Equal(t, "fraudwatch", s.Main.Name)
	assert.Equal(t, 70, s.Thresholds.AnnouncementVerified)
	assert.Equal(t, 30, s.Thresholds.AnnouncementFraudulent)
	assert.Equal(t, 70, s.Thresholds.TipSuspicious)
	assert.Equal(t, 30, s.Thresholds.TipLegitimate)
	assert.True(t, s.Output.SQLite.Enabled)
	assert.False(t, s.Output.MySQL.Enabled)
	assert.Equal(t, 3, s.Workflow.MaxSubmitRetries)
	require.NoError(t, s.Validate())
}

func TestValidateRejectsOverlappingThresholds(t *testing.T) {
	s := defaultSettings(t)
	s.Thresholds.AnnouncementFraudulent = 80

	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestValidateRequiresDatastore(t *testing.T) {
	s := defaultSettings(t)
	s.Output.SQLite.Enabled = false
	s.Output.MySQL.Enabled = false

	require.Error(t, s.Validate())
}

func TestValidateRequiresAlertURLs(t *testing.T) {
	s := defaultSettings(t)
	s.Alerts.Enabled = true
	s.Alerts.URLs = nil

	require.Error(t, s.Validate())
}

func TestValidateRetryBudget(t *testing.T) {
	s := defaultSettings(t)
	s.Workflow.MaxSubmitRetries = 0

	require.Error(t, s.Validate())
}

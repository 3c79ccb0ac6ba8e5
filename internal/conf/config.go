// Package conf loads and validates the fraudwatch configuration. Settings are
// read with viper from a YAML config file with sane defaults, and are passed
// explicitly to the components that need them.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

// LogConfig describes file logging and rotation for a service.
type LogConfig struct {
	Enabled    bool   // true to enable file logging
	Path       string // path to log file
	MaxSizeMB  int    // max log size before rotation
	MaxBackups int    // rotated files to keep
	MaxAgeDays int    // days to keep rotated files
}

// MainSettings contains application wide settings.
type MainSettings struct {
	Name  string    // instance name, used in logs and alerts
	Debug bool      // true to enable debug logging
	Log   LogConfig // file logging settings
}

// ThresholdSettings holds the status-classification cutoffs. They are
// configuration, not constants, so operators can tune them without touching
// the scoring engine.
type ThresholdSettings struct {
	AnnouncementVerified   int // credibility score at or above which an announcement is verified
	AnnouncementFraudulent int // credibility score at or below which an announcement is fraudulent
	TipSuspicious          int // suspicion score at or above which a tip is suspicious
	TipLegitimate          int // suspicion score at or below which a tip is legitimate
}

// SQLiteSettings contains SQLite output settings.
type SQLiteSettings struct {
	Enabled bool
	Path    string
}

// MySQLSettings contains MySQL output settings.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// OutputSettings groups the persistence backends.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// WebServerSettings contains settings for the HTTP API.
type WebServerSettings struct {
	Enabled bool
	Port    string
	Debug   bool
}

// AlertSettings configures dispatch of fraud alerts.
type AlertSettings struct {
	Enabled bool          // true to push alerts to the configured URLs
	URLs    []string      // shoutrrr provider URLs
	Timeout time.Duration // per-dispatch timeout
}

// WorkflowSettings tunes the verification workflow controller.
type WorkflowSettings struct {
	MaxSubmitRetries int // bounded retry budget for optimistic-concurrency conflicts
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool
}

// Settings is the root configuration object.
type Settings struct {
	Main       MainSettings
	Thresholds ThresholdSettings
	Output     OutputSettings
	WebServer  WebServerSettings
	Alerts     AlertSettings
	Workflow   WorkflowSettings
	Metrics    MetricsSettings
}

// setDefaults registers default values with viper.
func setDefaults() {
	viper.SetDefault("main.name", "fraudwatch")
	viper.SetDefault("main.debug", false)
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "logs/fraudwatch.log")
	viper.SetDefault("main.log.maxsizemb", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxagedays", 28)

	viper.SetDefault("thresholds.announcementverified", 70)
	viper.SetDefault("thresholds.announcementfraudulent", 30)
	viper.SetDefault("thresholds.tipsuspicious", 70)
	viper.SetDefault("thresholds.tiplegitimate", 30)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "fraudwatch.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("alerts.enabled", false)
	viper.SetDefault("alerts.urls", []string{})
	viper.SetDefault("alerts.timeout", 10*time.Second)

	viper.SetDefault("workflow.maxsubmitretries", 3)

	viper.SetDefault("metrics.enabled", true)
}

// Load reads the configuration from the given path, or from the default
// search locations when path is empty, and returns the parsed settings.
func Load(configPath string) (*Settings, error) {
	setDefaults()

	viper.SetConfigType("yaml")
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(dir, "fraudwatch"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Newf("reading config file: %w", err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
		// No config file is fine, defaults apply.
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.Newf("unmarshaling config: %w", err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (s *Settings) Validate() error {
	if s.Thresholds.AnnouncementFraudulent >= s.Thresholds.AnnouncementVerified {
		return validationErr(fmt.Sprintf(
			"announcement thresholds overlap: fraudulent %d must be below verified %d",
			s.Thresholds.AnnouncementFraudulent, s.Thresholds.AnnouncementVerified))
	}
	if s.Thresholds.TipLegitimate >= s.Thresholds.TipSuspicious {
		return validationErr(fmt.Sprintf(
			"tip thresholds overlap: legitimate %d must be below suspicious %d",
			s.Thresholds.TipLegitimate, s.Thresholds.TipSuspicious))
	}
	if !inScoreRange(s.Thresholds.AnnouncementVerified) ||
		!inScoreRange(s.Thresholds.AnnouncementFraudulent) ||
		!inScoreRange(s.Thresholds.TipSuspicious) ||
		!inScoreRange(s.Thresholds.TipLegitimate) {
		return validationErr("thresholds must be within the 0-100 score range")
	}
	if !s.Output.SQLite.Enabled && !s.Output.MySQL.Enabled {
		return validationErr("no datastore enabled: enable output.sqlite or output.mysql")
	}
	if s.Workflow.MaxSubmitRetries < 1 {
		return validationErr("workflow.maxsubmitretries must be at least 1")
	}
	if s.Alerts.Enabled && len(s.Alerts.URLs) == 0 {
		return validationErr("alerts enabled but no alert URLs configured")
	}
	return nil
}

func inScoreRange(v int) bool {
	return v >= 0 && v <= 100
}

func validationErr(msg string) error {
	return errors.Newf("%s", msg).
		Component("conf").
		Category(errors.CategoryConfiguration).
		Build()
}

// Package workflow implements the evidence verification workflow: evidence
// submissions are merged onto the stored snapshot, rescored, classified, and
// persisted together with their history event under optimistic concurrency.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/datastore"
	"github.com/tradesentry/fraudwatch-go/internal/errors"
	"github.com/tradesentry/fraudwatch-go/internal/evidence"
	"github.com/tradesentry/fraudwatch-go/internal/ledger"
	"github.com/tradesentry/fraudwatch-go/internal/logging"
	"github.com/tradesentry/fraudwatch-go/internal/notification"
	"github.com/tradesentry/fraudwatch-go/internal/scoring"
)

// Clock supplies timestamps for history events and alerts. Injected so tests
// control time.
type Clock func() time.Time

// Controller runs the verification workflow on top of the datastore.
type Controller struct {
	ds         datastore.Interface
	dispatcher notification.Dispatcher
	thresholds scoring.Thresholds
	maxRetries int
	clock      Clock
	metrics    *Metrics
	logger     *slog.Logger

	// locks serializes in-process submissions per entity so concurrent
	// writers hit the retry path instead of burning the whole budget.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithMetrics attaches workflow metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithLogger overrides the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates a workflow controller from the runtime settings.
func New(ds datastore.Interface, dispatcher notification.Dispatcher, settings *conf.Settings, opts ...Option) *Controller {
	c := &Controller{
		ds:         ds,
		dispatcher: dispatcher,
		thresholds: scoring.Thresholds{
			AnnouncementVerified:   settings.Thresholds.AnnouncementVerified,
			AnnouncementFraudulent: settings.Thresholds.AnnouncementFraudulent,
			TipSuspicious:          settings.Thresholds.TipSuspicious,
			TipLegitimate:          settings.Thresholds.TipLegitimate,
		},
		maxRetries: settings.Workflow.MaxSubmitRetries,
		clock:      time.Now,
		logger:     logging.ForService("workflow"),
		locks:      make(map[string]*sync.Mutex),
	}
	if c.maxRetries < 1 {
		c.maxRetries = 1
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Controller) entityLock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	return lock
}

func validationErr(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("workflow").
		Category(errors.CategoryValidation).
		Build()
}

func preconditionErr(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("workflow").
		Category(errors.CategoryPrecondition).
		Build()
}

// CreateAnnouncement registers a new announcement in its initial state:
// status pending, no score, revision zero.
func (c *Controller) CreateAnnouncement(ctx context.Context, a *datastore.Announcement) error {
	if a.CompanyID == "" {
		return validationErr("announcement company id is required")
	}
	if a.Title == "" {
		return validationErr("announcement title is required")
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Status = scoring.StatusPending
	a.CredibilityScore = nil
	a.Revision = 0
	if a.PublishedAt.IsZero() {
		a.PublishedAt = c.clock().UTC()
	}
	return c.ds.CreateAnnouncement(ctx, a)
}

// CreateTip registers a new social-media tip in its initial state.
func (c *Controller) CreateTip(ctx context.Context, tip *datastore.SocialMediaTip) error {
	if tip.Platform == "" {
		return validationErr("tip platform is required")
	}
	if tip.Content == "" {
		return validationErr("tip content is required")
	}
	if tip.ID == "" {
		tip.ID = uuid.New().String()
	}
	tip.Status = scoring.TipPending
	tip.SuspicionScore = nil
	tip.Revision = 0
	if tip.PublishedAt.IsZero() {
		tip.PublishedAt = c.clock().UTC()
	}
	return c.ds.CreateTip(ctx, tip)
}

// AnnouncementSubmission is one evidence submission against an announcement.
// Status may only be set for methods that allow an analyst override.
type AnnouncementSubmission struct {
	Method evidence.SubmissionMethod
	Delta  evidence.AnnouncementDelta
	Status *scoring.AnnouncementStatus
	Notes  string
}

func (s *AnnouncementSubmission) validate() error {
	if !s.Method.Valid() {
		return validationErr("unknown submission method %q", s.Method)
	}
	if !s.Delta.Validate() {
		return validationErr("invalid evidence delta")
	}
	if s.Status != nil {
		if !s.Method.AllowsStatusOverride() {
			return validationErr("method %q does not allow a status override", s.Method)
		}
		if !s.Status.Valid() || *s.Status == scoring.StatusPending {
			return validationErr("invalid override status %q", *s.Status)
		}
	}
	return nil
}

// SubmitAnnouncementEvidence merges the submission onto the announcement's
// evidence, rescores and reclassifies it, and persists the result with a new
// history event. Concurrent submissions are retried a bounded number of
// times; exhausting the budget surfaces the revision conflict to the caller.
func (c *Controller) SubmitAnnouncementEvidence(ctx context.Context, id string, sub *AnnouncementSubmission) (datastore.Announcement, error) {
	start := time.Now()
	a, err := c.submitAnnouncement(ctx, id, sub)
	c.observe("announcement", sub.Method, start, err)
	return a, err
}

func (c *Controller) submitAnnouncement(ctx context.Context, id string, sub *AnnouncementSubmission) (datastore.Announcement, error) {
	if err := sub.validate(); err != nil {
		return datastore.Announcement{}, err
	}

	lock := c.entityLock(id)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		a, err := c.ds.GetAnnouncement(ctx, id)
		if err != nil {
			return datastore.Announcement{}, err
		}

		merged := evidence.MergeAnnouncement(a.Snapshot(), sub.Delta)
		score := scoring.ScoreAnnouncement(merged)
		status := scoring.ClassifyAnnouncement(score, c.thresholds)
		if sub.Status != nil {
			status = *sub.Status
		}

		event := ledger.Event{
			Timestamp: c.clock().UTC(),
			Method:    sub.Method,
			Status:    string(status),
			Score:     &score,
			Notes:     sub.Notes,
		}
		log, err := ledger.FromEvents(toLedgerEvents(a.Events))
		if err != nil {
			return datastore.Announcement{}, err
		}
		if err := log.Append(event); err != nil {
			return datastore.Announcement{}, err
		}

		a.ApplySnapshot(merged)
		a.CredibilityScore = &score
		a.Status = status

		row := &datastore.EvidenceEvent{
			Timestamp: event.Timestamp,
			Method:    event.Method,
			Status:    event.Status,
			Score:     event.Score,
			Notes:     event.Notes,
		}
		err = c.ds.SaveAnnouncement(ctx, &a, row, a.Revision)
		if err == nil {
			a.Events = append(a.Events, *row)
			if c.metrics != nil {
				c.metrics.ScoreDistribution.WithLabelValues("announcement").Observe(float64(score))
			}
			c.logger.Info("evidence applied",
				"entity", "announcement",
				"id", id,
				"method", sub.Method,
				"score", score,
				"status", status,
				"attempt", attempt+1)
			return a, nil
		}
		if !errors.Is(err, datastore.ErrRevisionConflict) {
			return datastore.Announcement{}, err
		}
		if c.metrics != nil {
			c.metrics.RevisionConflicts.WithLabelValues("announcement").Inc()
		}
		lastErr = err
	}

	c.logger.Warn("submission retry budget exhausted",
		"entity", "announcement", "id", id, "retries", c.maxRetries)
	return datastore.Announcement{}, lastErr
}

// TipSubmission is one evidence submission against a social-media tip.
type TipSubmission struct {
	Method evidence.SubmissionMethod
	Delta  evidence.TipDelta
	Status *scoring.TipStatus
	Notes  string
}

func (s *TipSubmission) validate() error {
	if !s.Method.Valid() {
		return validationErr("unknown submission method %q", s.Method)
	}
	if !s.Delta.Validate() {
		return validationErr("invalid evidence delta")
	}
	if s.Status != nil {
		if !s.Method.AllowsStatusOverride() {
			return validationErr("method %q does not allow a status override", s.Method)
		}
		if !s.Status.Valid() || *s.Status == scoring.TipPending {
			return validationErr("invalid override status %q", *s.Status)
		}
	}
	return nil
}

// SubmitTipEvidence applies one evidence submission to a tip with the same
// merge, rescore, and retry contract as announcements.
func (c *Controller) SubmitTipEvidence(ctx context.Context, id string, sub *TipSubmission) (datastore.SocialMediaTip, error) {
	start := time.Now()
	tip, err := c.submitTip(ctx, id, sub)
	c.observe("tip", sub.Method, start, err)
	return tip, err
}

func (c *Controller) submitTip(ctx context.Context, id string, sub *TipSubmission) (datastore.SocialMediaTip, error) {
	if err := sub.validate(); err != nil {
		return datastore.SocialMediaTip{}, err
	}

	lock := c.entityLock(id)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		tip, err := c.ds.GetTip(ctx, id)
		if err != nil {
			return datastore.SocialMediaTip{}, err
		}

		merged := evidence.MergeTip(tip.Snapshot(), sub.Delta)
		score := scoring.ScoreTip(merged)
		status := scoring.ClassifyTip(score, c.thresholds)
		if sub.Status != nil {
			status = *sub.Status
		}

		event := ledger.Event{
			Timestamp: c.clock().UTC(),
			Method:    sub.Method,
			Status:    string(status),
			Score:     &score,
			Notes:     sub.Notes,
		}
		log, err := ledger.FromEvents(toLedgerEvents(tip.Events))
		if err != nil {
			return datastore.SocialMediaTip{}, err
		}
		if err := log.Append(event); err != nil {
			return datastore.SocialMediaTip{}, err
		}

		tip.ApplySnapshot(merged)
		tip.SuspicionScore = &score
		tip.Status = status

		row := &datastore.EvidenceEvent{
			Timestamp: event.Timestamp,
			Method:    event.Method,
			Status:    event.Status,
			Score:     event.Score,
			Notes:     event.Notes,
		}
		err = c.ds.SaveTip(ctx, &tip, row, tip.Revision)
		if err == nil {
			tip.Events = append(tip.Events, *row)
			if c.metrics != nil {
				c.metrics.ScoreDistribution.WithLabelValues("tip").Observe(float64(score))
			}
			c.logger.Info("evidence applied",
				"entity", "tip",
				"id", id,
				"method", sub.Method,
				"score", score,
				"status", status,
				"attempt", attempt+1)
			return tip, nil
		}
		if !errors.Is(err, datastore.ErrRevisionConflict) {
			return datastore.SocialMediaTip{}, err
		}
		if c.metrics != nil {
			c.metrics.RevisionConflicts.WithLabelValues("tip").Inc()
		}
		lastErr = err
	}

	c.logger.Warn("submission retry budget exhausted",
		"entity", "tip", "id", id, "retries", c.maxRetries)
	return datastore.SocialMediaTip{}, lastErr
}

// PreviewAnnouncementScore computes the score and status that a delta would
// produce, without persisting anything.
func (c *Controller) PreviewAnnouncementScore(ctx context.Context, id string, delta evidence.AnnouncementDelta) (int, scoring.AnnouncementStatus, error) {
	if !delta.Validate() {
		return 0, "", validationErr("invalid evidence delta")
	}
	a, err := c.ds.GetAnnouncement(ctx, id)
	if err != nil {
		return 0, "", err
	}
	merged := evidence.MergeAnnouncement(a.Snapshot(), delta)
	score := scoring.ScoreAnnouncement(merged)
	return score, scoring.ClassifyAnnouncement(score, c.thresholds), nil
}

// PreviewTipScore computes the tip score and status a delta would produce,
// without persisting anything.
func (c *Controller) PreviewTipScore(ctx context.Context, id string, delta evidence.TipDelta) (int, scoring.TipStatus, error) {
	if !delta.Validate() {
		return 0, "", validationErr("invalid evidence delta")
	}
	tip, err := c.ds.GetTip(ctx, id)
	if err != nil {
		return 0, "", err
	}
	merged := evidence.MergeTip(tip.Snapshot(), delta)
	score := scoring.ScoreTip(merged)
	return score, scoring.ClassifyTip(score, c.thresholds), nil
}

// GetAnnouncementHistory returns the announcement's evidence ledger.
func (c *Controller) GetAnnouncementHistory(ctx context.Context, id string) (*ledger.Log, error) {
	events, err := c.ds.GetAnnouncementHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.FromEvents(toLedgerEvents(events))
}

// GetTipHistory returns the tip's evidence ledger.
func (c *Controller) GetTipHistory(ctx context.Context, id string) (*ledger.Log, error) {
	events, err := c.ds.GetTipHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.FromEvents(toLedgerEvents(events))
}

// SendAlert dispatches a fraud alert for an announcement and records it.
// Alerts require a fraudulent classification; dispatch failures are recorded
// and logged but do not fail the operation.
func (c *Controller) SendAlert(ctx context.Context, announcementID, message string, recipients []string) (datastore.AlertRecord, error) {
	if message == "" {
		return datastore.AlertRecord{}, validationErr("alert message is required")
	}
	if len(recipients) == 0 {
		return datastore.AlertRecord{}, validationErr("alert recipients are required")
	}

	a, err := c.ds.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return datastore.AlertRecord{}, err
	}
	if a.Status != scoring.StatusFraudulent {
		return datastore.AlertRecord{}, preconditionErr(
			"announcement %s is %s, alerts require a fraudulent classification", announcementID, a.Status)
	}

	alert := &notification.Alert{
		AnnouncementID: a.ID,
		CompanyID:      a.CompanyID,
		CompanyName:    a.CompanyName,
		Title:          a.Title,
		Score:          a.CredibilityScore,
		Message:        message,
		Recipients:     recipients,
		Timestamp:      c.clock().UTC(),
	}

	status := "sent"
	if err := c.dispatcher.Send(ctx, alert); err != nil {
		status = "failed"
		c.logger.Error("alert dispatch failed",
			"announcement_id", announcementID,
			"dispatcher", c.dispatcher.Name(),
			"error", err)
	}
	if c.metrics != nil {
		c.metrics.AlertsTotal.WithLabelValues(status).Inc()
	}

	record := datastore.AlertRecord{
		ID:             uuid.New().String(),
		AnnouncementID: a.ID,
		AlertType:      "fraud",
		Message:        message,
		Recipients:     recipients,
		SentAt:         alert.Timestamp,
		Status:         status,
	}
	if err := c.ds.AppendAlert(ctx, &record); err != nil {
		return datastore.AlertRecord{}, err
	}
	return record, nil
}

func (c *Controller) observe(entity string, method evidence.SubmissionMethod, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.SubmissionDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
	c.metrics.SubmissionsTotal.WithLabelValues(entity, string(method), outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.IsValidation(err):
		return "validation_error"
	case errors.IsNotFound(err):
		return "not_found"
	case errors.IsConflict(err):
		return "conflict"
	default:
		return "error"
	}
}

func toLedgerEvents(rows []datastore.EvidenceEvent) []ledger.Event {
	events := make([]ledger.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, ledger.Event{
			Timestamp: row.Timestamp,
			Method:    row.Method,
			Status:    row.Status,
			Score:     row.Score,
			Notes:     row.Notes,
		})
	}
	return events
}

// Package ledger provides the append-only evidence history for a single
// entity. Entries are immutable once appended and ordered by timestamp; the
// caller supplies timestamps through an injected clock so the ledger itself
// stays free of wall-clock reads.
package ledger

import (
	"slices"
	"time"

	"github.com/tradesentry/fraudwatch-go/internal/errors"
	"github.com/tradesentry/fraudwatch-go/internal/evidence"
)

// Event is one immutable record of an evidence submission or status change.
// Status and score capture the entity state resulting from the submission.
type Event struct {
	Timestamp time.Time                 `json:"timestamp"`
	Method    evidence.SubmissionMethod `json:"method"`
	Status    string                    `json:"status"`
	Score     *int                      `json:"score,omitempty"`
	Notes     string                    `json:"notes,omitempty"`
}

// Log is an append-only, time-ordered sequence of events. The zero value is
// an empty log ready for use.
type Log struct {
	events []Event
}

// FromEvents builds a log from an already-ordered event sequence, e.g. one
// loaded from the datastore. It rejects sequences whose timestamps regress.
func FromEvents(events []Event) (*Log, error) {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			return nil, errors.Newf("event %d timestamp %s precedes predecessor %s",
				i, events[i].Timestamp.Format(time.RFC3339), events[i-1].Timestamp.Format(time.RFC3339)).
				Component("ledger").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return &Log{events: slices.Clone(events)}, nil
}

// Append adds an event to the end of the log. Timestamps must be
// monotonically non-decreasing relative to the current tail; nothing is ever
// removed or reordered.
func (l *Log) Append(event Event) error {
	if event.Timestamp.IsZero() {
		return errors.Newf("event timestamp must be set").
			Component("ledger").
			Category(errors.CategoryValidation).
			Build()
	}
	if n := len(l.events); n > 0 && event.Timestamp.Before(l.events[n-1].Timestamp) {
		return errors.Newf("event timestamp %s precedes log tail %s",
			event.Timestamp.Format(time.RFC3339), l.events[n-1].Timestamp.Format(time.RFC3339)).
			Component("ledger").
			Category(errors.CategoryValidation).
			Build()
	}
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of the full ordered event sequence.
func (l *Log) Events() []Event {
	return slices.Clone(l.events)
}

// Len returns the number of events in the log.
func (l *Log) Len() int {
	return len(l.events)
}

// Last returns the most recent event, or false when the log is empty.
func (l *Log) Last() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}

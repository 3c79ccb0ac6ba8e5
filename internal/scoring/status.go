package scoring

// AnnouncementStatus is the verification state of a corporate announcement.
type AnnouncementStatus string

const (
	StatusPending    AnnouncementStatus = "pending"
	StatusVerified   AnnouncementStatus = "verified"
	StatusFraudulent AnnouncementStatus = "fraudulent"
	StatusUncertain  AnnouncementStatus = "uncertain"
)

// Valid reports whether the status is one of the allowed announcement states.
func (s AnnouncementStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusFraudulent, StatusUncertain:
		return true
	default:
		return false
	}
}

// TipStatus is the analysis state of a social-media tip.
type TipStatus string

const (
	TipPending    TipStatus = "pending"
	TipSuspicious TipStatus = "suspicious"
	TipLegitimate TipStatus = "legitimate"
	TipFlagged    TipStatus = "flagged"
)

// Valid reports whether the status is one of the allowed tip states.
func (s TipStatus) Valid() bool {
	switch s {
	case TipPending, TipSuspicious, TipLegitimate, TipFlagged:
		return true
	default:
		return false
	}
}

// Thresholds holds the classification cutoffs. Values come from
// configuration so they can be tuned without touching the scoring rules.
type Thresholds struct {
	AnnouncementVerified   int
	AnnouncementFraudulent int
	TipSuspicious          int
	TipLegitimate          int
}

// DefaultThresholds returns the documented classification cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AnnouncementVerified:   70,
		AnnouncementFraudulent: 30,
		TipSuspicious:          70,
		TipLegitimate:          30,
	}
}

// ClassifyAnnouncement maps a credibility score to a verification status.
// Entities that have never been scored stay pending; this function is only
// called once a score exists.
func ClassifyAnnouncement(score int, t Thresholds) AnnouncementStatus {
	switch {
	case score >= t.AnnouncementVerified:
		return StatusVerified
	case score <= t.AnnouncementFraudulent:
		return StatusFraudulent
	default:
		return StatusUncertain
	}
}

// ClassifyTip maps a suspicion score to an analysis status. Tips mirror the
// announcement pattern; analyst overrides go through the workflow's
// manual-review path instead of bypassing the classifier.
func ClassifyTip(score int, t Thresholds) TipStatus {
	switch {
	case score >= t.TipSuspicious:
		return TipSuspicious
	case score <= t.TipLegitimate:
		return TipLegitimate
	default:
		return TipFlagged
	}
}

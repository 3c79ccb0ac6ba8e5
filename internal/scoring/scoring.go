// Package scoring implements the evidence aggregation rules: pure functions
// mapping an evidence snapshot to a bounded credibility or suspicion score,
// and the classifier deriving a verification status from that score.
//
// The point system is additive with per-category caps so no single
// unverified signal can dominate the result, and every term is independently
// testable. Unknown fields contribute nothing; the functions never fail.
package scoring

import (
	"strings"

	"github.com/tradesentry/fraudwatch-go/internal/evidence"
)

const (
	// ScoreMin and ScoreMax bound every score this package produces.
	ScoreMin = 0
	ScoreMax = 100

	announcementBaseline = 50
	tipBaseline          = 30
)

// Announcement credibility point values.
const (
	crossRefPoints      = 5
	crossRefCap         = 20
	officialRefPoints   = 3
	officialRefCap      = 15
	historicalMatch     = 15
	historicalMismatch  = -20
	dramaticClaims      = -25
	counterConfirmed    = 20
	counterContradicted = -30
	publicConsistent    = 10
	publicInconsistent  = -15
	afterHoursMaterial  = -5
	activityBeforeNews  = -10
	contentVague        = -5
	contentPromotional  = -10
	contentExaggerated  = -15
	contentPrecise      = 10
	contentDetailed     = 5
)

// Tip suspicion point values.
const (
	authorVerifiedBonus = -15
	youngAccountPenalty = 20
	youngAccountMaxDays = 30
	unusualVolumeSignal = 15
	pressurePhraseHit   = 25
)

// pressurePhrases are the high-pressure markers that raise suspicion. The
// bonus applies once regardless of how many phrases match.
var pressurePhrases = []string{"guaranteed", "100%", "double your money"}

// ScoreAnnouncement computes the credibility score for the given evidence
// snapshot. Higher means more trustworthy. The result is always within
// [ScoreMin, ScoreMax].
func ScoreAnnouncement(snap evidence.AnnouncementSnapshot) int {
	score := announcementBaseline

	if n := len(snap.CrossReferences); n > 0 {
		score += capped(n*crossRefPoints, crossRefCap)
		official := 0
		for _, ref := range snap.CrossReferences {
			if ref.IsOfficial() {
				official++
			}
		}
		score += capped(official*officialRefPoints, officialRefCap)
	}

	if h := snap.Historical; h != nil {
		switch {
		case h.PerformanceConsistency.IsTrue():
			score += historicalMatch
		case h.PerformanceConsistency.IsFalse():
			score += historicalMismatch
		}
		if h.SuddenDramaticClaims.IsTrue() {
			score += dramaticClaims
		}
	}

	switch snap.CounterParty {
	case evidence.CounterPartyConfirmed:
		score += counterConfirmed
	case evidence.CounterPartyContradicted:
		score += counterContradicted
	}

	if p := snap.PublicDomain; p != nil {
		switch {
		case p.ConsistentWithPublicInfo.IsTrue():
			score += publicConsistent
		case p.ConsistentWithPublicInfo.IsFalse():
			score += publicInconsistent
		}
		if p.UnusualMarketActivityBefore.IsTrue() {
			score += activityBeforeNews
		}
	}

	if snap.Timing.ReleasedAfterHours && snap.Timing.ContainsMaterialInfo {
		score += afterHoursMaterial
	}

	if c := snap.Content; c != nil {
		if c.Vague {
			score += contentVague
		}
		if c.Promotional {
			score += contentPromotional
		}
		if c.Exaggerated {
			score += contentExaggerated
		}
		if c.Precise {
			score += contentPrecise
		}
		if c.Detailed {
			score += contentDetailed
		}
	}

	return clamp(score)
}

// ScoreTip computes the suspicion score for a social-media tip. Higher means
// riskier. Tips start from a default-suspicious baseline; the result is
// always within [ScoreMin, ScoreMax].
func ScoreTip(snap evidence.TipSnapshot) int {
	score := tipBaseline

	if snap.AuthorVerified.IsTrue() {
		score += authorVerifiedBonus
	}
	if snap.AccountAgeDays != nil && *snap.AccountAgeDays < youngAccountMaxDays {
		score += youngAccountPenalty
	}
	if snap.Market.UnusualVolume.IsTrue() {
		score += unusualVolumeSignal
	}
	if containsPressurePhrase(snap.Content) {
		score += pressurePhraseHit
	}

	return clamp(score)
}

func containsPressurePhrase(content string) bool {
	lowered := strings.ToLower(content)
	for _, phrase := range pressurePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func capped(points, limit int) int {
	if points > limit {
		return limit
	}
	return points
}

func clamp(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

package evidence

import "slices"

// AnnouncementDelta is a partial evidence update. Nil field groups are left
// untouched by the merge; cross-references are appended, never replaced.
type AnnouncementDelta struct {
	CrossReferences []CrossReference    `json:"crossReferences,omitempty"`
	CounterParty    *CounterPartyResult `json:"counterParty,omitempty"`
	Historical      *HistoricalCheck    `json:"historical,omitempty"`
	Content         *ContentAnalysis    `json:"content,omitempty"`
	PublicDomain    *PublicDomainCheck  `json:"publicDomain,omitempty"`
	Timing          *Timing             `json:"timing,omitempty"`
}

// TipDelta is a partial evidence update for a social-media tip.
type TipDelta struct {
	AuthorVerified *bool          `json:"authorVerified,omitempty"`
	AccountAgeDays *int           `json:"accountAgeDays,omitempty"`
	Market         *MarketContext `json:"market,omitempty"`
}

// MergeAnnouncement applies a delta on top of a snapshot and returns the
// merged snapshot. Neither input is mutated. Merges of disjoint field groups
// commute, so submission order does not affect the result.
func MergeAnnouncement(snap AnnouncementSnapshot, delta AnnouncementDelta) AnnouncementSnapshot {
	merged := snap
	merged.CrossReferences = slices.Clone(snap.CrossReferences)
	if snap.Historical != nil {
		h := *snap.Historical
		merged.Historical = &h
	}
	if snap.Content != nil {
		c := *snap.Content
		merged.Content = &c
	}
	if snap.PublicDomain != nil {
		p := *snap.PublicDomain
		p.Sources = slices.Clone(snap.PublicDomain.Sources)
		merged.PublicDomain = &p
	}

	merged.CrossReferences = append(merged.CrossReferences, delta.CrossReferences...)
	if delta.CounterParty != nil {
		merged.CounterParty = *delta.CounterParty
	}
	if delta.Historical != nil {
		h := *delta.Historical
		merged.Historical = &h
	}
	if delta.Content != nil {
		c := *delta.Content
		merged.Content = &c
	}
	if delta.PublicDomain != nil {
		p := *delta.PublicDomain
		p.Sources = slices.Clone(delta.PublicDomain.Sources)
		merged.PublicDomain = &p
	}
	if delta.Timing != nil {
		merged.Timing = *delta.Timing
	}
	return merged
}

// MergeTip applies a delta on top of a tip snapshot and returns the merged
// snapshot. Neither input is mutated.
func MergeTip(snap TipSnapshot, delta TipDelta) TipSnapshot {
	merged := snap
	if snap.AccountAgeDays != nil {
		age := *snap.AccountAgeDays
		merged.AccountAgeDays = &age
	}

	if delta.AuthorVerified != nil {
		merged.AuthorVerified = FlagOf(*delta.AuthorVerified)
	}
	if delta.AccountAgeDays != nil {
		age := *delta.AccountAgeDays
		merged.AccountAgeDays = &age
	}
	if delta.Market != nil {
		merged.Market = *delta.Market
	}
	return merged
}

// Validate checks that every tri-state field of the delta carries an allowed
// value. Out-of-range values come from callers bypassing the typed API, e.g.
// hand-built JSON.
func (d AnnouncementDelta) Validate() bool {
	if d.CounterParty != nil && !d.CounterParty.Valid() {
		return false
	}
	if d.Historical != nil {
		if !d.Historical.PerformanceConsistency.Valid() || !d.Historical.SuddenDramaticClaims.Valid() {
			return false
		}
	}
	if d.PublicDomain != nil {
		if !d.PublicDomain.ConsistentWithPublicInfo.Valid() || !d.PublicDomain.UnusualMarketActivityBefore.Valid() {
			return false
		}
	}
	for _, ref := range d.CrossReferences {
		if ref.Source == "" {
			return false
		}
	}
	return true
}

// Validate checks the tip delta's tri-state fields.
func (d TipDelta) Validate() bool {
	if d.AccountAgeDays != nil && *d.AccountAgeDays < 0 {
		return false
	}
	if d.Market != nil && !d.Market.UnusualVolume.Valid() {
		return false
	}
	return true
}

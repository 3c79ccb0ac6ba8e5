// Package evidence defines the typed evidence model for announcements and
// social-media tips. Every field a verification check can supply is an
// explicit named field, tri-state where absence must stay distinguishable
// from false, so the scoring engine stays total over its inputs.
package evidence

import "time"

// Flag is a tri-state evidence value. The zero value is FlagUnknown, which
// scoring treats as neutral.
type Flag string

const (
	FlagUnknown Flag = ""
	FlagTrue    Flag = "true"
	FlagFalse   Flag = "false"
)

// FlagOf converts a known boolean into a Flag.
func FlagOf(v bool) Flag {
	if v {
		return FlagTrue
	}
	return FlagFalse
}

// IsTrue reports whether the flag is known and true.
func (f Flag) IsTrue() bool { return f == FlagTrue }

// IsFalse reports whether the flag is known and false.
func (f Flag) IsFalse() bool { return f == FlagFalse }

// IsKnown reports whether the flag carries a value.
func (f Flag) IsKnown() bool { return f == FlagTrue || f == FlagFalse }

// Valid reports whether the flag is one of the three allowed states.
func (f Flag) Valid() bool {
	return f == FlagUnknown || f == FlagTrue || f == FlagFalse
}

// CounterPartyResult is the outcome of checking an announcement with the
// counter-party company it names.
type CounterPartyResult string

const (
	CounterPartyUnknown      CounterPartyResult = ""
	CounterPartyConfirmed    CounterPartyResult = "confirmed"
	CounterPartyContradicted CounterPartyResult = "contradicted"
)

// Valid reports whether the result is one of the allowed states.
func (r CounterPartyResult) Valid() bool {
	return r == CounterPartyUnknown || r == CounterPartyConfirmed || r == CounterPartyContradicted
}

// SourceType categorizes a cross-reference source.
type SourceType string

const (
	SourceOfficial   SourceType = "official"
	SourceRegulatory SourceType = "regulatory"
	SourceNews       SourceType = "news"
	SourceOther      SourceType = "other"
)

// CrossReference is an external citation supporting an announcement.
type CrossReference struct {
	Source     string     `json:"source"`
	SourceType SourceType `json:"sourceType"`
	URL        string     `json:"url,omitempty"`
	AddedAt    time.Time  `json:"addedAt"`
}

// IsOfficial reports whether the reference counts as a high-quality source.
func (r CrossReference) IsOfficial() bool {
	return r.SourceType == SourceOfficial || r.SourceType == SourceRegulatory
}

// ContentAnalysis holds the language-analysis flags for an announcement.
// Flags are independent; only set flags contribute to the score.
type ContentAnalysis struct {
	Vague       bool `json:"vague"`
	Promotional bool `json:"promotional"`
	Exaggerated bool `json:"exaggerated"`
	Precise     bool `json:"precise"`
	Detailed    bool `json:"detailed"`
}

// HistoricalCheck is the result of comparing an announcement against the
// company's historical filings.
type HistoricalCheck struct {
	PerformanceConsistency Flag `json:"performanceConsistency"`
	SuddenDramaticClaims   Flag `json:"suddenDramaticClaims"`
}

// PublicDomainCheck is the result of comparing an announcement against
// publicly available information.
type PublicDomainCheck struct {
	ConsistentWithPublicInfo    Flag     `json:"consistentWithPublicInfo"`
	UnusualMarketActivityBefore Flag     `json:"unusualMarketActivityBefore"`
	Sources                     []string `json:"sources,omitempty"`
}

// Timing captures release-timing signals attached at ingestion.
type Timing struct {
	ReleasedAfterHours   bool `json:"releasedAfterHours"`
	ContainsMaterialInfo bool `json:"containsMaterialInfo"`
}

// AnnouncementSnapshot is the full set of evidence currently attached to an
// announcement. All fields are independently optional.
type AnnouncementSnapshot struct {
	CrossReferences []CrossReference   `json:"crossReferences,omitempty"`
	CounterParty    CounterPartyResult `json:"counterParty,omitempty"`
	Historical      *HistoricalCheck   `json:"historical,omitempty"`
	Content         *ContentAnalysis   `json:"content,omitempty"`
	PublicDomain    *PublicDomainCheck `json:"publicDomain,omitempty"`
	Timing          Timing             `json:"timing"`
}

// MarketContext carries the market-activity signals linked to a tip.
type MarketContext struct {
	UnusualVolume Flag `json:"unusualVolume"`
}

// TipSnapshot is the full set of evidence currently attached to a
// social-media tip.
type TipSnapshot struct {
	AuthorVerified Flag          `json:"authorVerified"`
	AccountAgeDays *int          `json:"accountAgeDays,omitempty"`
	Content        string        `json:"content"`
	Market         MarketContext `json:"market"`
}

// SubmissionMethod identifies which verification check produced an evidence
// submission. It is recorded verbatim in the history ledger.
type SubmissionMethod string

const (
	MethodCounterPartyVerification SubmissionMethod = "counter-party-verification"
	MethodHistoricalFilingCheck    SubmissionMethod = "historical-filing-check"
	MethodContentAnalysis          SubmissionMethod = "content-analysis"
	MethodPublicDomainCheck        SubmissionMethod = "public-domain-check"
	MethodManualReview             SubmissionMethod = "manual-review"
	MethodComprehensive            SubmissionMethod = "comprehensive-verification"
)

// Valid reports whether the method is a recognized submission kind.
func (m SubmissionMethod) Valid() bool {
	switch m {
	case MethodCounterPartyVerification, MethodHistoricalFilingCheck,
		MethodContentAnalysis, MethodPublicDomainCheck,
		MethodManualReview, MethodComprehensive:
		return true
	default:
		return false
	}
}

// AllowsStatusOverride reports whether an analyst may attach an explicit
// status to a submission of this kind instead of taking the classifier's
// verdict.
func (m SubmissionMethod) AllowsStatusOverride() bool {
	return m == MethodComprehensive || m == MethodManualReview
}

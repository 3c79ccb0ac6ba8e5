// model.go defines the persisted data model for surveilled entities.
package datastore

import (
	"time"

	"github.com/tradesentry/fraudwatch-go/internal/evidence"
	"github.com/tradesentry/fraudwatch-go/internal/scoring"
)

// Announcement represents a corporate announcement under surveillance.
// Revision backs the optimistic-concurrency contract: every successful save
// increments it, and saves against a stale revision are rejected.
type Announcement struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	CompanyID   string `gorm:"index:idx_announcements_company"`
	CompanyName string
	Title       string
	Body        string `gorm:"type:text"`
	PublishedAt time.Time

	Status           scoring.AnnouncementStatus `gorm:"type:varchar(20);index:idx_announcements_status"`
	CredibilityScore *int
	Revision         uint `gorm:"not null;default:0"`

	// Timing signals attached at ingestion.
	ReleasedAfterHours   bool
	ContainsMaterialInfo bool

	// Counter-party verification result.
	CounterPartyResult    evidence.CounterPartyResult `gorm:"type:varchar(16)"`
	CounterPartyCompanyID string

	// Historical-filing check; Checked records whether the group was ever
	// submitted, since all-unknown flags are indistinguishable otherwise.
	HistoricalChecked                bool
	HistoricalPerformanceConsistency evidence.Flag `gorm:"type:varchar(8)"`
	HistoricalSuddenDramaticClaims   evidence.Flag `gorm:"type:varchar(8)"`

	// Public-domain check.
	PublicDomainChecked         bool
	PublicConsistentWithInfo    evidence.Flag `gorm:"type:varchar(8)"`
	PublicUnusualActivityBefore evidence.Flag `gorm:"type:varchar(8)"`
	PublicSources               []string      `gorm:"serializer:json"`

	// Content-language analysis flags.
	ContentAnalyzed    bool
	ContentVague       bool
	ContentPromotional bool
	ContentExaggerated bool
	ContentPrecise     bool
	ContentDetailed    bool

	CrossReferences []CrossReference `gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE"`
	Events          []EvidenceEvent  `gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE"`
	Alerts          []AlertRecord    `gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot assembles the evidence snapshot currently attached to the
// announcement.
func (a *Announcement) Snapshot() evidence.AnnouncementSnapshot {
	snap := evidence.AnnouncementSnapshot{
		CounterParty: a.CounterPartyResult,
		Timing: evidence.Timing{
			ReleasedAfterHours:   a.ReleasedAfterHours,
			ContainsMaterialInfo: a.ContainsMaterialInfo,
		},
	}
	for _, ref := range a.CrossReferences {
		snap.CrossReferences = append(snap.CrossReferences, evidence.CrossReference{
			Source:     ref.Source,
			SourceType: ref.SourceType,
			URL:        ref.URL,
			AddedAt:    ref.AddedAt,
		})
	}
	if a.HistoricalChecked {
		snap.Historical = &evidence.HistoricalCheck{
			PerformanceConsistency: a.HistoricalPerformanceConsistency,
			SuddenDramaticClaims:   a.HistoricalSuddenDramaticClaims,
		}
	}
	if a.PublicDomainChecked {
		snap.PublicDomain = &evidence.PublicDomainCheck{
			ConsistentWithPublicInfo:    a.PublicConsistentWithInfo,
			UnusualMarketActivityBefore: a.PublicUnusualActivityBefore,
			Sources:                     a.PublicSources,
		}
	}
	if a.ContentAnalyzed {
		snap.Content = &evidence.ContentAnalysis{
			Vague:       a.ContentVague,
			Promotional: a.ContentPromotional,
			Exaggerated: a.ContentExaggerated,
			Precise:     a.ContentPrecise,
			Detailed:    a.ContentDetailed,
		}
	}
	return snap
}

// ApplySnapshot writes a merged evidence snapshot back onto the entity's
// columns. New cross-references are appended as unsaved rows; existing rows
// are never modified.
func (a *Announcement) ApplySnapshot(snap evidence.AnnouncementSnapshot) {
	a.CounterPartyResult = snap.CounterParty
	a.ReleasedAfterHours = snap.Timing.ReleasedAfterHours
	a.ContainsMaterialInfo = snap.Timing.ContainsMaterialInfo

	if len(snap.CrossReferences) > len(a.CrossReferences) {
		for _, ref := range snap.CrossReferences[len(a.CrossReferences):] {
			a.CrossReferences = append(a.CrossReferences, CrossReference{
				AnnouncementID: a.ID,
				Source:         ref.Source,
				SourceType:     ref.SourceType,
				URL:            ref.URL,
				AddedAt:        ref.AddedAt,
			})
		}
	}

	if snap.Historical != nil {
		a.HistoricalChecked = true
		a.HistoricalPerformanceConsistency = snap.Historical.PerformanceConsistency
		a.HistoricalSuddenDramaticClaims = snap.Historical.SuddenDramaticClaims
	}
	if snap.PublicDomain != nil {
		a.PublicDomainChecked = true
		a.PublicConsistentWithInfo = snap.PublicDomain.ConsistentWithPublicInfo
		a.PublicUnusualActivityBefore = snap.PublicDomain.UnusualMarketActivityBefore
		a.PublicSources = snap.PublicDomain.Sources
	}
	if snap.Content != nil {
		a.ContentAnalyzed = true
		a.ContentVague = snap.Content.Vague
		a.ContentPromotional = snap.Content.Promotional
		a.ContentExaggerated = snap.Content.Exaggerated
		a.ContentPrecise = snap.Content.Precise
		a.ContentDetailed = snap.Content.Detailed
	}
}

// CrossReference is an external citation row supporting an announcement.
type CrossReference struct {
	ID             uint                `gorm:"primaryKey"`
	AnnouncementID string              `gorm:"index;not null;type:varchar(36)"`
	Source         string              `gorm:"not null"`
	SourceType     evidence.SourceType `gorm:"type:varchar(16)"`
	URL            string
	AddedAt        time.Time
}

// SocialMediaTip represents a social-media stock tip under analysis.
type SocialMediaTip struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Platform     string `gorm:"index:idx_tips_platform"`
	AuthorHandle string
	Content      string `gorm:"type:text"`
	PublishedAt  time.Time

	Status         scoring.TipStatus `gorm:"type:varchar(20);index:idx_tips_status"`
	SuspicionScore *int
	Revision       uint `gorm:"not null;default:0"`

	AuthorVerified evidence.Flag `gorm:"type:varchar(8)"`
	AccountAgeDays *int
	UnusualVolume  evidence.Flag `gorm:"type:varchar(8)"`

	Events     []EvidenceEvent  `gorm:"foreignKey:TipID;constraint:OnDelete:CASCADE"`
	Activities []MarketActivity `gorm:"many2many:tip_market_links"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot assembles the evidence snapshot currently attached to the tip.
func (t *SocialMediaTip) Snapshot() evidence.TipSnapshot {
	snap := evidence.TipSnapshot{
		AuthorVerified: t.AuthorVerified,
		Content:        t.Content,
		Market:         evidence.MarketContext{UnusualVolume: t.UnusualVolume},
	}
	if t.AccountAgeDays != nil {
		age := *t.AccountAgeDays
		snap.AccountAgeDays = &age
	}
	return snap
}

// ApplySnapshot writes a merged evidence snapshot back onto the tip.
func (t *SocialMediaTip) ApplySnapshot(snap evidence.TipSnapshot) {
	t.AuthorVerified = snap.AuthorVerified
	t.UnusualVolume = snap.Market.UnusualVolume
	if snap.AccountAgeDays != nil {
		age := *snap.AccountAgeDays
		t.AccountAgeDays = &age
	}
}

// ActivityType categorizes an observed unusual trading event.
type ActivityType string

const (
	ActivityPriceSpike     ActivityType = "price_spike"
	ActivityVolumeSurge    ActivityType = "volume_surge"
	ActivityUnusualOptions ActivityType = "unusual_options"
)

// Valid reports whether the activity type is recognized.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityPriceSpike, ActivityVolumeSurge, ActivityUnusualOptions:
		return true
	default:
		return false
	}
}

// MarketActivity is an observed unusual trading event for a security. It is
// a linkage target and evidence input, never scored itself.
type MarketActivity struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)"`
	Symbol      string       `gorm:"index:idx_activity_symbol"`
	Type        ActivityType `gorm:"type:varchar(20)"`
	Description string       `gorm:"type:text"`
	ObservedAt  time.Time    `gorm:"index"`

	Tips []SocialMediaTip `gorm:"many2many:tip_market_links"`

	CreatedAt time.Time
}

// EvidenceEvent is one immutable history-ledger row. Exactly one of
// AnnouncementID and TipID is set; rows are only ever inserted.
type EvidenceEvent struct {
	ID             uint    `gorm:"primaryKey"`
	AnnouncementID *string `gorm:"index;type:varchar(36)"`
	TipID          *string `gorm:"index;type:varchar(36)"`

	Timestamp time.Time                 `gorm:"index;not null"`
	Method    evidence.SubmissionMethod `gorm:"type:varchar(32);not null"`
	Status    string                    `gorm:"type:varchar(20)"`
	Score     *int
	Notes     string `gorm:"type:text"`
}

// AlertRecord is one dispatched fraud alert for an announcement. Alerts are
// a side-channel audit trail; they never feed back into scoring.
type AlertRecord struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)"`
	AnnouncementID string    `gorm:"index;not null;type:varchar(36)"`
	AlertType      string    `gorm:"type:varchar(20)"`
	Message        string    `gorm:"type:text"`
	Recipients     []string  `gorm:"serializer:json"`
	SentAt         time.Time `gorm:"index"`
	Status         string    `gorm:"type:varchar(16)"`
}

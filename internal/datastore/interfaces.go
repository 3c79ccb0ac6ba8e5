// interfaces.go defines the persistence boundary for the verification
// workflow. The workflow is agnostic to how entities are stored; filtering,
// date ranges and pagination all live behind this interface.
package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

// ErrRevisionConflict is returned by the Save methods when the entity was
// modified since the caller loaded it.
var ErrRevisionConflict = errors.Newf("entity revision conflict").
	Component("datastore").
	Category(errors.CategoryConflict).
	Build()

// AnnouncementFilter narrows ListAnnouncements results. Zero-value fields
// are ignored.
type AnnouncementFilter struct {
	CompanyID string
	Status    string
	Limit     int
	Offset    int
}

// TipFilter narrows ListTips results. Zero-value fields are ignored.
type TipFilter struct {
	Platform string
	Status   string
	MinScore *int
	Limit    int
	Offset   int
}

// ActivityFilter narrows ListMarketActivity results.
type ActivityFilter struct {
	Symbol string
	Limit  int
	Offset int
}

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error

	CreateAnnouncement(ctx context.Context, a *Announcement) error
	GetAnnouncement(ctx context.Context, id string) (Announcement, error)
	// SaveAnnouncement persists the entity and its new history event in one
	// transaction, guarded by a compare-and-swap on expectedRevision.
	SaveAnnouncement(ctx context.Context, a *Announcement, event *EvidenceEvent, expectedRevision uint) error
	ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]Announcement, error)
	GetAnnouncementHistory(ctx context.Context, id string) ([]EvidenceEvent, error)
	AppendAlert(ctx context.Context, alert *AlertRecord) error
	GetAlerts(ctx context.Context, announcementID string) ([]AlertRecord, error)

	CreateTip(ctx context.Context, tip *SocialMediaTip) error
	GetTip(ctx context.Context, id string) (SocialMediaTip, error)
	SaveTip(ctx context.Context, tip *SocialMediaTip, event *EvidenceEvent, expectedRevision uint) error
	ListTips(ctx context.Context, filter TipFilter) ([]SocialMediaTip, error)
	GetTipHistory(ctx context.Context, id string) ([]EvidenceEvent, error)

	CreateMarketActivity(ctx context.Context, activity *MarketActivity) error
	GetMarketActivity(ctx context.Context, id string) (MarketActivity, error)
	ListMarketActivity(ctx context.Context, filter ActivityFilter) ([]MarketActivity, error)
	LinkTipToActivity(ctx context.Context, tipID, activityID string) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a datastore for the enabled backend in settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

func notFound(entity, id string) error {
	return errors.Newf("%s %s not found", entity, id).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Build()
}

func dbErr(op string, err error) error {
	return errors.Newf("%s: %w", op, err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
}

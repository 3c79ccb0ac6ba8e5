package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/tradesentry/fraudwatch-go/internal/errors"
)

// CreateAnnouncement stores a new announcement together with any attached
// cross-references. The caller is responsible for the pending/null initial
// state.
func (ds *DataStore) CreateAnnouncement(ctx context.Context, a *Announcement) error {
	if err := ds.DB.WithContext(ctx).Create(a).Error; err != nil {
		return dbErr("creating announcement", err)
	}
	return nil
}

// GetAnnouncement retrieves an announcement with its evidence, history and
// alerts preloaded.
func (ds *DataStore) GetAnnouncement(ctx context.Context, id string) (Announcement, error) {
	var a Announcement
	err := ds.DB.WithContext(ctx).
		Preload("CrossReferences", func(db *gorm.DB) *gorm.DB { return db.Order("cross_references.id ASC") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("evidence_events.id ASC") }).
		Preload("Alerts", func(db *gorm.DB) *gorm.DB { return db.Order("alert_records.sent_at ASC") }).
		First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Announcement{}, notFound("announcement", id)
		}
		return Announcement{}, dbErr("getting announcement", err)
	}
	return a, nil
}

// SaveAnnouncement persists a modified announcement guarded by a
// compare-and-swap on the revision column. The row update, any new
// cross-references and the new history event commit in a single
// transaction; a stale revision yields ErrRevisionConflict and the entity
// is left unchanged.
func (ds *DataStore) SaveAnnouncement(ctx context.Context, a *Announcement, event *EvidenceEvent, expectedRevision uint) error {
	return ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a.Revision = expectedRevision + 1
		res := tx.Model(&Announcement{}).
			Where("id = ? AND revision = ?", a.ID, expectedRevision).
			Select("*").
			Omit("id", "created_at").
			Updates(a)
		if res.Error != nil {
			return dbErr("saving announcement", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&Announcement{}).Where("id = ?", a.ID).Count(&count).Error; err != nil {
				return dbErr("saving announcement", err)
			}
			if count == 0 {
				return notFound("announcement", a.ID)
			}
			return ErrRevisionConflict
		}

		for i := range a.CrossReferences {
			if a.CrossReferences[i].ID != 0 {
				continue
			}
			a.CrossReferences[i].AnnouncementID = a.ID
			if err := tx.Create(&a.CrossReferences[i]).Error; err != nil {
				return dbErr("saving cross-reference", err)
			}
		}

		if event != nil {
			event.AnnouncementID = &a.ID
			if err := tx.Create(event).Error; err != nil {
				return dbErr("appending evidence event", err)
			}
		}
		return nil
	})
}

// ListAnnouncements returns announcements matching the filter, newest first.
func (ds *DataStore) ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]Announcement, error) {
	q := ds.DB.WithContext(ctx).Model(&Announcement{}).Order("published_at DESC")
	if filter.CompanyID != "" {
		q = q.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var out []Announcement
	if err := q.Find(&out).Error; err != nil {
		return nil, dbErr("listing announcements", err)
	}
	return out, nil
}

// GetAnnouncementHistory returns the announcement's full ordered evidence
// history.
func (ds *DataStore) GetAnnouncementHistory(ctx context.Context, id string) ([]EvidenceEvent, error) {
	if _, err := ds.GetAnnouncement(ctx, id); err != nil {
		return nil, err
	}
	var events []EvidenceEvent
	err := ds.DB.WithContext(ctx).
		Where("announcement_id = ?", id).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, dbErr("getting announcement history", err)
	}
	return events, nil
}

// AppendAlert stores a dispatched alert record. Alerts never modify the
// announcement row itself.
func (ds *DataStore) AppendAlert(ctx context.Context, alert *AlertRecord) error {
	if err := ds.DB.WithContext(ctx).Create(alert).Error; err != nil {
		return dbErr("appending alert", err)
	}
	return nil
}

// GetAlerts returns the alerts dispatched for an announcement.
func (ds *DataStore) GetAlerts(ctx context.Context, announcementID string) ([]AlertRecord, error) {
	var alerts []AlertRecord
	err := ds.DB.WithContext(ctx).
		Where("announcement_id = ?", announcementID).
		Order("sent_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, dbErr("getting alerts", err)
	}
	return alerts, nil
}

// CreateTip stores a new social-media tip.
func (ds *DataStore) CreateTip(ctx context.Context, tip *SocialMediaTip) error {
	if err := ds.DB.WithContext(ctx).Create(tip).Error; err != nil {
		return dbErr("creating tip", err)
	}
	return nil
}

// GetTip retrieves a tip with its history and linked market activity.
func (ds *DataStore) GetTip(ctx context.Context, id string) (SocialMediaTip, error) {
	var tip SocialMediaTip
	err := ds.DB.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("evidence_events.id ASC") }).
		Preload("Activities").
		First(&tip, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SocialMediaTip{}, notFound("tip", id)
		}
		return SocialMediaTip{}, dbErr("getting tip", err)
	}
	return tip, nil
}

// SaveTip persists a modified tip with the same compare-and-swap contract as
// SaveAnnouncement.
func (ds *DataStore) SaveTip(ctx context.Context, tip *SocialMediaTip, event *EvidenceEvent, expectedRevision uint) error {
	return ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tip.Revision = expectedRevision + 1
		res := tx.Model(&SocialMediaTip{}).
			Where("id = ? AND revision = ?", tip.ID, expectedRevision).
			Select("*").
			Omit("id", "created_at").
			Updates(tip)
		if res.Error != nil {
			return dbErr("saving tip", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&SocialMediaTip{}).Where("id = ?", tip.ID).Count(&count).Error; err != nil {
				return dbErr("saving tip", err)
			}
			if count == 0 {
				return notFound("tip", tip.ID)
			}
			return ErrRevisionConflict
		}

		if event != nil {
			event.TipID = &tip.ID
			if err := tx.Create(event).Error; err != nil {
				return dbErr("appending evidence event", err)
			}
		}
		return nil
	})
}

// ListTips returns tips matching the filter, newest first.
func (ds *DataStore) ListTips(ctx context.Context, filter TipFilter) ([]SocialMediaTip, error) {
	q := ds.DB.WithContext(ctx).Model(&SocialMediaTip{}).Order("published_at DESC")
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MinScore != nil {
		q = q.Where("suspicion_score >= ?", *filter.MinScore)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var out []SocialMediaTip
	if err := q.Find(&out).Error; err != nil {
		return nil, dbErr("listing tips", err)
	}
	return out, nil
}

// GetTipHistory returns the tip's full ordered evidence history.
func (ds *DataStore) GetTipHistory(ctx context.Context, id string) ([]EvidenceEvent, error) {
	if _, err := ds.GetTip(ctx, id); err != nil {
		return nil, err
	}
	var events []EvidenceEvent
	err := ds.DB.WithContext(ctx).
		Where("tip_id = ?", id).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, dbErr("getting tip history", err)
	}
	return events, nil
}

// CreateMarketActivity records an observed unusual trading event.
func (ds *DataStore) CreateMarketActivity(ctx context.Context, activity *MarketActivity) error {
	if err := ds.DB.WithContext(ctx).Create(activity).Error; err != nil {
		return dbErr("creating market activity", err)
	}
	return nil
}

// GetMarketActivity retrieves a market-activity record with linked tips.
func (ds *DataStore) GetMarketActivity(ctx context.Context, id string) (MarketActivity, error) {
	var activity MarketActivity
	err := ds.DB.WithContext(ctx).
		Preload("Tips").
		First(&activity, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MarketActivity{}, notFound("market activity", id)
		}
		return MarketActivity{}, dbErr("getting market activity", err)
	}
	return activity, nil
}

// ListMarketActivity returns activity records matching the filter, newest
// first.
func (ds *DataStore) ListMarketActivity(ctx context.Context, filter ActivityFilter) ([]MarketActivity, error) {
	q := ds.DB.WithContext(ctx).Model(&MarketActivity{}).
		Preload("Tips").
		Order("observed_at DESC")
	if filter.Symbol != "" {
		q = q.Where("symbol = ?", filter.Symbol)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var out []MarketActivity
	if err := q.Find(&out).Error; err != nil {
		return nil, dbErr("listing market activity", err)
	}
	return out, nil
}

// LinkTipToActivity creates the bidirectional association between a tip and
// a market-activity record.
func (ds *DataStore) LinkTipToActivity(ctx context.Context, tipID, activityID string) error {
	tip, err := ds.GetTip(ctx, tipID)
	if err != nil {
		return err
	}
	activity, err := ds.GetMarketActivity(ctx, activityID)
	if err != nil {
		return err
	}

	err = ds.DB.WithContext(ctx).
		Model(&SocialMediaTip{ID: tip.ID}).
		Association("Activities").
		Append(&MarketActivity{ID: activity.ID})
	if err != nil {
		return dbErr("linking tip to market activity", err)
	}
	return nil
}

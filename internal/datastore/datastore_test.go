package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tradesentry/fraudwatch-go/internal/errors"
	"github.com/tradesentry/fraudwatch-go/internal/evidence"
	"github.com/tradesentry/fraudwatch-go/internal/scoring"
)

func setupTestDB(t *testing.T) *DataStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, performAutoMigration(db))

	return &DataStore{DB: db}
}

func newTestAnnouncement() *Announcement {
	return &Announcement{
		ID:          uuid.New().String(),
		CompanyID:   "ACME",
		CompanyName: "Acme Corp",
		Title:       "Quarterly results",
		Body:        "Revenue grew 4% year over year.",
		PublishedAt: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Status:      scoring.StatusPending,
	}
}

func newTestTip() *SocialMediaTip {
	return &SocialMediaTip{
		ID:           uuid.New().String(),
		Platform:     "twitter",
		AuthorHandle: "@stockguru99",
		Content:      "This stock is about to explode!",
		PublishedAt:  time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC),
		Status:       scoring.TipPending,
	}
}

func TestCreateAndGetAnnouncement(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnnouncement()
	a.CrossReferences = []CrossReference{
		{Source: "Reuters", SourceType: evidence.SourceNews, URL: "https://example.com/r1"},
	}
	require.NoError(t, ds.CreateAnnouncement(ctx, a))

	got, err := ds.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.CompanyID, got.CompanyID)
	assert.Equal(t, scoring.StatusPending, got.Status)
	assert.Nil(t, got.CredibilityScore)
	assert.Equal(t, uint(0), got.Revision)
	require.Len(t, got.CrossReferences, 1)
	assert.Equal(t, "Reuters", got.CrossReferences[0].Source)
}

func TestGetAnnouncementNotFound(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)

	_, err := ds.GetAnnouncement(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSaveAnnouncementIncrementsRevision(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnnouncement()
	require.NoError(t, ds.CreateAnnouncement(ctx, a))

	score := 65
	a.CredibilityScore = &score
	a.Status = scoring.StatusUncertain
	event := &EvidenceEvent{
		Timestamp: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Method:    evidence.MethodContentAnalysis,
		Status:    string(scoring.StatusUncertain),
		Score:     &score,
	}
	require.NoError(t, ds.SaveAnnouncement(ctx, a, event, 0))

	got, err := ds.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.Revision)
	require.NotNil(t, got.CredibilityScore)
	assert.Equal(t, 65, *got.CredibilityScore)
	assert.Equal(t, scoring.StatusUncertain, got.Status)
	require.Len(t, got.Events, 1)
	assert.Equal(t, evidence.MethodContentAnalysis, got.Events[0].Method)
}

func TestSaveAnnouncementStaleRevisionConflicts(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnnouncement()
	require.NoError(t, ds.CreateAnnouncement(ctx, a))
	require.NoError(t, ds.SaveAnnouncement(ctx, a, nil, 0))

	// A second writer still holding revision 0 must be rejected without
	// touching the row or appending history.
	stale := newTestAnnouncement()
	stale.ID = a.ID
	stale.Title = "overwritten"
	event := &EvidenceEvent{
		Timestamp: time.Now().UTC(),
		Method:    evidence.MethodManualReview,
	}
	err := ds.SaveAnnouncement(ctx, stale, event, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRevisionConflict))
	assert.True(t, errors.IsConflict(err))

	got, err := ds.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly results", got.Title)
	assert.Equal(t, uint(1), got.Revision)
	assert.Empty(t, got.Events)
}

func TestSaveAnnouncementMissingRowIsNotFound(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)

	a := newTestAnnouncement()
	err := ds.SaveAnnouncement(context.Background(), a, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSaveAnnouncementAppendsNewCrossReferences(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnnouncement()
	a.CrossReferences = []CrossReference{
		{Source: "Reuters", SourceType: evidence.SourceNews},
	}
	require.NoError(t, ds.CreateAnnouncement(ctx, a))

	loaded, err := ds.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)

	snap := loaded.Snapshot()
	snap.CrossReferences = append(snap.CrossReferences, evidence.CrossReference{
		Source:     "SEC EDGAR",
		SourceType: evidence.SourceRegulatory,
		AddedAt:    time.Now().UTC(),
	})
	loaded.ApplySnapshot(snap)
	require.NoError(t, ds.SaveAnnouncement(ctx, &loaded, nil, loaded.Revision))

	got, err := ds.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.CrossReferences, 2)
	assert.Equal(t, "Reuters", got.CrossReferences[0].Source)
	assert.Equal(t, "SEC EDGAR", got.CrossReferences[1].Source)
}

func TestAnnouncementHistoryOrdering(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnnouncement()
	require.NoError(t, ds.CreateAnnouncement(ctx, a))

	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	methods := []evidence.SubmissionMethod{
		evidence.MethodContentAnalysis,
		evidence.MethodHistoricalFilingCheck,
		evidence.MethodCounterPartyVerification,
	}
	for i, m := range methods {
		loaded, err := ds.GetAnnouncement(ctx, a.ID)
		require.NoError(t, err)
		event := &EvidenceEvent{Timestamp: base.Add(time.Duration(i) * time.Minute), Method: m}
		require.NoError(t, ds.SaveAnnouncement(ctx, &loaded, event, loaded.Revision))
	}

	history, err := ds.GetAnnouncementHistory(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, m := range methods {
		assert.Equal(t, m, history[i].Method)
	}
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}

func TestGetHistoryUnknownEntity(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)

	_, err := ds.GetAnnouncementHistory(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))

	_, err = ds.GetTipHistory(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestListAnnouncementsFilters(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a1 := newTestAnnouncement()
	a1.CompanyID = "ACME"
	a1.Status = scoring.StatusVerified
	a2 := newTestAnnouncement()
	a2.CompanyID = "GLOBEX"
	a2.Status = scoring.StatusFraudulent
	a2.PublishedAt = a1.PublishedAt.Add(time.Hour)
	require.NoError(t, ds.CreateAnnouncement(ctx, a1))
	require.NoError(t, ds.CreateAnnouncement(ctx, a2))

	all, err := ds.ListAnnouncements(ctx, AnnouncementFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a2.ID, all[0].ID, "newest first")

	byCompany, err := ds.ListAnnouncements(ctx, AnnouncementFilter{CompanyID: "ACME"})
	require.NoError(t, err)
	require.Len(t, byCompany, 1)
	assert.Equal(t, a1.ID, byCompany[0].ID)

	byStatus, err := ds.ListAnnouncements(ctx, AnnouncementFilter{Status: string(scoring.StatusFraudulent)})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, a2.ID, byStatus[0].ID)

	limited, err := ds.ListAnnouncements(ctx, AnnouncementFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, a1.ID, limited[0].ID)
}

func TestAlertsRoundTrip(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnnouncement()
	require.NoError(t, ds.CreateAnnouncement(ctx, a))

	alert := &AlertRecord{
		ID:             uuid.New().String(),
		AnnouncementID: a.ID,
		AlertType:      "fraud",
		Message:        "Announcement classified as fraudulent",
		Recipients:     []string{"surveillance-desk", "compliance"},
		SentAt:         time.Now().UTC(),
		Status:         "sent",
	}
	require.NoError(t, ds.AppendAlert(ctx, alert))

	alerts, err := ds.GetAlerts(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, []string{"surveillance-desk", "compliance"}, alerts[0].Recipients)
	assert.Equal(t, "fraud", alerts[0].AlertType)
}

func TestTipSaveAndConflict(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	tip := newTestTip()
	require.NoError(t, ds.CreateTip(ctx, tip))

	score := 75
	tip.SuspicionScore = &score
	tip.Status = scoring.TipSuspicious
	tip.AuthorVerified = evidence.FlagFalse
	event := &EvidenceEvent{
		Timestamp: time.Now().UTC(),
		Method:    evidence.MethodContentAnalysis,
		Status:    string(scoring.TipSuspicious),
		Score:     &score,
	}
	require.NoError(t, ds.SaveTip(ctx, tip, event, 0))

	got, err := ds.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.Revision)
	assert.Equal(t, scoring.TipSuspicious, got.Status)
	assert.Equal(t, evidence.FlagFalse, got.AuthorVerified)
	require.Len(t, got.Events, 1)

	err = ds.SaveTip(ctx, tip, nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRevisionConflict))
}

func TestListTipsMinScore(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	low, high := 20, 80
	t1 := newTestTip()
	t1.SuspicionScore = &low
	t1.Status = scoring.TipLegitimate
	t2 := newTestTip()
	t2.SuspicionScore = &high
	t2.Status = scoring.TipSuspicious
	require.NoError(t, ds.CreateTip(ctx, t1))
	require.NoError(t, ds.CreateTip(ctx, t2))

	threshold := 50
	tips, err := ds.ListTips(ctx, TipFilter{MinScore: &threshold})
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assert.Equal(t, t2.ID, tips[0].ID)
}

func TestLinkTipToActivity(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	tip := newTestTip()
	require.NoError(t, ds.CreateTip(ctx, tip))

	activity := &MarketActivity{
		ID:          uuid.New().String(),
		Symbol:      "ACME",
		Type:        ActivityVolumeSurge,
		Description: "Volume 12x the trailing average",
		ObservedAt:  time.Now().UTC(),
	}
	require.NoError(t, ds.CreateMarketActivity(ctx, activity))

	require.NoError(t, ds.LinkTipToActivity(ctx, tip.ID, activity.ID))

	gotTip, err := ds.GetTip(ctx, tip.ID)
	require.NoError(t, err)
	require.Len(t, gotTip.Activities, 1)
	assert.Equal(t, activity.ID, gotTip.Activities[0].ID)

	gotActivity, err := ds.GetMarketActivity(ctx, activity.ID)
	require.NoError(t, err)
	require.Len(t, gotActivity.Tips, 1)
	assert.Equal(t, tip.ID, gotActivity.Tips[0].ID)

	err = ds.LinkTipToActivity(ctx, "missing", activity.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	ds := setupTestDB(t)
	ctx := context.Background()

	a := newTestAnnouncement()
	require.NoError(t, ds.CreateAnnouncement(ctx, a))

	loaded, err := ds.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)

	snap := loaded.Snapshot()
	assert.Nil(t, snap.Historical)
	assert.Nil(t, snap.PublicDomain)
	assert.Nil(t, snap.Content)

	snap.CounterParty = evidence.CounterPartyConfirmed
	snap.Historical = &evidence.HistoricalCheck{
		PerformanceConsistency: evidence.FlagTrue,
		SuddenDramaticClaims:   evidence.FlagFalse,
	}
	snap.PublicDomain = &evidence.PublicDomainCheck{
		ConsistentWithPublicInfo: evidence.FlagTrue,
		Sources:                  []string{"exchange filing"},
	}
	loaded.ApplySnapshot(snap)
	require.NoError(t, ds.SaveAnnouncement(ctx, &loaded, nil, loaded.Revision))

	got, err := ds.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)
	round := got.Snapshot()
	assert.Equal(t, evidence.CounterPartyConfirmed, round.CounterParty)
	require.NotNil(t, round.Historical)
	assert.Equal(t, evidence.FlagTrue, round.Historical.PerformanceConsistency)
	require.NotNil(t, round.PublicDomain)
	assert.Equal(t, []string{"exchange filing"}, round.PublicDomain.Sources)
	assert.Equal(t, evidence.FlagUnknown, round.PublicDomain.UnusualMarketActivityBefore)
	assert.Nil(t, round.Content)
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

func testItem(id int64, domain model.Domain, a, b float64) *model.Item {
	return &model.Item{
		ID: id, Domain: domain, Difficulty: model.TierMedium,
		A: &a, B: &b, Active: true, Quality: model.QualityNormal,
	}
}

func TestItemBank_EligibleItemsExcludesServedAndIneligible(t *testing.T) {
	bank := NewItemBank(
		testItem(1, model.DomainMath, 1.0, 0.0),
		testItem(2, model.DomainMath, 1.2, 0.5),
		&model.Item{ID: 3, Domain: model.DomainMath, Active: false},
	)
	items, err := bank.EligibleItems(context.Background(), store.ItemFilter{Excluded: []int64{1}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestItemBank_UpdateCalibration_AppliesAll(t *testing.T) {
	bank := NewItemBank(&model.Item{ID: 1, Active: true, Quality: model.QualityNormal})
	err := bank.UpdateCalibration(context.Background(), []store.CalibrationUpdate{
		{ItemID: 1, A: 1.3, B: 0.2, CalibrationN: 50},
	})
	require.NoError(t, err)
	items, _ := bank.ByIDs(context.Background(), []int64{1})
	require.True(t, items[0].HasIRTParams())
	assert.Equal(t, 1.3, *items[0].A)
}

func TestResponseLog_DuplicateIsConflict(t *testing.T) {
	log := NewResponseLog()
	ctx := context.Background()
	r := &model.Response{SessionID: 1, ItemID: 1, UserID: 9, Correct: true}
	require.NoError(t, log.Insert(ctx, r))
	err := log.Insert(ctx, &model.Response{SessionID: 1, ItemID: 1, UserID: 9, Correct: false})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestResponseLog_CalibrationTuplesOnlyFixedForm(t *testing.T) {
	log := NewResponseLog()
	ctx := context.Background()
	log.MarkFixedForm(100)
	require.NoError(t, log.Insert(ctx, &model.Response{SessionID: 100, ItemID: 1, UserID: 9, Correct: true}))
	require.NoError(t, log.Insert(ctx, &model.Response{SessionID: 200, ItemID: 1, UserID: 9, Correct: true}))

	tuples, err := log.CalibrationTuples(ctx)
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, int64(9), tuples[0].UserID)
}

func TestBlacklist_RevokeAndCheck(t *testing.T) {
	bl := NewBlacklist()
	ctx := context.Background()

	recorded, err := bl.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, recorded)

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "jti-unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklist_ExpiredRevokeIsNoOp(t *testing.T) {
	bl := NewBlacklist()
	recorded, err := bl.Revoke(context.Background(), "jti-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestUsers_CreateDuplicateEmailIsConflict(t *testing.T) {
	users := NewUsers()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &model.User{Email: "a@example.com"}))
	err := users.Create(ctx, &model.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestUsers_AdvanceRevocation(t *testing.T) {
	users := NewUsers()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &model.User{Email: "a@example.com"}))
	now := time.Now()
	require.NoError(t, users.AdvanceRevocation(ctx, 1, now))
	u, err := users.ByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u.TokenRevokedBefore)
	assert.WithinDuration(t, now, *u.TokenRevokedBefore, time.Second)
}

func TestSessions_OnlyOneInProgressPerUser(t *testing.T) {
	sessions := NewSessions()
	ctx := context.Background()
	s1 := model.NewSession(0, 7, model.ModeAdaptive, time.Now())
	require.NoError(t, sessions.Start(ctx, s1))

	s2 := model.NewSession(0, 7, model.ModeAdaptive, time.Now())
	err := sessions.Start(ctx, s2)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestSessions_UpdateAdaptiveAndFinalize(t *testing.T) {
	sessions := NewSessions()
	ctx := context.Background()
	s := model.NewSession(0, 7, model.ModeAdaptive, time.Now())
	require.NoError(t, sessions.Start(ctx, s))

	require.NoError(t, sessions.UpdateAdaptive(ctx, s.ID, 0.5, 0.8, 10, model.DomainMath, true, 11))
	loaded, err := sessions.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ItemsAdministered)
	assert.Equal(t, 1, loaded.DomainServedCount(model.DomainMath))
	assert.Equal(t, int64(11), loaded.PendingItemID)

	require.NoError(t, sessions.Finalize(ctx, s.ID, model.StopMaxItems, 0.7, 0.25, time.Now()))
	loaded, _ = sessions.Load(ctx, s.ID)
	assert.True(t, loaded.Terminal())

	_, err = sessions.LoadInProgress(ctx, 7)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLocker_SerializesAccess(t *testing.T) {
	locker := NewLocker()
	release, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	release2()
}

func TestPasswordResets_ConsumeThenExpired(t *testing.T) {
	resets := NewPasswordResets()
	ctx := context.Background()
	now := time.Now()
	rt := &model.ResetToken{Token: "tok", UserID: 1, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, resets.Create(ctx, rt))

	consumed, err := resets.Consume(ctx, "tok", now)
	require.NoError(t, err)
	assert.Equal(t, "tok", consumed.Token)

	_, err = resets.Consume(ctx, "tok", now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPasswordResets_InvalidateForUser(t *testing.T) {
	resets := NewPasswordResets()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, resets.Create(ctx, &model.ResetToken{Token: "a", UserID: 1, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, resets.InvalidateForUser(ctx, 1, now))

	_, err := resets.Consume(ctx, "a", now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReliabilityMetrics_HistoryNewestFirst(t *testing.T) {
	metrics := NewReliabilityMetrics()
	ctx := context.Background()
	require.NoError(t, metrics.Record(ctx, &model.ReliabilityMetric{Kind: model.MetricCronbachAlpha, Value: 0.7}))
	require.NoError(t, metrics.Record(ctx, &model.ReliabilityMetric{Kind: model.MetricCronbachAlpha, Value: 0.8}))

	history, err := metrics.History(ctx, model.MetricCronbachAlpha, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 0.8, history[0].Value)
}

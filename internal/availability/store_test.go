package availability

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestStore_GetConfigReturnsDefaultsWhenUnset(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.GetConfig(context.Background(), KindTrial)
	require.NoError(t, err)
	assert.Equal(t, KindTrial, cfg.Kind)
	assert.Equal(t, TrialDurationMinutes, cfg.SlotDuration())
	assert.True(t, cfg.Day(time.Monday).Enabled)
	assert.False(t, cfg.Day(time.Sunday).Enabled)
}

func TestStore_SetAndGetConfigRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := DefaultConfig(KindInterview)
	cfg.SlotDurationMinutes = 45
	cfg.Schedule["saturday"] = DaySchedule{Enabled: true, Windows: []Window{{Start: "10:00", End: "14:00"}}}
	require.NoError(t, store.SetConfig(ctx, cfg))

	got, err := store.GetConfig(ctx, KindInterview)
	require.NoError(t, err)
	assert.Equal(t, 45, got.SlotDuration())
	assert.True(t, got.Day(time.Saturday).Enabled)
}

func TestStore_SetConfigRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	cfg := DefaultConfig(KindInterview)
	cfg.Schedule["monday"] = DaySchedule{Enabled: true, Windows: []Window{
		{Start: "09:00", End: "12:00"},
		{Start: "10:00", End: "13:00"},
	}}
	err := store.SetConfig(context.Background(), cfg)
	require.Error(t, err)

	// Nothing was written; defaults still served.
	got, err := store.GetConfig(context.Background(), KindInterview)
	require.NoError(t, err)
	assert.Equal(t, DefaultSlotDurationMinutes, got.SlotDuration())
}

func TestStore_BlocksRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetBlocks(ctx)
	require.NoError(t, err)
	assert.False(t, got.LunchBlock.Enabled)

	blocks := &Blocks{
		BankHolidays: []string{"2026-12-25", "2026-12-28"},
		LunchBlock:   LunchBlock{Enabled: true, Start: "12:30", End: "13:30"},
	}
	require.NoError(t, store.SetBlocks(ctx, blocks))

	got, err = store.GetBlocks(ctx)
	require.NoError(t, err)
	assert.True(t, got.LunchBlock.Enabled)
	assert.True(t, got.IsHoliday(date(2026, 12, 25)))
	assert.False(t, got.IsHoliday(date(2026, 12, 26)))
}

func TestStore_NilStoreServesDefaults(t *testing.T) {
	var store *Store

	cfg, err := store.GetConfig(context.Background(), KindInterview)
	require.NoError(t, err)
	assert.Equal(t, DefaultSlotDurationMinutes, cfg.SlotDuration())

	assert.Error(t, store.SetConfig(context.Background(), DefaultConfig(KindInterview)))
}

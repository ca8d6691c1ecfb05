package clock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klevoclub/klevo/internal/model"
)

type fakeStore struct {
	loaded  model.GameTime
	loadErr error
	saved   []model.GameTime
	saveErr error
}

func (f *fakeStore) LoadGameTime(context.Context) (model.GameTime, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStore) SaveGameTime(_ context.Context, gt model.GameTime) error {
	f.saved = append(f.saved, gt)
	return f.saveErr
}

func (f *fakeStore) DeleteExpiredSpots(context.Context, model.GameTime) (int64, error) {
	return 0, nil
}

func (f *fakeStore) DecayHunger(context.Context, int) (int64, error) { return 0, nil }

func TestNew_LoadsPersistedTime(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loaded: model.GameTime{Hour: 14, Day: 7}}
	svc, err := New(context.Background(), store)
	require.NoError(t, err)

	gt, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.GameTime{Hour: 14, Day: 7}, gt)
}

func TestNew_PropagatesLoadError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loadErr: errors.New("db down")}
	_, err := New(context.Background(), store)
	assert.Error(t, err)
}

func TestAdvance_PersistsNextHour(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loaded: model.GameTime{Hour: 23, Day: 1}}
	svc, err := New(context.Background(), store)
	require.NoError(t, err)

	next, err := svc.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.GameTime{Hour: 0, Day: 2}, next)
	require.Len(t, store.saved, 1)
	assert.Equal(t, next, store.saved[0])

	gt, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, next, gt)
}

func TestAdvance_KeepsCacheOnSaveError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loaded: model.GameTime{Hour: 8, Day: 1}, saveErr: errors.New("db down")}
	svc, err := New(context.Background(), store)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background())
	assert.Error(t, err)

	// The in-memory clock moved; the next save retries from there.
	gt, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.GameTime{Hour: 9, Day: 1}, gt)
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loaded: model.GameTime{Hour: 8, Day: 1}}
	svc, err := New(context.Background(), store)
	require.NoError(t, err)

	cfg := DefaultSchedulerConfig()
	cfg.AdvanceEvery = "not a cron spec"
	_, err = NewScheduler(svc, store, nil, cfg)
	assert.Error(t, err)
}

package appdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
	"github.com/dukerupert/chorejar/internal/store"
	"github.com/stretchr/testify/require"
)

// countingStore counts read transactions so tests can tell cache hits from
// store reads.
type countingStore struct {
	kv.Store
	views atomic.Int32
}

func (s *countingStore) View(ctx context.Context, fn func(kv.Tx) error) error {
	s.views.Add(1)
	return s.Store.View(ctx, fn)
}

func setupClientTest(t *testing.T) (*Client, *countingStore) {
	t.Helper()
	cs := &countingStore{Store: kv.NewMemoryStore()}
	t.Cleanup(func() { cs.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(store.New(cs), logger), cs
}

func TestClientReadsAreCached(t *testing.T) {
	c, cs := setupClientTest(t)
	ctx := context.Background()

	_, err := c.CreateChild(ctx, "Ava")
	require.NoError(t, err)

	for range 3 {
		children, err := c.Children(ctx)
		require.NoError(t, err)
		require.Len(t, children, 1)
	}
	require.Equal(t, int32(1), cs.views.Load())

	_, err = c.CreateChild(ctx, "Ben")
	require.NoError(t, err)

	children, err := c.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, int32(2), cs.views.Load())
}

func TestClientMutationInvalidation(t *testing.T) {
	c, _ := setupClientTest(t)
	ctx := context.Background()

	var got [][]Key
	c.OnInvalidate(func(keys []Key) { got = append(got, keys) })

	ava, err := c.CreateChild(ctx, "Ava")
	require.NoError(t, err)
	dishes, err := c.CreateChore(ctx, "Dishes", 150)
	require.NoError(t, err)
	_, err = c.CompleteChore(ctx, ava.ID, dishes.ValueCents)
	require.NoError(t, err)
	_, err = c.PayoutChild(ctx, ava.ID)
	require.NoError(t, err)
	_, err = c.UpdateSettings(ctx, model.Settings{DisplayMode: model.DisplayPoints})
	require.NoError(t, err)
	require.NoError(t, c.DeleteChore(ctx, dishes.ID))
	require.NoError(t, c.DeleteChild(ctx, ava.ID))

	require.Equal(t, [][]Key{
		{KeyChildren},
		{KeyChores},
		{KeyChildren},
		{KeyChildren, KeyPayouts},
		{KeySettings},
		{KeyChores},
		{KeyChildren, KeyPayouts},
	}, got)
}

func TestClientErrorsPassThrough(t *testing.T) {
	c, _ := setupClientTest(t)
	ctx := context.Background()

	ava, err := c.CreateChild(ctx, "Ava")
	require.NoError(t, err)

	var invalidations int
	c.OnInvalidate(func([]Key) { invalidations++ })

	_, err = c.PayoutChild(ctx, ava.ID)
	require.ErrorIs(t, err, store.ErrNoBalance)

	_, err = c.CompleteChore(ctx, "nope", 100)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.Zero(t, invalidations, "failed mutations must not invalidate")
}

func TestClientPayoutRefreshesDerivedReads(t *testing.T) {
	c, _ := setupClientTest(t)
	ctx := context.Background()

	ava, _ := c.CreateChild(ctx, "Ava")
	c.CompleteChore(ctx, ava.ID, 150)

	total, err := c.TotalCents(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(150), total)
	payouts, err := c.ChildPayouts(ctx, ava.ID)
	require.NoError(t, err)
	require.Empty(t, payouts)

	res, err := c.PayoutChild(ctx, ava.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), res.Payout.AmountCents)

	total, err = c.TotalCents(ctx)
	require.NoError(t, err)
	require.Zero(t, total)
	payouts, err = c.ChildPayouts(ctx, ava.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
}

func TestClientToggleFavoriteChore(t *testing.T) {
	c, _ := setupClientTest(t)
	ctx := context.Background()

	ava, _ := c.CreateChild(ctx, "Ava")
	dishes, _ := c.CreateChore(ctx, "Dishes", 150)

	// Warm both keys touched by the optimistic update.
	_, err := c.Children(ctx)
	require.NoError(t, err)
	_, err = c.Child(ctx, ava.ID)
	require.NoError(t, err)

	child, err := c.ToggleFavoriteChore(ctx, ava.ID, dishes.ID)
	require.NoError(t, err)
	require.Equal(t, []string{dishes.ID}, child.FavoriteChoreIDs)

	_, ok := c.Cache().Get(ChildKey(ava.ID))
	require.False(t, ok, "toggle should invalidate the child key")

	favorites, err := c.FavoriteChores(ctx, ava.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	require.Equal(t, "Dishes", favorites[0].Title)

	children, err := c.Children(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{dishes.ID}, children[0].FavoriteChoreIDs)
}

func TestClientToggleFavoriteMissingChild(t *testing.T) {
	c, _ := setupClientTest(t)
	ctx := context.Background()

	_, err := c.Children(ctx)
	require.NoError(t, err)

	_, err = c.ToggleFavoriteChore(ctx, "nope", "dishes")
	require.ErrorIs(t, err, store.ErrNotFound)

	children, err := c.Children(ctx)
	require.NoError(t, err)
	require.Empty(t, children)
}

// interceptStore runs beforeUpdate ahead of every write transaction; a
// non-nil result fails the write without touching the wrapped store.
type interceptStore struct {
	kv.Store
	beforeUpdate func() error
}

func (s *interceptStore) Update(ctx context.Context, fn func(kv.Tx) error) error {
	if s.beforeUpdate != nil {
		if err := s.beforeUpdate(); err != nil {
			return err
		}
	}
	return s.Store.Update(ctx, fn)
}

func TestClientToggleFavoriteIsOptimistic(t *testing.T) {
	is := &interceptStore{Store: kv.NewMemoryStore()}
	t.Cleanup(func() { is.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(store.New(is), logger)
	ctx := context.Background()

	ava, err := c.CreateChild(ctx, "Ava")
	require.NoError(t, err)
	dishes, err := c.CreateChore(ctx, "Dishes", 150)
	require.NoError(t, err)

	_, err = c.Children(ctx)
	require.NoError(t, err)
	_, err = c.Child(ctx, ava.ID)
	require.NoError(t, err)

	diskFull := errors.New("disk full")
	var duringChild, duringList []string
	is.beforeUpdate = func() error {
		v, ok := c.Cache().Get(ChildKey(ava.ID))
		require.True(t, ok, "child key should stay cached during the call")
		duringChild = v.(*model.Child).FavoriteChoreIDs

		v, ok = c.Cache().Get(KeyChildren)
		require.True(t, ok, "children key should stay cached during the call")
		children := v.([]model.Child)
		require.Len(t, children, 1)
		duringList = children[0].FavoriteChoreIDs
		return diskFull
	}

	_, err = c.ToggleFavoriteChore(ctx, ava.ID, dishes.ID)
	require.ErrorIs(t, err, diskFull)
	require.Equal(t, []string{dishes.ID}, duringChild)
	require.Equal(t, []string{dishes.ID}, duringList)

	is.beforeUpdate = nil
	child, err := c.Child(ctx, ava.ID)
	require.NoError(t, err)
	require.Empty(t, child.FavoriteChoreIDs)
	children, err := c.Children(ctx)
	require.NoError(t, err)
	require.Empty(t, children[0].FavoriteChoreIDs)
}

func TestClientToggleFavoriteFailureInvalidates(t *testing.T) {
	is := &interceptStore{Store: kv.NewMemoryStore()}
	t.Cleanup(func() { is.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(store.New(is), logger)
	ctx := context.Background()

	ava, err := c.CreateChild(ctx, "Ava")
	require.NoError(t, err)
	_, err = c.Child(ctx, ava.ID)
	require.NoError(t, err)

	var invalidated [][]Key
	c.OnInvalidate(func(keys []Key) { invalidated = append(invalidated, keys) })

	diskFull := errors.New("disk full")
	is.beforeUpdate = func() error { return diskFull }

	_, err = c.ToggleFavoriteChore(ctx, ava.ID, "dishes")
	require.ErrorIs(t, err, diskFull)
	require.Equal(t, [][]Key{{KeyChildren, ChildKey(ava.ID)}}, invalidated)
}

func TestClientImportInvalidatesEverything(t *testing.T) {
	c, _ := setupClientTest(t)
	ctx := context.Background()

	c.CreateChild(ctx, "Ava")
	c.Children(ctx)
	c.Chores(ctx)
	c.Settings(ctx)
	require.Equal(t, 3, c.Cache().Len())

	err := c.ImportData(ctx, &model.AppData{
		Chores:   []model.Chore{{ID: "k1", Title: "Bins", ValueCents: 50}},
		Settings: model.DefaultSettings(),
	})
	require.NoError(t, err)
	require.Zero(t, c.Cache().Len())

	children, err := c.Children(ctx)
	require.NoError(t, err)
	require.Empty(t, children)
	chores, err := c.Chores(ctx)
	require.NoError(t, err)
	require.Len(t, chores, 1)
}

func TestClientSettingsDefaultsOnFailure(t *testing.T) {
	c, cs := setupClientTest(t)
	cs.Close()

	settings, err := c.Settings(context.Background())
	require.Error(t, err)
	require.Equal(t, model.DefaultSettings(), settings)
	require.Zero(t, c.Cache().Len())
}

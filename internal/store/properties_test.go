package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
	"pgregory.net/rapid"
)

func TestChildBalanceProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(kv.NewMemoryStore(), WithIDGenerator(seqIDs("id-")))
		ctx := context.Background()

		name := rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(t, "name")
		child, err := s.Children.Create(ctx, name)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if child.TotalCents != 0 || len(child.FavoriteChoreIDs) != 0 {
			t.Fatalf("new child = %+v, want zero balance and no favorites", child)
		}

		values := rapid.SliceOfN(rapid.Int64Range(1, 10_000), 0, 20).Draw(t, "values")
		var want int64
		for _, v := range values {
			got, err := s.Children.CompleteChore(ctx, child.ID, v)
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			want += v
			if got.TotalCents != want {
				t.Fatalf("total = %d, want %d", got.TotalCents, want)
			}
		}

		res, err := s.Payouts.PayoutChild(ctx, child.ID)
		if want == 0 {
			if !errors.Is(err, ErrNoBalance) {
				t.Fatalf("err = %v, want ErrNoBalance", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("payout: %v", err)
		}
		if res.Payout.AmountCents != want || res.Child.TotalCents != 0 {
			t.Fatalf("payout = %d, balance = %d; want %d and 0", res.Payout.AmountCents, res.Child.TotalCents, want)
		}
	})
}

func TestToggleFavoriteTwiceIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(kv.NewMemoryStore())
		ctx := context.Background()

		child, _ := s.Children.Create(ctx, "Ava")
		initial := rapid.SliceOfNDistinct(rapid.StringMatching(`c[0-9]{1,3}`), 0, 8, rapid.ID[string]).Draw(t, "initial")
		if _, err := s.Children.Update(ctx, child.ID, updateFavorites(initial)); err != nil {
			t.Fatalf("seed favorites: %v", err)
		}
		choreID := rapid.StringMatching(`c[0-9]{1,3}`).Draw(t, "chore")

		before, _ := s.Children.IsChoreFavorite(ctx, child.ID, choreID)
		once, err := s.Children.ToggleFavoriteChore(ctx, child.ID, choreID)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if once.IsFavorite(choreID) == before {
			t.Fatalf("toggle did not flip membership of %q", choreID)
		}
		twice, err := s.Children.ToggleFavoriteChore(ctx, child.ID, choreID)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if twice.IsFavorite(choreID) != before {
			t.Fatalf("double toggle changed membership of %q", choreID)
		}
		if len(twice.FavoriteChoreIDs) != len(initial) {
			t.Fatalf("favorites = %v, want %d ids", twice.FavoriteChoreIDs, len(initial))
		}
	})
}

func updateFavorites(ids []string) model.ChildUpdate {
	return model.ChildUpdate{FavoriteChoreIDs: &ids}
}

package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
)

type PayoutStore struct {
	*base
}

// PayoutResult is the outcome of paying out a child.
type PayoutResult struct {
	Child  model.Child  `json:"child"`
	Payout model.Payout `json:"payout"`
}

// PayoutChild records a payout of the child's whole balance and resets the
// balance to zero. Both writes commit in one transaction, so a failure leaves
// neither behind.
func (s *PayoutStore) PayoutChild(ctx context.Context, childID string) (*PayoutResult, error) {
	var res PayoutResult
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		child, err := getChild(tx, childID)
		if err != nil {
			return err
		}
		if child.TotalCents <= 0 {
			return fmt.Errorf("child %s: %w", childID, ErrNoBalance)
		}

		payout := model.Payout{
			ID:          s.newID(),
			ChildID:     child.ID,
			ChildName:   child.Name,
			AmountCents: child.TotalCents,
			CreatedAt:   s.now(),
		}
		if err := tx.Add(collPayouts, payout.ID, payout); err != nil {
			return fmt.Errorf("insert payout: %w", err)
		}

		child.TotalCents = 0
		if err := tx.Put(collChildren, child.ID, child); err != nil {
			return fmt.Errorf("reset balance: %w", err)
		}

		res = PayoutResult{Child: *child, Payout: payout}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns every payout, newest first.
func (s *PayoutStore) List(ctx context.Context) ([]model.Payout, error) {
	return s.list(ctx, func(model.Payout) bool { return true })
}

// ListByChild returns the child's payouts, newest first.
func (s *PayoutStore) ListByChild(ctx context.Context, childID string) ([]model.Payout, error) {
	return s.list(ctx, func(p model.Payout) bool { return p.ChildID == childID })
}

func (s *PayoutStore) list(ctx context.Context, keep func(model.Payout) bool) ([]model.Payout, error) {
	var payouts []model.Payout
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		all, err := kv.GetAllAs[model.Payout](tx, collPayouts)
		if err != nil {
			return err
		}
		payouts = make([]model.Payout, 0, len(all))
		for _, p := range all {
			if keep(p) {
				payouts = append(payouts, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	sortNewestFirst(payouts)
	return payouts, nil
}

// sortNewestFirst orders by CreatedAt descending; payouts sharing a timestamp
// keep reverse insertion order.
func sortNewestFirst(payouts []model.Payout) {
	for i, j := 0, len(payouts)-1; i < j; i, j = i+1, j-1 {
		payouts[i], payouts[j] = payouts[j], payouts[i]
	}
	sort.SliceStable(payouts, func(i, j int) bool {
		return payouts[i].CreatedAt.After(payouts[j].CreatedAt)
	})
}

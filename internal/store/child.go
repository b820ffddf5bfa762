package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
)

type ChildStore struct {
	*base
}

func getChild(tx kv.Tx, id string) (*model.Child, error) {
	var c model.Child
	err := tx.Get(collChildren, id, &c)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("child %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	if c.FavoriteChoreIDs == nil {
		c.FavoriteChoreIDs = []string{}
	}
	return &c, nil
}

func (s *ChildStore) Create(ctx context.Context, name string) (*model.Child, error) {
	c := &model.Child{
		ID:               s.newID(),
		Name:             name,
		TotalCents:       0,
		FavoriteChoreIDs: []string{},
		CreatedAt:        s.now(),
	}
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		return tx.Add(collChildren, c.ID, c)
	})
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	return c, nil
}

// GetByID returns nil, nil when no child has the id.
func (s *ChildStore) GetByID(ctx context.Context, id string) (*model.Child, error) {
	var c *model.Child
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		var err error
		c, err = getChild(tx, id)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all children in creation order.
func (s *ChildStore) List(ctx context.Context) ([]model.Child, error) {
	var children []model.Child
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		var err error
		children, err = listChildren(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func listChildren(tx kv.Tx) ([]model.Child, error) {
	children, err := kv.GetAllAs[model.Child](tx, collChildren)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	for i := range children {
		if children[i].FavoriteChoreIDs == nil {
			children[i].FavoriteChoreIDs = []string{}
		}
	}
	return children, nil
}

// Update applies a shallow patch and returns the merged child.
func (s *ChildStore) Update(ctx context.Context, id string, u model.ChildUpdate) (*model.Child, error) {
	return s.modify(ctx, id, func(c *model.Child) error {
		if u.Name != nil {
			c.Name = *u.Name
		}
		if u.TotalCents != nil {
			c.TotalCents = *u.TotalCents
		}
		if u.FavoriteChoreIDs != nil {
			c.FavoriteChoreIDs = model.DedupeIDs(*u.FavoriteChoreIDs)
		}
		return nil
	})
}

// modify runs a read-modify-write of one child inside a single transaction.
func (s *ChildStore) modify(ctx context.Context, id string, fn func(*model.Child) error) (*model.Child, error) {
	var c *model.Child
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		var err error
		c, err = getChild(tx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := tx.Put(collChildren, id, c); err != nil {
			return fmt.Errorf("update child: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the child and every payout recorded for it, atomically.
// Deleting a missing child is not an error.
func (s *ChildStore) Delete(ctx context.Context, id string) error {
	return s.kv.Update(ctx, func(tx kv.Tx) error {
		if err := tx.Delete(collChildren, id); err != nil {
			return fmt.Errorf("delete child: %w", err)
		}
		payouts, err := kv.GetAllAs[model.Payout](tx, collPayouts)
		if err != nil {
			return fmt.Errorf("list payouts: %w", err)
		}
		for _, p := range payouts {
			if p.ChildID != id {
				continue
			}
			if err := tx.Delete(collPayouts, p.ID); err != nil {
				return fmt.Errorf("delete payout %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// CompleteChore adds valueCents to the child's balance. The value is supplied
// by the caller as displayed; the chore record is not re-read. A credit that
// would overflow the balance fails with a *model.ValidationError and leaves
// the child unchanged.
func (s *ChildStore) CompleteChore(ctx context.Context, childID string, valueCents int64) (*model.Child, error) {
	if err := model.ValidateCompletionValue(valueCents); err != nil {
		return nil, err
	}
	return s.modify(ctx, childID, func(c *model.Child) error {
		if err := model.ValidateCredit(c.TotalCents, valueCents); err != nil {
			return err
		}
		c.TotalCents += valueCents
		return nil
	})
}

// ToggleFavoriteChore flips choreID in the child's favorites. The chore is not
// required to exist.
func (s *ChildStore) ToggleFavoriteChore(ctx context.Context, childID, choreID string) (*model.Child, error) {
	return s.modify(ctx, childID, func(c *model.Child) error {
		c.ToggleFavorite(choreID)
		return nil
	})
}

// IsChoreFavorite reports false for a missing child.
func (s *ChildStore) IsChoreFavorite(ctx context.Context, childID, choreID string) (bool, error) {
	c, err := s.GetByID(ctx, childID)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}
	return c.IsFavorite(choreID), nil
}

// TotalCents sums every child's balance.
func (s *ChildStore) TotalCents(ctx context.Context) (int64, error) {
	children, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range children {
		total += c.TotalCents
	}
	return total, nil
}

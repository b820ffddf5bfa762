package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
)

type ChoreStore struct {
	*base
}

func (s *ChoreStore) Create(ctx context.Context, title string, valueCents int64) (*model.Chore, error) {
	c := &model.Chore{
		ID:         s.newID(),
		Title:      title,
		ValueCents: valueCents,
		CreatedAt:  s.now(),
	}
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		return tx.Add(collChores, c.ID, c)
	})
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return c, nil
}

// GetByID returns nil, nil when no chore has the id.
func (s *ChoreStore) GetByID(ctx context.Context, id string) (*model.Chore, error) {
	var c model.Chore
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		return tx.Get(collChores, id, &c)
	})
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return &c, nil
}

func (s *ChoreStore) List(ctx context.Context) ([]model.Chore, error) {
	var chores []model.Chore
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		var err error
		chores, err = kv.GetAllAs[model.Chore](tx, collChores)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return chores, nil
}

func (s *ChoreStore) Update(ctx context.Context, id string, u model.ChoreUpdate) (*model.Chore, error) {
	var c model.Chore
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		err := tx.Get(collChores, id, &c)
		if errors.Is(err, kv.ErrNotFound) {
			return fmt.Errorf("chore %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get chore: %w", err)
		}
		if u.Title != nil {
			c.Title = *u.Title
		}
		if u.ValueCents != nil {
			c.ValueCents = *u.ValueCents
		}
		if err := tx.Put(collChores, id, &c); err != nil {
			return fmt.Errorf("update chore: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the chore only. Children that list it as a favorite keep the
// dangling id; readers filter it out.
func (s *ChoreStore) Delete(ctx context.Context, id string) error {
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		return tx.Delete(collChores, id)
	})
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

// ListFavorites returns the existing chores in the child's favorite set, in
// chore creation order. A missing child has no favorites.
func (s *ChoreStore) ListFavorites(ctx context.Context, childID string) ([]model.Chore, error) {
	favorites := []model.Chore{}
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		child, err := getChild(tx, childID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		chores, err := kv.GetAllAs[model.Chore](tx, collChores)
		if err != nil {
			return fmt.Errorf("list chores: %w", err)
		}
		for _, c := range chores {
			if child.IsFavorite(c.ID) {
				favorites = append(favorites, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

// Package appdata is the data-access layer the HTTP API and CLI read and
// write through. Reads are served from a Cache keyed by collection and
// entity; each mutation invalidates the keys whose data it changed. Errors
// from the store pass through untouched.
package appdata

import (
	"context"
	"log/slog"
	"slices"

	"github.com/dukerupert/chorejar/internal/model"
	"github.com/dukerupert/chorejar/internal/store"
)

type Client struct {
	store  *store.Storage
	cache  *Cache
	logger *slog.Logger
}

func NewClient(s *store.Storage, logger *slog.Logger) *Client {
	return &Client{
		store:  s,
		cache:  NewCache(),
		logger: logger,
	}
}

// Cache exposes the underlying cache, mainly so callers can subscribe to
// invalidations.
func (c *Client) Cache() *Cache {
	return c.cache
}

// OnInvalidate registers fn to be called with the keys of every invalidation.
func (c *Client) OnInvalidate(fn func(keys []Key)) {
	c.cache.OnInvalidate(fn)
}

func (c *Client) invalidate(keys ...Key) {
	c.logger.Debug("invalidate", "keys", keys)
	c.cache.Invalidate(keys...)
}

// --- reads ---

func (c *Client) Children(ctx context.Context) ([]model.Child, error) {
	children, err := Fetch(ctx, c.cache, KeyChildren, c.store.Children.List)
	return slices.Clone(children), err
}

// Child returns nil, nil when the child does not exist.
func (c *Client) Child(ctx context.Context, id string) (*model.Child, error) {
	child, err := Fetch(ctx, c.cache, ChildKey(id), func(ctx context.Context) (*model.Child, error) {
		return c.store.Children.GetByID(ctx, id)
	})
	if err != nil || child == nil {
		return nil, err
	}
	cp := *child
	return &cp, nil
}

func (c *Client) Chores(ctx context.Context) ([]model.Chore, error) {
	chores, err := Fetch(ctx, c.cache, KeyChores, c.store.Chores.List)
	return slices.Clone(chores), err
}

// FavoriteChores is derived from the cached child and chore list, so it
// stays in step with optimistic favorite toggles.
func (c *Client) FavoriteChores(ctx context.Context, childID string) ([]model.Chore, error) {
	child, err := c.Child(ctx, childID)
	if err != nil {
		return nil, err
	}
	favorites := []model.Chore{}
	if child == nil {
		return favorites, nil
	}
	chores, err := c.Chores(ctx)
	if err != nil {
		return nil, err
	}
	for _, ch := range chores {
		if child.IsFavorite(ch.ID) {
			favorites = append(favorites, ch)
		}
	}
	return favorites, nil
}

func (c *Client) Payouts(ctx context.Context) ([]model.Payout, error) {
	payouts, err := Fetch(ctx, c.cache, KeyPayouts, c.store.Payouts.List)
	return slices.Clone(payouts), err
}

func (c *Client) ChildPayouts(ctx context.Context, childID string) ([]model.Payout, error) {
	payouts, err := Fetch(ctx, c.cache, ChildPayoutsKey(childID), func(ctx context.Context) ([]model.Payout, error) {
		return c.store.Payouts.ListByChild(ctx, childID)
	})
	return slices.Clone(payouts), err
}

// Settings always yields a usable value; on a storage failure it is the
// defaults, which are not cached.
func (c *Client) Settings(ctx context.Context) (model.Settings, error) {
	settings, err := Fetch(ctx, c.cache, KeySettings, func(ctx context.Context) (model.Settings, error) {
		return c.store.Settings.Get(ctx)
	})
	if err != nil {
		return model.DefaultSettings(), err
	}
	return settings, nil
}

// TotalCents sums the balances of the cached children list.
func (c *Client) TotalCents(ctx context.Context) (int64, error) {
	children, err := c.Children(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, ch := range children {
		total += ch.TotalCents
	}
	return total, nil
}

// ExportData always reads through to the store.
func (c *Client) ExportData(ctx context.Context) (*model.AppData, error) {
	return c.store.Transfer.Export(ctx)
}

// --- mutations ---

func (c *Client) CreateChild(ctx context.Context, name string) (*model.Child, error) {
	child, err := c.store.Children.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyChildren)
	return child, nil
}

func (c *Client) UpdateChild(ctx context.Context, id string, u model.ChildUpdate) (*model.Child, error) {
	child, err := c.store.Children.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyChildren)
	return child, nil
}

func (c *Client) DeleteChild(ctx context.Context, id string) error {
	if err := c.store.Children.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(KeyChildren, KeyPayouts)
	return nil
}

func (c *Client) CreateChore(ctx context.Context, title string, valueCents int64) (*model.Chore, error) {
	chore, err := c.store.Chores.Create(ctx, title, valueCents)
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyChores)
	return chore, nil
}

func (c *Client) UpdateChore(ctx context.Context, id string, u model.ChoreUpdate) (*model.Chore, error) {
	chore, err := c.store.Chores.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyChores)
	return chore, nil
}

func (c *Client) DeleteChore(ctx context.Context, id string) error {
	if err := c.store.Chores.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(KeyChores)
	return nil
}

func (c *Client) CompleteChore(ctx context.Context, childID string, valueCents int64) (*model.Child, error) {
	child, err := c.store.Children.CompleteChore(ctx, childID, valueCents)
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyChildren)
	return child, nil
}

func (c *Client) PayoutChild(ctx context.Context, childID string) (*store.PayoutResult, error) {
	res, err := c.store.Payouts.PayoutChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	c.invalidate(KeyChildren, KeyPayouts)
	return res, nil
}

func (c *Client) UpdateSettings(ctx context.Context, s model.Settings) (model.Settings, error) {
	settings, err := c.store.Settings.Update(ctx, s)
	if err != nil {
		return model.Settings{}, err
	}
	c.invalidate(KeySettings)
	return settings, nil
}

// ImportData replaces everything, so every key is invalidated.
func (c *Client) ImportData(ctx context.Context, data *model.AppData) error {
	if err := c.store.Transfer.Import(ctx, data); err != nil {
		return err
	}
	c.cache.InvalidateAll()
	return nil
}

// ToggleFavoriteChore flips choreID in the cached child and children list
// before the store call resolves. A failed call restores the cached entries;
// both keys are refetched afterwards regardless.
func (c *Client) ToggleFavoriteChore(ctx context.Context, childID, choreID string) (*model.Child, error) {
	keys := []Key{KeyChildren, ChildKey(childID)}
	apply := func(cache *Cache) {
		cache.Modify(ChildKey(childID), func(v any) any {
			child, _ := v.(*model.Child)
			if child == nil {
				return v
			}
			cp := *child
			cp.ToggleFavorite(choreID)
			return &cp
		})
		cache.Modify(KeyChildren, func(v any) any {
			children, _ := v.([]model.Child)
			out := slices.Clone(children)
			for i := range out {
				if out[i].ID == childID {
					out[i].ToggleFavorite(choreID)
				}
			}
			return out
		})
	}
	return Optimistic(ctx, c.cache, keys, apply, func(ctx context.Context) (*model.Child, error) {
		return c.store.Children.ToggleFavoriteChore(ctx, childID, choreID)
	})
}

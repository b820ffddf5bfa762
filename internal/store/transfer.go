package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
)

// TransferStore exports and imports the whole data set.
type TransferStore struct {
	*base
}

// Export reads all four collections in one transaction.
func (s *TransferStore) Export(ctx context.Context) (*model.AppData, error) {
	data := &model.AppData{}
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		var err error
		if data.Children, err = listChildren(tx); err != nil {
			return err
		}
		if data.Chores, err = kv.GetAllAs[model.Chore](tx, collChores); err != nil {
			return fmt.Errorf("list chores: %w", err)
		}
		if data.Payouts, err = kv.GetAllAs[model.Payout](tx, collPayouts); err != nil {
			return fmt.Errorf("list payouts: %w", err)
		}
		sortNewestFirst(data.Payouts)

		err = tx.Get(collSettings, settingsKey, &data.Settings)
		if errors.Is(err, kv.ErrNotFound) {
			data.Settings = model.DefaultSettings()
			return nil
		}
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export data: %w", err)
	}
	data.ExportedAt = s.now()
	return data, nil
}

// Import replaces children, chores and payouts with the contents of data and
// overwrites the settings. It is destructive, not a merge, and all-or-nothing:
// any failure leaves the previous data in place.
func (s *TransferStore) Import(ctx context.Context, data *model.AppData) error {
	now := s.now()
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		for _, coll := range []string{collChildren, collChores, collPayouts} {
			if err := tx.Clear(coll); err != nil {
				return fmt.Errorf("clear %s: %w", coll, err)
			}
		}

		for _, c := range data.Children {
			c.Normalize(now)
			if err := tx.Add(collChildren, c.ID, c); err != nil {
				return fmt.Errorf("insert child: %w", err)
			}
		}
		for _, c := range data.Chores {
			if c.CreatedAt.IsZero() {
				c.CreatedAt = now
			}
			if err := tx.Add(collChores, c.ID, c); err != nil {
				return fmt.Errorf("insert chore: %w", err)
			}
		}
		// Payouts arrive newest first; insert oldest first so stored order
		// matches creation order.
		for i := len(data.Payouts) - 1; i >= 0; i-- {
			p := data.Payouts[i]
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			if err := tx.Add(collPayouts, p.ID, p); err != nil {
				return fmt.Errorf("insert payout: %w", err)
			}
		}

		settings := data.Settings
		if !settings.DisplayMode.Valid() {
			settings.DisplayMode = model.DisplayDollars
		}
		return putSettings(tx, settings)
	})
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}
	return nil
}

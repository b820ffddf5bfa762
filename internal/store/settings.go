package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
)

type SettingsStore struct {
	*base
}

// Get returns the stored settings, or the defaults when none have been saved.
// On a storage failure the defaults are returned alongside the error.
func (s *SettingsStore) Get(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		return tx.Get(collSettings, settingsKey, &settings)
	})
	if errors.Is(err, kv.ErrNotFound) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.DefaultSettings(), fmt.Errorf("get settings: %w", err)
	}
	if !settings.DisplayMode.Valid() {
		settings.DisplayMode = model.DisplayDollars
	}
	return settings, nil
}

// Update replaces the settings record wholesale.
func (s *SettingsStore) Update(ctx context.Context, settings model.Settings) (model.Settings, error) {
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		return putSettings(tx, settings)
	})
	if err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func putSettings(tx kv.Tx, settings model.Settings) error {
	if err := tx.Put(collSettings, settingsKey, settings); err != nil {
		return fmt.Errorf("set settings: %w", err)
	}
	return nil
}

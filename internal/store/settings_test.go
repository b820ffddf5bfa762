package store

import (
	"context"
	"testing"

	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/model"
)

func TestSettingsDefaults(t *testing.T) {
	s := setupStoreTestDB(t)

	got, err := s.Settings.Get(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	want := model.Settings{Sounds: true, Haptics: true, Confetti: true, DisplayMode: model.DisplayDollars}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestSettingsUpdate(t *testing.T) {
	s := setupStoreTestDB(t)
	ctx := context.Background()

	in := model.Settings{Sounds: false, Haptics: true, Confetti: false, DisplayMode: model.DisplayPoints}
	if _, err := s.Settings.Update(ctx, in); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	got, err := s.Settings.Get(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got != in {
		t.Errorf("settings = %+v, want %+v", got, in)
	}
}

func TestSettingsUnknownDisplayMode(t *testing.T) {
	mem := kv.NewMemoryStore()
	s := New(mem)
	ctx := context.Background()

	err := mem.Update(ctx, func(tx kv.Tx) error {
		return tx.Put(collSettings, settingsKey, map[string]any{"sounds": true, "displayMode": "euros"})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := s.Settings.Get(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.DisplayMode != model.DisplayDollars {
		t.Errorf("display_mode = %q, want %q", got.DisplayMode, model.DisplayDollars)
	}
	if !got.Sounds {
		t.Error("sounds = false, want stored true")
	}
}

func TestSettingsStorageFailureReturnsDefaults(t *testing.T) {
	mem := kv.NewMemoryStore()
	s := New(mem)
	mem.Close()

	got, err := s.Settings.Get(context.Background())
	if err == nil {
		t.Fatal("expected error from closed store")
	}
	if got != model.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", got)
	}
}

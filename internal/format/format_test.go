package format

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/chorejar/internal/model"
)

func TestValue(t *testing.T) {
	tests := []struct {
		cents int64
		mode  model.DisplayMode
		want  string
	}{
		{150, model.DisplayDollars, "$1.50"},
		{0, model.DisplayDollars, "$0.00"},
		{5, model.DisplayDollars, "$0.05"},
		{123456, model.DisplayDollars, "$1234.56"},
		{150, model.DisplayPoints, "150 points"},
		{1, model.DisplayPoints, "1 point"},
		{0, model.DisplayPoints, "0 points"},
		{150, "", "$1.50"},
	}
	for _, tt := range tests {
		if got := Value(tt.cents, tt.mode); got != tt.want {
			t.Errorf("Value(%d, %q) = %q, want %q", tt.cents, tt.mode, got, tt.want)
		}
	}
}

func TestParseDollars(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1.50", 150},
		{"1.5", 150},
		{"0.01", 1},
		{"2", 200},
		{"0.005", 1},
		{"10.994", 1099},
	}
	for _, tt := range tests {
		got, err := ParseDollars(tt.in)
		if err != nil {
			t.Errorf("ParseDollars(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDollars(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "abc", "0", "0.004", "-1"} {
		_, err := ParseDollars(in)
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("ParseDollars(%q) err = %v, want ValidationError", in, err)
		}
	}
}

func TestBackupFilename(t *testing.T) {
	got := BackupFilename(time.Date(2026, 3, 7, 22, 15, 0, 0, time.UTC))
	if got != "chores-backup-2026-03-07.json" {
		t.Errorf("got = %q, want %q", got, "chores-backup-2026-03-07.json")
	}
}

// Package format renders balances and chore values for display.
package format

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorejar/internal/model"
	"github.com/shopspring/decimal"
)

// Value renders cents according to the display mode: "$1.50" for dollars,
// "150 points" for points. Unknown modes render as dollars.
func Value(cents int64, mode model.DisplayMode) string {
	if mode == model.DisplayPoints {
		return Points(cents)
	}
	return Currency(cents)
}

// Currency renders cents as a dollar amount with two decimal places.
func Currency(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

// Points renders n with a singular or plural unit.
func Points(n int64) string {
	if n == 1 {
		return "1 point"
	}
	return fmt.Sprintf("%d points", n)
}

// ParseDollars converts a dollar amount such as "1.5" or "0.01" to cents,
// rounding half away from zero. Values below one cent are rejected.
func ParseDollars(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &model.ValidationError{Field: "value", Message: "must be a number"}
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents < 1 {
		return 0, &model.ValidationError{Field: "value", Message: "must be at least $0.01"}
	}
	return cents, nil
}

// BackupFilename is the name given to a plain export written on day t.
func BackupFilename(t time.Time) string {
	return fmt.Sprintf("chores-backup-%s.json", t.Format("2006-01-02"))
}

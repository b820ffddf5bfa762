package model

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError reports user input that fails a precondition. Operations
// that fail validation are never attempted against the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidateChildName trims name and rejects it when empty.
func ValidateChildName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "is required"}
	}
	return name, nil
}

// ValidateChore trims title and checks both fields.
func ValidateChore(title string, valueCents int64) (string, error) {
	title, err := ValidateChoreTitle(title)
	if err != nil {
		return "", err
	}
	if err := ValidateCompletionValue(valueCents); err != nil {
		return "", err
	}
	return title, nil
}

func ValidateChoreTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "is required"}
	}
	return title, nil
}

// ValidateCompletionValue rejects non-positive chore values.
func ValidateCompletionValue(valueCents int64) error {
	if valueCents < 1 {
		return &ValidationError{Field: "valueCents", Message: "must be at least 1"}
	}
	return nil
}

// ValidateCredit rejects adding valueCents to a balance of totalCents when
// the sum would not fit in an int64.
func ValidateCredit(totalCents, valueCents int64) error {
	if valueCents > math.MaxInt64-totalCents {
		return &ValidationError{Field: "valueCents", Message: "would overflow the balance"}
	}
	return nil
}

func ValidateSettings(s Settings) error {
	if !s.DisplayMode.Valid() {
		return &ValidationError{Field: "displayMode", Message: `must be "dollars" or "points"`}
	}
	return nil
}

// ValidateAppData checks an import envelope before it replaces the store.
func ValidateAppData(d *AppData) error {
	if d == nil {
		return &ValidationError{Field: "data", Message: "is required"}
	}
	children := make(idSet, len(d.Children))
	for i, c := range d.Children {
		if err := children.add("children", i, c.ID); err != nil {
			return err
		}
		if strings.TrimSpace(c.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("children[%d].name", i), Message: "is required"}
		}
		if c.TotalCents < 0 {
			return &ValidationError{Field: fmt.Sprintf("children[%d].totalCents", i), Message: "must not be negative"}
		}
	}
	chores := make(idSet, len(d.Chores))
	for i, c := range d.Chores {
		if err := chores.add("chores", i, c.ID); err != nil {
			return err
		}
		if _, err := ValidateChore(c.Title, c.ValueCents); err != nil {
			ve := err.(*ValidationError)
			return &ValidationError{Field: fmt.Sprintf("chores[%d].%s", i, ve.Field), Message: ve.Message}
		}
	}
	payouts := make(idSet, len(d.Payouts))
	for i, p := range d.Payouts {
		if err := payouts.add("payouts", i, p.ID); err != nil {
			return err
		}
		if p.AmountCents < 0 {
			return &ValidationError{Field: fmt.Sprintf("payouts[%d].amountCents", i), Message: "must not be negative"}
		}
	}
	// Files from older versions may omit displayMode; import fills the default.
	if d.Settings.DisplayMode == "" {
		return nil
	}
	return ValidateSettings(d.Settings)
}

// idSet tracks the ids already seen in one imported collection.
type idSet map[string]struct{}

func (s idSet) add(collection string, i int, id string) error {
	field := fmt.Sprintf("%s[%d].id", collection, i)
	if id == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if _, ok := s[id]; ok {
		return &ValidationError{Field: field, Message: fmt.Sprintf("duplicates %q", id)}
	}
	s[id] = struct{}{}
	return nil
}

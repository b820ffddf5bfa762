package model

import (
	"slices"
	"time"
)

// Child is a tracked family member. TotalCents is the running balance in
// minor units (cents, or points when displayed as points).
type Child struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	TotalCents       int64     `json:"totalCents"`
	FavoriteChoreIDs []string  `json:"favoriteChoreIds"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ChildUpdate is a shallow patch of a child. Nil fields are left untouched.
type ChildUpdate struct {
	Name             *string   `json:"name,omitempty"`
	TotalCents       *int64    `json:"totalCents,omitempty"`
	FavoriteChoreIDs *[]string `json:"favoriteChoreIds,omitempty"`
}

// IsFavorite reports whether choreID is in the child's favorite set.
func (c *Child) IsFavorite(choreID string) bool {
	return slices.Contains(c.FavoriteChoreIDs, choreID)
}

// ToggleFavorite flips membership of choreID in the favorite set.
func (c *Child) ToggleFavorite(choreID string) {
	if c.IsFavorite(choreID) {
		c.FavoriteChoreIDs = slices.DeleteFunc(slices.Clone(c.FavoriteChoreIDs), func(id string) bool {
			return id == choreID
		})
		return
	}
	c.FavoriteChoreIDs = append(slices.Clone(c.FavoriteChoreIDs), choreID)
}

// Normalize fills the zero values a record may carry after being decoded
// from an older or hand-edited file.
func (c *Child) Normalize(now time.Time) {
	c.FavoriteChoreIDs = DedupeIDs(c.FavoriteChoreIDs)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
}

// DedupeIDs returns ids with duplicates removed, keeping first occurrences.
// A nil slice becomes an empty one.
func DedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

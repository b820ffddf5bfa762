package appdata

import (
	"slices"
	"strings"
)

// Key identifies a cached query. Keys form a hierarchy: invalidating a key
// also invalidates every key it prefixes.
type Key []string

var (
	KeyChildren = Key{"children"}
	KeyChores   = Key{"chores"}
	KeyPayouts  = Key{"payouts"}
	KeySettings = Key{"settings"}
)

// RootKeys covers every cached query.
var RootKeys = []Key{KeyChildren, KeyChores, KeyPayouts, KeySettings}

// ChildKey is the cache key of a single child.
func ChildKey(id string) Key {
	return Key{"children", id}
}

// ChildPayoutsKey is the cache key of one child's payout history.
func ChildPayoutsKey(childID string) Key {
	return Key{"payouts", childID}
}

func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether prefix is k or an ancestor of k.
func (k Key) HasPrefix(prefix Key) bool {
	return len(prefix) <= len(k) && slices.Equal(k[:len(prefix)], prefix)
}

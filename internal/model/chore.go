package model

import "time"

type Chore struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	ValueCents int64     `json:"valueCents"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChoreUpdate carries the fields to change on a chore. Nil fields are left
// untouched.
type ChoreUpdate struct {
	Title      *string `json:"title,omitempty"`
	ValueCents *int64  `json:"valueCents,omitempty"`
}

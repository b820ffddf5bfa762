package model

import "time"

// Payout is an immutable record of a balance being paid out. ChildName is a
// snapshot taken at payout time; the child may since have been renamed or
// deleted.
type Payout struct {
	ID          string    `json:"id"`
	ChildID     string    `json:"childId"`
	ChildName   string    `json:"childName"`
	AmountCents int64     `json:"amountCents"`
	CreatedAt   time.Time `json:"createdAt"`
}

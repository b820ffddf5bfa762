package model

import "time"

// AppData is the backup envelope written by export and consumed by import.
type AppData struct {
	Children   []Child   `json:"children"`
	Chores     []Chore   `json:"chores"`
	Payouts    []Payout  `json:"payouts"`
	Settings   Settings  `json:"settings"`
	ExportedAt time.Time `json:"exportedAt"`
}

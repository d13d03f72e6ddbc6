package model

import "time"

// Transaction is an immutable balance movement. Positive amounts are credits
// (admin top-ups), negative amounts are debits (search charges).
type Transaction struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Amount      int       `json:"amount"      db:"amount"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

// Query is the write-once history entry of a past search.
type Query struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`
	City        string    `json:"city"        db:"city"`
	Category    string    `json:"category"    db:"category"`
	Country     string    `json:"country"     db:"country"`
	Limit       int       `json:"limit"       db:"requested_limit"`
	ResultCount int       `json:"resultCount" db:"result_count"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}

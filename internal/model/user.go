// Package model defines the data structures used throughout the application.
package model

import "time"

// Theme is the UI colour scheme a user prefers.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is one of the supported themes.
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// User represents a registered account.
//
// Balance is the number of unspent credits. It is only ever changed through
// the ledger (debit/credit), which writes the balance and a Transaction row in
// the same database transaction.
//
// GitHubID is nil for users who registered with a password. PasswordHash is
// empty for users who only ever signed in through GitHub.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Email        string    `json:"email"        db:"email"`
	Username     string    `json:"username"     db:"username"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	GitHubID     *int64    `json:"-"            db:"github_id"`
	Balance      int       `json:"balance"      db:"balance"`
	IsAdmin      bool      `json:"isAdmin"      db:"is_admin"`
	Theme        Theme     `json:"theme"        db:"theme"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
}

// Package models defines the records persisted by the platform layer.
package models

import (
	"encoding/json"
	"time"
)

// Account is a platform identity, keyed by email.
type Account struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Token is an emailed one-time passcode, stored as an argon2 hash.
type Token struct {
	ID        string
	AccountID string
	Hash      []byte
	Salt      []byte
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Session is an authenticated login. The cookie secret is a signed token
// naming the session.
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Document is a schemaless record in a collection. Data is a JSON object.
// Permissions lists principals (e.g. "user:<accountID>") allowed to read it.
type Document struct {
	ID          string
	Collection  string
	Data        json.RawMessage
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

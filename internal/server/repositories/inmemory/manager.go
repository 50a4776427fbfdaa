// Package inmemory provides map-backed repositories with the same contracts
// as the PostgreSQL ones. The DBTX handed to the factories is ignored, so
// transactions are not isolated; it is meant for tests and local runs.
package inmemory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/documents"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/tokens"
)

// RepositoryManager keeps every table in memory behind one mutex.
type RepositoryManager struct {
	mu        sync.Mutex
	accounts  map[string]*models.Account
	tokens    map[string]*models.Token
	sessions  map[string]*models.Session
	documents map[string]*models.Document
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{
		accounts:  map[string]*models.Account{},
		tokens:    map[string]*models.Token{},
		sessions:  map[string]*models.Session{},
		documents: map[string]*models.Document{},
	}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Accounts(dbx.DBTX) accounts.Repository   { return &accountRepo{m} }
func (m *RepositoryManager) Tokens(dbx.DBTX) tokens.Repository       { return &tokenRepo{m} }
func (m *RepositoryManager) Sessions(dbx.DBTX) sessions.Repository   { return &sessionRepo{m} }
func (m *RepositoryManager) Documents(dbx.DBTX) documents.Repository { return &documentRepo{m} }

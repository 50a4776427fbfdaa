package inmemory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/google/uuid"
)

type accountRepo struct{ m *RepositoryManager }

func (r *accountRepo) GetOrCreate(_ context.Context, email string) (*models.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, a := range r.m.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	a := &models.Account{ID: uuid.NewString(), Email: email, CreatedAt: time.Now()}
	r.m.accounts[a.ID] = a
	c := *a
	return &c, nil
}

func (r *accountRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a, ok := r.m.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

func (r *accountRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, a := range r.m.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

type tokenRepo struct{ m *RepositoryManager }

func (r *tokenRepo) Create(_ context.Context, t *models.Token) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	c := *t
	r.m.tokens[t.ID] = &c
	return nil
}

func (r *tokenRepo) FindLatest(_ context.Context, accountID string) (*models.Token, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var latest *models.Token
	for _, t := range r.m.tokens {
		if t.AccountID != accountID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	c := *latest
	return &c, nil
}

func (r *tokenRepo) ClaimAttempt(_ context.Context, id string, limit int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	t, ok := r.m.tokens[id]
	if !ok || t.Attempts >= limit {
		return 0, common.ErrorNotFound
	}
	t.Attempts++
	return t.Attempts, nil
}

func (r *tokenRepo) Consume(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.tokens[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.tokens, id)
	return nil
}

func (r *tokenRepo) DeleteByAccount(_ context.Context, accountID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for id, t := range r.m.tokens {
		if t.AccountID == accountID {
			delete(r.m.tokens, id)
		}
	}
	return nil
}

type sessionRepo struct{ m *RepositoryManager }

func (r *sessionRepo) Create(_ context.Context, accountID string, expiresAt time.Time) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s := &models.Session{ID: uuid.NewString(), AccountID: accountID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	r.m.sessions[s.ID] = s
	c := *s
	return &c, nil
}

func (r *sessionRepo) Get(_ context.Context, id string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r *sessionRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.sessions[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.sessions, id)
	return nil
}

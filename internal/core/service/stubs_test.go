package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User // keyed by id
	findErr   error                   // if set, FindByEmail returns this error
	insertErr error                   // if set, Insert returns this error once
	inserts   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Insert(_ context.Context, user *domain.User) error {
	r.inserts++
	if r.insertErr != nil {
		err := r.insertErr
		r.insertErr = nil
		return err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// ---------------------------------------------------------------------------
// Fast hasher, recording session issuer and publisher
// ---------------------------------------------------------------------------

type fakeHasher struct {
	verifyCalls int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(password, hash string) bool {
	h.verifyCalls++
	return strings.HasPrefix(hash, "hashed:") && hash == "hashed:"+password
}

type stubSessionIssuer struct {
	now time.Time
	err error
}

func (s *stubSessionIssuer) Issue(claims domain.Claims, policy domain.SessionPolicy) (*domain.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	now := s.now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &domain.Session{
		Token:     "token-for-" + claims.UserID,
		Claims:    claims,
		Policy:    policy,
		IssuedAt:  now,
		ExpiresAt: now.Add(policy.TTL),
	}, nil
}

func (s *stubSessionIssuer) Verify(string) (*domain.Session, error) {
	return nil, domain.ErrInvalidSession
}

type publishedEvent struct {
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

var errStoreDown = errors.New("store unavailable")

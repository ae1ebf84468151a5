// Package memory holds an in-process AccountStore. Tests use it directly, and
// router wiring falls back to it when the container holds no Postgres pool.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/alumni-backend/internal/domain/entity"
	"github.com/oksasatya/alumni-backend/internal/domain/repository"
)

type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]entity.Account // keyed by email
	profiles map[string]entity.Profile // keyed by email
	now      func() time.Time
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]entity.Account),
		profiles: make(map[string]entity.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func notFound(email string) error {
	return oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(repository.ErrNotFound)
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (*entity.Account, *entity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, nil, notFound(email)
	}
	p := s.profiles[email]
	a = cloneAccount(a)
	return &a, &p, nil
}

func (s *AccountStore) CreateLinked(_ context.Context, a *entity.Account, p *entity.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Email]; ok {
		return oops.Code("ACCOUNT_DUPLICATE_EMAIL").With("email", a.Email).Wrap(repository.ErrDuplicateEmail)
	}
	if _, ok := s.profiles[p.Email]; ok {
		return oops.Code("ACCOUNT_DUPLICATE_EMAIL").With("email", p.Email).Wrap(repository.ErrDuplicateEmail)
	}
	now := s.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt, a.UpdatedAt = now, now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt, p.UpdatedAt = now, now
	}
	s.accounts[a.Email] = cloneAccount(*a)
	s.profiles[p.Email] = *p
	return nil
}

func (s *AccountStore) MarkOTPVerified(_ context.Context, email string) error {
	return s.mutateAccount(email, func(a *entity.Account) {
		a.OTP = nil
		a.IsOTPVerified = true
	})
}

func (s *AccountStore) BeginPasswordReset(_ context.Context, email, otp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	p, pok := s.profiles[email]
	if !ok || !pok {
		return notFound(email)
	}
	now := s.now()
	a.OTP = &otp
	a.IsOTPVerified = false
	a.IsChangingPassword = true
	a.UpdatedAt = now
	p.PasswordHash = entity.PasswordResetSentinel
	p.UpdatedAt = now
	s.accounts[email] = a
	s.profiles[email] = p
	return nil
}

func (s *AccountStore) CompletePasswordReset(_ context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	p, pok := s.profiles[email]
	if !ok || !pok {
		return notFound(email)
	}
	now := s.now()
	p.PasswordHash = passwordHash
	p.UpdatedAt = now
	a.IsChangingPassword = false
	a.UpdatedAt = now
	s.accounts[email] = a
	s.profiles[email] = p
	return nil
}

func (s *AccountStore) UpdateProfile(_ context.Context, p *entity.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeProfile(p)
}

func (s *AccountStore) CompleteProfile(_ context.Context, p *entity.Profile, food *entity.FoodPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[p.Email]
	if !ok {
		return notFound(p.Email)
	}
	if err := s.writeProfile(p); err != nil {
		return err
	}
	if food != nil {
		f := *food
		a.FoodPreference = &f
	}
	a.IsCompleted = true
	a.UpdatedAt = s.now()
	s.accounts[p.Email] = a
	return nil
}

func (s *AccountStore) DeleteLinked(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[email]; !ok {
		return notFound(email)
	}
	delete(s.profiles, email)
	delete(s.accounts, email)
	return nil
}

// Len reports the number of stored accounts and profiles.
func (s *AccountStore) Len() (accounts, profiles int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), len(s.profiles)
}

// writeProfile copies the editable columns. Caller holds the lock.
func (s *AccountStore) writeProfile(p *entity.Profile) error {
	cur, ok := s.profiles[p.Email]
	if !ok {
		return notFound(p.Email)
	}
	cur.Name = p.Name
	cur.Gender = p.Gender
	cur.RollNumber = p.RollNumber
	cur.PhoneNumber = p.PhoneNumber
	cur.Designation = p.Designation
	cur.GraduationYear = p.GraduationYear
	cur.Address = p.Address
	cur.Course = p.Course
	cur.UpdatedAt = s.now()
	s.profiles[p.Email] = cur
	return nil
}

func (s *AccountStore) mutateAccount(email string, fn func(*entity.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return notFound(email)
	}
	fn(&a)
	a.UpdatedAt = s.now()
	s.accounts[email] = a
	return nil
}

func cloneAccount(a entity.Account) entity.Account {
	if a.OTP != nil {
		v := *a.OTP
		a.OTP = &v
	}
	if a.FoodPreference != nil {
		v := *a.FoodPreference
		a.FoodPreference = &v
	}
	return a
}

var _ repository.AccountStore = (*AccountStore)(nil)

package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"quizforge-service/internal/domain"
)

// OTPStore is the in-memory counterpart of the Redis OTP store. TTL is
// simulated against an injectable clock so tests can fast-forward expiry.
type OTPStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   func() time.Time
	records map[string]otpEntry
}

type otpEntry struct {
	rec       domain.OneTimeCode
	expiresAt time.Time
}

func NewOTPStore(ttl time.Duration) *OTPStore {
	return &OTPStore{
		ttl:     ttl,
		clock:   time.Now,
		records: make(map[string]otpEntry),
	}
}

// NewOTPStoreWithClock is test-only for deterministic expiry.
func NewOTPStoreWithClock(ttl time.Duration, clock func() time.Time) *OTPStore {
	s := NewOTPStore(ttl)
	s.clock = clock
	return s
}

func (s *OTPStore) Put(_ context.Context, rec domain.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key(rec.Email)] = otpEntry{rec: rec, expiresAt: s.clock().Add(s.ttl)}
	return nil
}

func (s *OTPStore) Get(_ context.Context, email string) (domain.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[key(email)]
	if !ok || !entry.expiresAt.After(s.clock()) {
		delete(s.records, key(email))
		return domain.OneTimeCode{}, domain.ErrCodeNotFound
	}
	return entry.rec, nil
}

// Update rewrites the record without touching its expiry.
func (s *OTPStore) Update(_ context.Context, rec domain.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[key(rec.Email)]
	if !ok || !entry.expiresAt.After(s.clock()) {
		delete(s.records, key(rec.Email))
		return domain.ErrCodeNotFound
	}
	entry.rec = rec
	s.records[key(rec.Email)] = entry
	return nil
}

func (s *OTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key(email))
	return nil
}

func key(email string) string {
	return strings.ToLower(email)
}

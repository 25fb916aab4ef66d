package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizforge-service/internal/domain"
)

// OTPStore keeps one OTP record per email under otp:<email>, serialized as
// JSON. Expiry is enforced by Redis TTL, not application timestamp checks.
// Put overwrites any prior record in a single SET, which makes re-issuance
// atomic: there is never more than one live code per email.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	return &OTPStore{client: client, ttl: ttl}
}

// Put writes a fresh record with a full TTL, replacing any existing one.
func (s *OTPStore) Put(ctx context.Context, rec domain.OneTimeCode) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(rec.Email), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store otp record: %w", err)
	}
	return nil
}

// Get returns the live record for the email, or domain.ErrCodeNotFound when
// none exists (never issued, expired, or consumed).
func (s *OTPStore) Get(ctx context.Context, email string) (domain.OneTimeCode, error) {
	data, err := s.client.Get(ctx, s.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OneTimeCode{}, domain.ErrCodeNotFound
	}
	if err != nil {
		return domain.OneTimeCode{}, fmt.Errorf("load otp record: %w", err)
	}
	var rec domain.OneTimeCode
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.OneTimeCode{}, fmt.Errorf("decode otp record: %w", err)
	}
	return rec, nil
}

// Update persists attempt counters and the verified flag without resetting
// the remaining TTL.
func (s *OTPStore) Update(ctx context.Context, rec domain.OneTimeCode) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	err = s.client.SetArgs(ctx, s.key(rec.Email), data, redis.SetArgs{KeepTTL: true}).Err()
	if err != nil {
		return fmt.Errorf("update otp record: %w", err)
	}
	return nil
}

// Delete removes the record; a no-op if it already expired.
func (s *OTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("delete otp record: %w", err)
	}
	return nil
}

func (s *OTPStore) key(email string) string {
	return "otp:" + email
}

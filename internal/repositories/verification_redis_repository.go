package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"conexioncarga/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	defaultVerificationPrefix = "verification"

	fieldCode      = "code"
	fieldExpiresAt = "expires_at"
	fieldAttempts  = "attempts"
	fieldCreatedAt = "created_at"

	// Expired codes stay readable for a while so callers can tell "expired" from "never issued".
	codeRetention = 24 * time.Hour
)

// RedisVerificationRepository keeps verification state in Redis hashes.
type RedisVerificationRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisVerificationRepository creates a repository with the given key prefix.
func NewRedisVerificationRepository(client *redis.Client, keyPrefix string) *RedisVerificationRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultVerificationPrefix
	}
	return &RedisVerificationRepository{client: client, prefix: prefix}
}

// Save replaces the pending code hash for the email.
func (r *RedisVerificationRepository) Save(ctx context.Context, code *models.VerificationCode) error {
	key := r.codeKey(code.Email)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code.Code,
		fieldExpiresAt: strconv.FormatInt(code.ExpiresAt.UnixNano(), 10),
		fieldAttempts:  strconv.Itoa(code.Attempts),
		fieldCreatedAt: strconv.FormatInt(code.CreatedAt.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, code.ExpiresAt.Sub(code.CreatedAt)+codeRetention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store verification code: %w", err)
	}
	return nil
}

// Get reads the pending code hash for the email.
func (r *RedisVerificationRepository) Get(ctx context.Context, email string) (*models.VerificationCode, error) {
	values, err := r.client.HGetAll(ctx, r.codeKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall verification code: %w", err)
	}
	if len(values) == 0 || values[fieldCode] == "" {
		return nil, fmt.Errorf("verification code for %s: %w", email, ErrNotFound)
	}

	expiresAt, err := parseUnixNano(values[fieldExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	createdAt, err := parseUnixNano(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	attempts, _ := strconv.Atoi(values[fieldAttempts])

	return &models.VerificationCode{
		Email:     email,
		Code:      values[fieldCode],
		ExpiresAt: expiresAt,
		Attempts:  attempts,
		CreatedAt: createdAt,
	}, nil
}

// IncrementAttempts bumps the attempt counter of an existing code.
func (r *RedisVerificationRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	key := r.codeKey(email)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists verification code: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("verification code for %s: %w", email, ErrNotFound)
	}

	count, err := r.client.HIncrBy(ctx, key, fieldAttempts, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hincrby verification attempts: %w", err)
	}
	return int(count), nil
}

// Delete removes the pending code.
func (r *RedisVerificationRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.codeKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete verification code: %w", err)
	}
	return nil
}

// LastSent reads the cooldown marker for the email.
func (r *RedisVerificationRepository) LastSent(ctx context.Context, email string) (time.Time, error) {
	raw, err := r.client.Get(ctx, r.sentKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, fmt.Errorf("verification send for %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis get verification send: %w", err)
	}
	return parseUnixNano(raw)
}

// MarkSent sets the cooldown marker; it expires together with the cooldown.
func (r *RedisVerificationRepository) MarkSent(ctx context.Context, email string, at time.Time, cooldown time.Duration) error {
	if cooldown <= 0 {
		return nil
	}
	err := r.client.Set(ctx, r.sentKey(email), strconv.FormatInt(at.UnixNano(), 10), cooldown).Err()
	if err != nil {
		return fmt.Errorf("redis set verification send: %w", err)
	}
	return nil
}

func (r *RedisVerificationRepository) codeKey(email string) string {
	return r.prefix + ":code:" + email
}

func (r *RedisVerificationRepository) sentKey(email string) string {
	return r.prefix + ":sent:" + email
}

func parseUnixNano(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, v).UTC(), nil
}

package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"conexioncarga/internal/models"
)

// MemoryVerificationRepository is an in-memory implementation of VerificationRepository.
// State lives only as long as the process and is not shared between instances.
type MemoryVerificationRepository struct {
	codes map[string]models.VerificationCode
	sent  map[string]time.Time
	mu    sync.RWMutex
}

// NewMemoryVerificationRepository creates a new instance of MemoryVerificationRepository.
func NewMemoryVerificationRepository() *MemoryVerificationRepository {
	return &MemoryVerificationRepository{
		codes: make(map[string]models.VerificationCode),
		sent:  make(map[string]time.Time),
	}
}

// Save stores the pending code, replacing any previous one.
func (r *MemoryVerificationRepository) Save(_ context.Context, code *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codes[code.Email] = *code
	return nil
}

// Get returns the pending code for email.
func (r *MemoryVerificationRepository) Get(_ context.Context, email string) (*models.VerificationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.codes[email]
	if !ok {
		return nil, fmt.Errorf("verification code for %s: %w", email, ErrNotFound)
	}
	return &code, nil
}

// IncrementAttempts bumps the attempt counter.
func (r *MemoryVerificationRepository) IncrementAttempts(_ context.Context, email string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[email]
	if !ok {
		return 0, fmt.Errorf("verification code for %s: %w", email, ErrNotFound)
	}
	code.Attempts++
	r.codes[email] = code
	return code.Attempts, nil
}

// Delete removes the pending code.
func (r *MemoryVerificationRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, email)
	return nil
}

// LastSent returns the last send instant for email.
func (r *MemoryVerificationRepository) LastSent(_ context.Context, email string) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	at, ok := r.sent[email]
	if !ok {
		return time.Time{}, fmt.Errorf("verification send for %s: %w", email, ErrNotFound)
	}
	return at, nil
}

// MarkSent records a send instant.
func (r *MemoryVerificationRepository) MarkSent(_ context.Context, email string, at time.Time, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent[email] = at
	return nil
}

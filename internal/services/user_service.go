package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conexioncarga/internal/models"
	"conexioncarga/internal/repositories"

	"github.com/sirupsen/logrus"
)

// PasswordHasher hashes passwords and checks them against stored hashes.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// RegisterInput holds the validated registration fields.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       *string
	IsCompany   bool
	CompanyName *string
}

// Registration is the outcome of Register. User is set whenever the account was created,
// even if issuing the verification code failed afterwards.
type Registration struct {
	User *models.User
	Code string
}

// UserService handles registration and profile management.
type UserService struct {
	users        repositories.UserRepository
	hasher       PasswordHasher
	verification *VerificationService
	now          Clock
	logger       *logrus.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repositories.UserRepository, hasher PasswordHasher, verification *VerificationService, now Clock, logger *logrus.Logger) *UserService {
	if now == nil {
		now = SystemClock
	}
	return &UserService{
		users:        users,
		hasher:       hasher,
		verification: verification,
		now:          now,
		logger:       logger,
	}
}

// Register creates an inactive account and sends its verification code.
// Emails are stored trimmed and lowercased.
// A failure to send is returned alongside the created account; the account is not rolled back.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	email := normalizeEmail(in.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email %s: %w", email, err)
	}

	companyName := trimmedOrNil(in.CompanyName)
	if !in.IsCompany {
		companyName = nil
	} else if companyName == nil {
		return nil, ErrCompanyNameRequired
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        trimmedOrNil(in.Phone),
		IsCompany:    in.IsCompany,
		CompanyName:  companyName,
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "is_company": user.IsCompany}).Info("user registered")

	reg := &Registration{User: user}
	code, err := s.verification.Issue(ctx, email)
	if err != nil {
		return reg, err
	}
	reg.Code = code
	return reg, nil
}

// Profile returns the account with the given ID.
func (s *UserService) Profile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// Update applies the provided fields only. Turning the company flag off clears the
// company name; a new password is re-hashed.
func (s *UserService) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		existing, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, ErrEmailTaken
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("failed to check email %s: %w", email, err)
		}
		user.Email = email
	}
	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		user.Phone = trimmedOrNil(upd.Phone)
	}
	if upd.IsCompany != nil {
		user.IsCompany = *upd.IsCompany
	}
	if upd.CompanyName != nil {
		user.CompanyName = trimmedOrNil(upd.CompanyName)
	}
	if !user.IsCompany {
		user.CompanyName = nil
	} else if user.CompanyName == nil {
		return nil, ErrCompanyNameRequired
	}
	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return user, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

package handlers

import (
	"errors"
	"strings"
	"unicode/utf8"

	"conexioncarga/internal/models"
	"conexioncarga/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UserHandler handles registration, email verification and profile requests.
type UserHandler struct {
	userService         *services.UserService
	verificationService *services.VerificationService
	validate            *validator.Validate
	logger              *logrus.Logger
	exposeCode          bool
}

// NewUserHandler creates a new UserHandler. With exposeCode set, the verification
// code is echoed in register and resend responses.
func NewUserHandler(userService *services.UserService, verificationService *services.VerificationService, logger *logrus.Logger, exposeCode bool) *UserHandler {
	return &UserHandler{
		userService:         userService,
		verificationService: verificationService,
		validate:            newValidator(),
		logger:              logger,
		exposeCode:          exposeCode,
	}
}

// RegisterRoutes registers the user routes. auth guards the routes that need a caller.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/register", h.HandleRegister)
	userRoutes.Post("/verify", h.HandleVerify)
	userRoutes.Post("/verify/resend", h.HandleResend)
	userRoutes.Get("/me", auth, h.HandleMe)
	userRoutes.Put("/:id", auth, h.HandleUpdate)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email           string  `json:"email" validate:"required,email,max=255"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string  `json:"first_name" validate:"required,max=120"`
	LastName        string  `json:"last_name" validate:"required,max=120"`
	Phone           *string `json:"phone" validate:"omitempty,max=30"`
	IsCompany       bool    `json:"is_company"`
	CompanyName     *string `json:"company_name" validate:"required_if=IsCompany true"`
}

// HandleRegister creates an inactive account and sends the verification code.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return writeError(c, h.logger, err)
	}
	if req.CompanyName != nil && utf8.RuneCountInString(*req.CompanyName) > 255 {
		return writeError(c, h.logger, invalidField("company_name", "must be at most 255 characters"))
	}

	reg, err := h.userService.Register(c.UserContext(), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		IsCompany:   req.IsCompany,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		if reg == nil {
			return writeError(c, h.logger, err)
		}
		// The account exists; only the code could not be issued.
		h.logger.WithError(err).WithField("user_id", reg.User.ID).Warn("registered without verification code")
		switch {
		case errors.Is(err, services.ErrDeliveryFailed):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message":           "registered; verification email failed, resend available",
				"user_id":           reg.User.ID,
				"verification_sent": false,
				"error":             err.Error(),
			})
		case errors.Is(err, services.ErrResendCooldown):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message":           "registered; wait before resending the code",
				"user_id":           reg.User.ID,
				"verification_sent": false,
			})
		default:
			return writeError(c, h.logger, err)
		}
	}

	body := fiber.Map{
		"message":           "User registered successfully",
		"user":              reg.User,
		"verification_sent": true,
	}
	if h.exposeCode {
		body["code"] = reg.Code
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// VerifyRequest represents the request body for email verification.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,max=10"`
}

// HandleVerify activates the account whose pending code matches.
func (h *UserHandler) HandleVerify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return writeError(c, h.logger, err)
	}

	user, err := h.verificationService.Verify(c.UserContext(), req.Email, req.Code)
	if err != nil {
		var attemptErr *services.AttemptError
		if errors.As(err, &attemptErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message":            "Verification failed",
				"error":              err.Error(),
				"attempts_remaining": attemptErr.Remaining,
			})
		}
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"message": "Email verified",
		"user":    user,
	})
}

// ResendRequest represents the request body for a new verification code.
type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleResend issues a fresh code for an unverified account.
func (h *UserHandler) HandleResend(c *fiber.Ctx) error {
	var req ResendRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return writeError(c, h.logger, err)
	}

	code, err := h.verificationService.Resend(c.UserContext(), req.Email)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	body := fiber.Map{"message": "Verification code sent"}
	if h.exposeCode {
		body["code"] = code
	}
	return c.JSON(body)
}

// HandleMe returns the caller's profile.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.userService.Profile(c.UserContext(), currentUserID(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(user)
}

// UpdateUserRequest represents a partial profile update. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Email           *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=120"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=120"`
	Phone           *string `json:"phone" validate:"omitempty,max=30"`
	IsCompany       *bool   `json:"is_company"`
	CompanyName     *string `json:"company_name" validate:"omitempty,max=255"`
	Password        *string `json:"password" validate:"omitempty,min=8,max=72"`
	ConfirmPassword *string `json:"confirm_password"`
}

// HandleUpdate applies a partial update to the caller's own profile.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	if id != currentUserID(c) {
		return writeError(c, h.logger, services.ErrForbidden)
	}

	var req UpdateUserRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return writeError(c, h.logger, err)
	}
	if req.Password != nil && (req.ConfirmPassword == nil || *req.ConfirmPassword != *req.Password) {
		return writeError(c, h.logger, invalidField("confirm_password", "must match password"))
	}
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) == "" {
		return writeError(c, h.logger, invalidField("first_name", "must not be blank"))
	}

	user, err := h.userService.Update(c.UserContext(), id, models.UserUpdate{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		IsCompany:   req.IsCompany,
		CompanyName: req.CompanyName,
		Password:    req.Password,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(user)
}

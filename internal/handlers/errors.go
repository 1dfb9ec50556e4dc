package handlers

import (
	"errors"
	"fmt"

	"conexioncarga/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// errorCase maps a service error to the HTTP answer given for it.
type errorCase struct {
	target  error
	status  int
	message string
}

// Order matters: the first case matching with errors.Is wins.
var errorCases = []errorCase{
	{services.ErrDuplicateListing, fiber.StatusConflict, "Listing already published"},
	{services.ErrEmailTaken, fiber.StatusConflict, "Email already registered"},
	{services.ErrAlreadyVerified, fiber.StatusConflict, "Email already verified"},
	{services.ErrCompanyNameRequired, fiber.StatusUnprocessableEntity, "Validation failed"},
	{services.ErrInvalidFilter, fiber.StatusUnprocessableEntity, "Validation failed"},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Authentication failed"},
	{services.ErrInvalidToken, fiber.StatusUnauthorized, "Invalid or expired token"},
	{services.ErrNotVerified, fiber.StatusForbidden, "Email not verified"},
	{services.ErrForbidden, fiber.StatusForbidden, "Forbidden"},
	{services.ErrListingNotFound, fiber.StatusNotFound, "Listing not found"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "User not found"},
	{services.ErrNoPendingVerification, fiber.StatusBadRequest, "Verification failed"},
	{services.ErrCodeExpired, fiber.StatusBadRequest, "Verification failed"},
	{services.ErrTooManyAttempts, fiber.StatusBadRequest, "Verification failed"},
	{services.ErrInvalidCode, fiber.StatusBadRequest, "Verification failed"},
	{services.ErrResendCooldown, fiber.StatusTooManyRequests, "Wait before resending the code"},
	{services.ErrDeliveryFailed, fiber.StatusBadGateway, "Email send failed"},
}

// writeError answers with the status mapped to err, or 500 for anything unexpected.
func writeError(c *fiber.Ctx, logger *logrus.Logger, err error) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		body := fiber.Map{"message": reqErr.message}
		if reqErr.fields != nil {
			body["errors"] = reqErr.fields
		} else if reqErr.err != nil {
			body["error"] = reqErr.err.Error()
		}
		return c.Status(reqErr.status).JSON(body)
	}

	for _, ec := range errorCases {
		if errors.Is(err, ec.target) {
			return c.Status(ec.status).JSON(fiber.Map{
				"message": ec.message,
				"error":   err.Error(),
			})
		}
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
	})
}

// requestError is a rejected request body, answered before any service runs.
type requestError struct {
	status  int
	message string
	err     error
	fields  map[string]string
}

func (e *requestError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func invalidField(field, msg string) error {
	return &requestError{
		status:  fiber.StatusUnprocessableEntity,
		message: "Validation failed",
		fields:  map[string]string{field: msg},
	}
}

// bindJSON parses the body into req and runs the struct validations.
func bindJSON(c *fiber.Ctx, validate *validator.Validate, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return &requestError{status: fiber.StatusBadRequest, message: "Invalid request body", err: err}
	}
	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return &requestError{status: fiber.StatusBadRequest, message: "Invalid request body", err: err}
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return &requestError{status: fiber.StatusUnprocessableEntity, message: "Validation failed", fields: errorMessages}
	}
	return nil
}

// newValidator returns a validator reporting JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

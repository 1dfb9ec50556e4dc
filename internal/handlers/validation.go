package handlers

import (
	"reflect"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// currentUserID returns the subject stored by middleware.AuthRequired.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// pagination reads skip and limit, falling back to the default limit and capping it at max.
func pagination(c *fiber.Ctx, defaultLimit, maxLimit int) (int, int, error) {
	skip := c.QueryInt("skip", 0)
	if skip < 0 {
		return 0, 0, invalidField("skip", "must be zero or greater")
	}
	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		return 0, 0, invalidField("limit", "must be at least 1")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit, nil
}

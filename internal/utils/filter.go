package utils

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/example/accounts/internal/store"
)

// ParseFilter reads the JSON "filter" query parameter used by the list
// endpoints. An absent parameter yields the zero filter.
func ParseFilter(c *fiber.Ctx) (store.Filter, error) {
	var filter store.Filter
	raw := c.Query("filter")
	if raw == "" {
		return filter, nil
	}
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return filter, fiber.NewError(fiber.StatusBadRequest, "invalid filter")
	}
	return filter, nil
}

// ParseWhere reads the JSON "where" query parameter.
func ParseWhere(c *fiber.Ctx) (map[string]interface{}, error) {
	raw := c.Query("where")
	if raw == "" {
		return nil, nil
	}
	where := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &where); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid where")
	}
	return where, nil
}

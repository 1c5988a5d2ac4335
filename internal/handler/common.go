package handler // handler defines the HTTP handlers of the service

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id stored by the JWT middleware and converts
// it to uint64. JWT numeric claims decode as float64, so several shapes
// are accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role stored by the JWT middleware.
func getRole(c echo.Context) (string, error) {
	if role, ok := c.Get("role").(string); ok && role != "" {
		return role, nil
	}
	return "", errors.New("invalid role in context")
}

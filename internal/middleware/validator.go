package middleware

import (
	"fmt"
	"strconv"
	"strings"
)

// maxUserIDLen bounds user ids accepted on query strings.
const maxUserIDLen = 256

// ValidateUserID checks a user id taken from a query string.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user_id parameter is required")
	}
	if len(userID) > maxUserIDLen {
		return fmt.Errorf("user_id must be at most %d characters", maxUserIDLen)
	}
	if strings.ContainsRune(userID, '\x00') {
		return fmt.Errorf("invalid characters in user_id")
	}
	return nil
}

// ValidateLimit parses an optional limit parameter. An empty value yields
// def; anything else must be an integer in [1, max].
func ValidateLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer")
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("limit must be between 1 and %d", max)
	}
	return n, nil
}

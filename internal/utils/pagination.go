// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// The listing endpoints use it for the limit query parameter, leaving
// range clamping to the service layer:
//
//	limit := utils.AtoiDefault(c.Query("limit"), 0) // "20" → 20
//	limit = utils.AtoiDefault("", 0)                // absent → 0 (service default)
//	limit = utils.AtoiDefault("abc", 0)             // junk → 0
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseHistoryWindow reads "days:N". An empty value keeps the configured window.
func parseHistoryWindow(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	unit, value, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || strings.ToLower(unit) != "days" {
		return 0, fmt.Errorf("invalid history_window %q, expected days:N", s)
	}
	days, err := strconv.Atoi(value)
	if err != nil || days < 1 {
		return 0, fmt.Errorf("invalid history_window %q, expected a positive day count", s)
	}
	return days, nil
}

// parseBoolFlag reads the "true"/"false" string flags. Anything other than
// "true" (case-insensitive) is false; an empty value means unset.
func parseBoolFlag(s string) *bool {
	if s == "" {
		return nil
	}
	v := strings.EqualFold(strings.TrimSpace(s), "true")
	return &v
}

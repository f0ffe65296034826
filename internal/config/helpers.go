package config

import (
	"fmt"
	"net"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	envKeyReplacer = strings.NewReplacer(".", "_")
	offsetPattern  = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)
)

// OutputPath returns the full path for a run artifact
func (c *Config) OutputPath(elem ...string) string {
	return filepath.Join(append([]string{c.Output.Dir}, elem...)...)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// Location returns the city's timezone.
// Supports IANA names ("Asia/Kolkata") and offsets ("+05:30"); falls back to UTC.
func (c CityConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}

	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}

	if loc, err := parseOffsetTimezone(c.Timezone); err == nil {
		return loc
	}

	return time.UTC
}

// parseOffsetTimezone parses timezone offset format like "+05:30", "-05:00"
func parseOffsetTimezone(offset string) (*time.Location, error) {
	matches := offsetPattern.FindStringSubmatch(offset)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid offset format: %s", offset)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}

	hours, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid hours: %s", matches[2])
	}
	minutes, err := strconv.Atoi(matches[3])
	if err != nil {
		return nil, fmt.Errorf("invalid minutes: %s", matches[3])
	}

	return time.FixedZone(offset, sign*(hours*3600+minutes*60)), nil
}

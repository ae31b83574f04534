// Package age parses the --age threshold syntax: an integer or
// floating-point value with an optional unit suffix of s, m, h, or d
// (case-insensitive). A bare number means days.
package age

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultThreshold is the age threshold applied when --age is not given.
const DefaultThreshold = "1"

var thresholdRegex = regexp.MustCompile(`^([+-]?(?:[0-9]*\.[0-9]+|[0-9]+(?:\.[0-9]*)?))([smhd])?$`)

var unitSeconds = map[string]float64{
	"":  86400,
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
}

// ParseThreshold converts a threshold spec into a duration, truncated to
// whole seconds.
func ParseThreshold(spec string) (time.Duration, error) {
	m := thresholdRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(spec)))
	if m == nil {
		return 0, fmt.Errorf("invalid age threshold: %s", spec)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid age threshold: %s", spec)
	}
	seconds := int64(value * unitSeconds[m[2]])
	return time.Duration(seconds) * time.Second, nil
}

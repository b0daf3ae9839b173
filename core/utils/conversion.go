package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToBool parses loose boolean input such as query parameters and flags.
// It accepts 1/0, true/false, yes/no and on/off in any case, and returns
// fallback for empty or unrecognized input.
func ToBool(val string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// ToOptionalInt parses an optional integer. Empty input yields nil.
func ToOptionalInt(val string) (*int, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", val)
	}
	return &i, nil
}

// SplitList splits a comma separated list, trimming items and dropping empty ones.
// It returns nil when nothing is left.
func SplitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package utils

import "strconv"

// ParseBoolQuery returns nil when the parameter was not provided.
func ParseBoolQuery(value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// ClampLimit parses a limit query value, falling back to def when absent or
// invalid and capping it at max.
func ClampLimit(v string, def, max int) int {
	n := ParseIntDefault(v, def)
	if n < 1 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}

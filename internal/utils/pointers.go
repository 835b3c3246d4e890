package utils

import (
	"fmt"
	"strings"
)

func BoolPtr(b bool) *bool {
	return &b
}

func Float64Ptr(f float64) *float64 {
	return &f
}

func StringPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TrimmedStringPtr returns nil for blank input.
func TrimmedStringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

const columnPrefixFmt = "%s.%s"

// PrefixColumns qualifies every column with a table alias for joined selects.
func PrefixColumns(prefix string, columns []string) []string {
	out := make([]string, len(columns))
	for i, v := range columns {
		out[i] = fmt.Sprintf(columnPrefixFmt, prefix, v)
	}
	return out
}

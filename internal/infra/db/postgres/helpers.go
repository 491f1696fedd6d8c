package postgres

import (
	"strings"

	"github.com/lib/pq"
)

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func dashToEmpty(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

// textArray adapts a []string for a TEXT[] column.
func textArray(v []string) any {
	return pq.Array(v)
}

package gokeyset

import "fmt"

const (
	DefaultPageSize  = 10
	DefaultPageLimit = 100
)

// IsValidPageSize reports whether size is within (0, limit].
func IsValidPageSize(size int, limit int) bool {
	return size > 0 && size <= limit
}

func pageSizeRangeMessage(limit int) string {
	return fmt.Sprintf("Results are limited to between 1 and %d entries.", limit)
}

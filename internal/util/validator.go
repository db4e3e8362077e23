package util

import (
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// ValidateDate checks a YYYY-MM-DD date.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ParseDateRange turns optional start/end dates into a half-open interval.
// A zero time means the side is unbounded; end covers the whole end day.
func ParseDateRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		if err = ValidateDate(startStr); err != nil {
			return start, end, fmt.Errorf("start: %w", err)
		}
		start, _ = time.Parse(dateLayout, startStr)
	}
	if endStr != "" {
		if err = ValidateDate(endStr); err != nil {
			return start, end, fmt.Errorf("end: %w", err)
		}
		end, _ = time.Parse(dateLayout, endStr)
		end = end.Add(24 * time.Hour)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return start, end, fmt.Errorf("start must not be after end")
	}
	return start, end, nil
}

// ParsePage normalises page/page_size query values.
func ParsePage(pageStr, sizeStr string, defSize, maxSize int) (page, size int) {
	page, _ = strconv.Atoi(pageStr)
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(sizeStr)
	if size <= 0 || size > maxSize {
		size = defSize
	}
	return page, size
}

package util

import (
	"testing"
	"time"
)

func TestValidateDate_Valid(t *testing.T) {
	for _, date := range []string{"2024-01-01", "2024-12-31", "2025-06-15"} {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}
}

func TestValidateDate_InvalidFormat(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01",
		"2024-01-32",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2025-07-01", "2025-07-03")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if !start.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want the day after", end)
	}

	start, end, err = ParseDateRange("", "")
	if err != nil || !start.IsZero() || !end.IsZero() {
		t.Errorf("empty range = %v %v %v", start, end, err)
	}

	if _, _, err := ParseDateRange("2025-07-05", "2025-07-01"); err == nil {
		t.Error("inverted range must fail")
	}
	if _, _, err := ParseDateRange("07/01/2025", ""); err == nil {
		t.Error("bad start must fail")
	}
}

func TestParsePage(t *testing.T) {
	testCases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, 20},
		{"3", "50", 3, 50},
		{"-1", "1000", 1, 20},
		{"x", "0", 1, 20},
	}
	for _, tc := range testCases {
		p, s := ParsePage(tc.page, tc.size, 20, 100)
		if p != tc.wantPage || s != tc.wantSize {
			t.Errorf("ParsePage(%q,%q) = %d,%d want %d,%d", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

package dateutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		order    []string
		expected string
		ok       bool
	}{
		{"US slash format", "01/15/2024", []string{"mdy"}, "2024-01-15", true},
		{"US dash two-digit year", "1-15-24", []string{"mdy"}, "2024-01-15", true},
		{"Day month year spaced", "02 MAY 24", []string{"dmy"}, "2024-05-02", true},
		{"Day month year lowercase", "02 may 2024", []string{"dmy"}, "2024-05-02", true},
		{"Day month year compact", "02MAY24", []string{"dmy"}, "2024-05-02", true},
		{"Numeric dmy dashes", "15-01-2024", []string{"dmy"}, "2024-01-15", true},
		{"ISO slash", "2024/01/15", []string{"ymd"}, "2024-01-15", true},
		{"ISO dash", "2024-01-15", []string{"ymd"}, "2024-01-15", true},
		{"Order decides ambiguity mdy", "03-04-2024", []string{"mdy"}, "2024-03-04", true},
		{"Order decides ambiguity dmy", "03-04-2024", []string{"dmy"}, "2024-04-03", true},
		{"Clock suffix stripped", "01/15/2024, 11:10 AM", []string{"mdy"}, "2024-01-15", true},
		{"Clock suffix with seconds", "01/15/2024 23:59:59", []string{"mdy"}, "2024-01-15", true},
		{"OCR letter O between digits", "10/15/2O24", []string{"mdy"}, "2024-10-15", true},
		{"Date embedded in line", "BEGINNING BALANCE 01/15/2024 1,200.00", []string{"mdy"}, "2024-01-15", true},
		{"OCR compact month token", "O2MAYZ4", []string{"dmy"}, "2024-05-02", true},
		{"OCR compact corrupt day", "4OMAY24", []string{"dmy"}, "2024-05-01", true},
		{"Empty", "", []string{"mdy"}, "", false},
		{"No date at all", "SERVICE CHARGE", []string{"mdy"}, "", false},
		{"Impossible components", "13/45/2024", []string{"mdy"}, "", false},
		{"February overflow", "02/30/2024", []string{"mdy"}, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeDate(tc.input, tc.order)
			if tc.ok {
				require.NotNil(t, got, "expected a date for %q", tc.input)
				assert.Equal(t, tc.expected, *got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestNormalizeDateBareMonthDay(t *testing.T) {
	// Without a year the current year is assumed; assert month and day only.
	got := NormalizeDate("06/15 POS PURCHASE", []string{"mdy"})
	require.NotNil(t, got)
	assert.True(t, strings.HasSuffix(*got, "-06-15"), "got %s", *got)
}

func TestStripFirstDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		order    []string
		expected string
	}{
		{"Removes leading date", "01/15/2024 STARBUCKS", []string{"mdy"}, "STARBUCKS"},
		{"Removes embedded date", "PAYMENT 02 MAY 24 REF 881", []string{"dmy"}, "PAYMENT REF 881"},
		{"Tries other orders after preferred", "2024-01-15 TRANSFER", []string{"mdy"}, "TRANSFER"},
		{"No date leaves text alone", "SERVICE CHARGE", []string{"mdy"}, "SERVICE CHARGE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := strings.Join(strings.Fields(StripFirstDate(tc.input, tc.order)), " ")
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestIsValidOrder(t *testing.T) {
	assert.True(t, IsValidOrder("mdy"))
	assert.True(t, IsValidOrder("dmy"))
	assert.True(t, IsValidOrder("ymd"))
	assert.False(t, IsValidOrder("ydm"))
	assert.False(t, IsValidOrder(""))
}

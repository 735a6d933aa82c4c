package collector

import (
	"regexp"
	"strconv"
)

var (
	digitRunRegex = regexp.MustCompile(`\d+`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// ParseOptionalInt reads an integer out of a free-text portal cell by
// stripping every non-digit character. "12,345" and "3500 MB" parse to
// their digits; "", "N/A" and "-" yield nil. Never returns an error.
func ParseOptionalInt(text string) *int {
	cleaned := nonDigitRegex.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &n
}

// ParseSignalLevel extracts the first run of digits from a signal cell,
// so "4/5 bars" reads as 4. Text without digits yields nil, not zero.
func ParseSignalLevel(text string) *int {
	match := digitRunRegex.FindString(text)
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &n
}

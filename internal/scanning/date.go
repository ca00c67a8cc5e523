package scanning

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// monthNumbers maps the first three letters of an English month name to
// its zero-padded number.
var monthNumbers = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// datePattern pairs a regexp with the builder that turns its submatches
// into year/month/day components. numericDayMonth marks the classes
// where day and month are both bare numbers and may have been written
// in either order.
type datePattern struct {
	re              *regexp.Regexp
	build           func(m []string) (year, month, day string)
	numericDayMonth bool
}

// datePatterns is the ordered list of date pattern classes, highest
// priority first. The first valid match wins.
var datePatterns = []datePattern{
	{
		// 14/03/2024, 14-3-2024, 14.03.2024
		re: regexp.MustCompile(`(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})`),
		build: func(m []string) (string, string, string) {
			return m[3], pad2(m[2]), pad2(m[1])
		},
		numericDayMonth: true,
	},
	{
		// 2024/03/14, 2024-3-14
		re: regexp.MustCompile(`(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})`),
		build: func(m []string) (string, string, string) {
			return m[1], pad2(m[2]), pad2(m[3])
		},
	},
	{
		// 15 Mar 2024, 15 March 2024
		re: regexp.MustCompile(`(?i)(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{4})`),
		build: func(m []string) (string, string, string) {
			return m[3], monthNumbers[strings.ToLower(m[2])], pad2(m[1])
		},
	},
	{
		// Mar 15, 2024 / March 15 2024
		re: regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{1,2}),?\s+(\d{4})`),
		build: func(m []string) (string, string, string) {
			return m[3], monthNumbers[strings.ToLower(m[1])], pad2(m[2])
		},
	},
}

// ExtractDate finds the most likely transaction date in the raw OCR
// text. Pattern classes are tried in priority order and within a class
// the first occurrence in the text governs. Day-first is assumed for
// bare numeric dates; when that yields an impossible month the two
// components are swapped (so "03/14/2024" still reads as March 14).
// A match returns the composed YYYY-MM-DD at confidence 80; no match
// anywhere falls back to today's date at confidence 30 to signal that
// the value is a guess.
func ExtractDate(text string) Field {
	for _, pattern := range datePatterns {
		for _, match := range pattern.re.FindAllStringSubmatch(text, -1) {
			year, month, day := pattern.build(match)

			value := fmt.Sprintf("%s-%s-%s", year, month, day)
			if isValidDate(value) {
				return Field{Value: value, Confidence: 80}
			}
			if pattern.numericDayMonth {
				swapped := fmt.Sprintf("%s-%s-%s", year, day, month)
				if isValidDate(swapped) {
					return Field{Value: swapped, Confidence: 80}
				}
			}
		}
	}

	return Field{
		Value:      time.Now().Format("2006-01-02"),
		Confidence: 30,
	}
}

func isValidDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

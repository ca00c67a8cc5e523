package scanning

import (
	"regexp"
	"strings"
)

// merchantExcludePatterns reject lines that cannot be a business name:
// bare numbers, amounts, receipt metadata and leading time/date tokens.
var merchantExcludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^[₹$€£]`),
	regexp.MustCompile(`(?i)^(date|time|total|amount|cash|card|tax|gst|receipt|invoice)`),
	regexp.MustCompile(`^\d{1,2}[/\-:]`),
}

// merchantStripPattern removes everything outside the characters that
// legitimately occur in business names.
var merchantStripPattern = regexp.MustCompile(`[^a-zA-Z0-9\s&'-]`)

// maxMerchantCandidateLines bounds the search to the top of the
// receipt, where merchant names conventionally appear.
const maxMerchantCandidateLines = 5

// ExtractMerchant guesses the business name from the raw OCR text. The
// first of the top five surviving lines that is not excluded and has a
// plausible length is returned at confidence 70; if every candidate is
// excluded the result is "Unknown Merchant" at confidence 20.
func ExtractMerchant(text string) Field {
	lines := make([]string, 0, maxMerchantCandidateLines)
	for _, line := range strings.Split(text, "\n") {
		if len(strings.TrimSpace(line)) > 2 {
			lines = append(lines, line)
		}
		if len(lines) == maxMerchantCandidateLines {
			break
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 3 || len(trimmed) > 50 {
			continue
		}

		excluded := false
		for _, pattern := range merchantExcludePatterns {
			if pattern.MatchString(trimmed) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		return Field{
			Value:      strings.TrimSpace(merchantStripPattern.ReplaceAllString(trimmed, "")),
			Confidence: 70,
		}
	}

	return Field{Value: "Unknown Merchant", Confidence: 20}
}

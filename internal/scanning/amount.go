package scanning

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountPatterns is the ordered set of amount pattern classes. All
// classes are applied to the whole text and feed one candidate pool;
// the order documents descending reliability but does not short-circuit.
var amountPatterns = []*regexp.Regexp{
	// keyword-anchored: "Total: $45.67", "SUBTOTAL 40.00"
	regexp.MustCompile(`(?i)(?:total|amount|sum|grand\s*total|net\s*total|subtotal)[:\s]*[$₹€£]?\s*([\d,]+\.?\d*)`),
	// bare currency-symbol-prefixed: "$12.50", "₹ 250.00"
	regexp.MustCompile(`[$₹€£]\s*([\d,]+\.?\d+)`),
	// any literal with exactly two decimals, catches untagged totals
	regexp.MustCompile(`([\d,]+\.\d{2})`),
}

// maxPlausibleAmount guards against OCR misreads producing absurd
// magnitudes or garbage digit runs.
const maxPlausibleAmount = 10_000_000

// ExtractAmount finds the most likely total monetary amount in the raw
// OCR text. Every match of every pattern class is collected; the
// numerically largest plausible candidate wins, because receipts list
// subtotal/tax/total in ascending order. Returns ("", 0) when nothing
// plausible is found, otherwise the value formatted to two decimals at
// confidence 85.
func ExtractAmount(text string) Field {
	var largest float64
	found := false

	for _, pattern := range amountPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			raw := match[1]
			value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
				continue
			}
			if value <= 0 || value >= maxPlausibleAmount {
				continue
			}
			if !found || value > largest {
				largest = value
				found = true
			}
		}
	}

	if !found {
		return Field{Value: "", Confidence: 0}
	}

	// Confidence is the same for every pattern class. Keyword-anchored
	// matches are clearly more reliable than bare two-decimal literals,
	// but downstream review thresholds were tuned against this constant.
	return Field{
		Value:      fmt.Sprintf("%.2f", largest),
		Confidence: 85,
	}
}

package scanning

import "strings"

// Category maps a spending category id to the keyword substrings that
// identify it in a merchant name or expense title.
type Category struct {
	ID       string
	Keywords []string
}

// FallbackCategory is returned when no keyword matches
const FallbackCategory = "other"

// DefaultCategories is the built-in category table. A slice rather than
// a map so iteration order, and therefore keyword precedence, is fixed.
// The table is externally definable; callers may supply their own.
var DefaultCategories = []Category{
	{ID: "food", Keywords: []string{"restaurant", "cafe", "coffee", "starbucks", "mcdonalds", "pizza", "food", "eat", "dine"}},
	{ID: "transport", Keywords: []string{"uber", "ola", "taxi", "metro", "bus", "fuel", "petrol", "parking"}},
	{ID: "shopping", Keywords: []string{"amazon", "flipkart", "mall", "store", "shop", "market"}},
	{ID: "entertainment", Keywords: []string{"movie", "cinema", "netflix", "spotify", "game"}},
	{ID: "bills", Keywords: []string{"electricity", "water", "gas", "internet", "phone", "mobile", "bill"}},
	{ID: "health", Keywords: []string{"pharmacy", "hospital", "doctor", "medicine", "medical", "gym"}},
	{ID: "groceries", Keywords: []string{"grocery", "vegetables", "fruits", "supermarket", "bigbasket"}},
}

// GuessCategory maps a title to the first category whose keyword list
// contains a substring match against the lower-cased title, in table
// order. No match yields FallbackCategory. Purely advisory: there is no
// confidence score and the guess is always human-overridable downstream.
func GuessCategory(title string, table []Category) string {
	title = strings.ToLower(title)
	for _, category := range table {
		for _, keyword := range category.Keywords {
			if keyword != "" && strings.Contains(title, keyword) {
				return category.ID
			}
		}
	}
	return FallbackCategory
}

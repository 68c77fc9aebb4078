package play

// CardType labels how a round's situation expects to be answered.
type CardType string

const (
	// CardTypeChoice presents fixed options both participants pick from.
	CardTypeChoice CardType = "choice"
	// CardTypeValues presents open value questions answered in free text.
	CardTypeValues CardType = "values"
)

// IsValidCardType reports whether value is a known card type.
func IsValidCardType(value CardType) bool {
	return value == CardTypeChoice || value == CardTypeValues
}

// Category is a content category with the minimum adult level it requires.
type Category struct {
	ID       string
	Label    string
	MinLevel int
}

// categories is the fixed catalog. Order is presentation order.
var categories = []Category{
	{ID: "memories", Label: "Shared memories", MinLevel: 0},
	{ID: "gratitude", Label: "Gratitude", MinLevel: 0},
	{ID: "values", Label: "Values & beliefs", MinLevel: 0},
	{ID: "dreams", Label: "Dreams & plans", MinLevel: 0},
	{ID: "flirtation", Label: "Flirtation", MinLevel: 1},
	{ID: "romance", Label: "Romance", MinLevel: 1},
	{ID: "date_night", Label: "Date night", MinLevel: 1},
	{ID: "desire", Label: "Desire", MinLevel: 2},
	{ID: "fantasy", Label: "Fantasy", MinLevel: 2},
	{ID: "intimacy", Label: "Intimacy", MinLevel: 3},
}

// Categories returns the full category catalog.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryByID resolves a category by its identifier.
func CategoryByID(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryAvailable reports whether a category may be used at the given
// adult level. The server is the enforcement point; client filtering is
// cosmetic.
func CategoryAvailable(c Category, adultLevel int) bool {
	return c.MinLevel <= adultLevel
}

package recipe

import (
	"slices"
	"time"
)

// Category is one of the fixed recipe categories.
type Category string

const (
	Breakfast Category = "Breakfast"
	Lunch     Category = "Lunch"
	Dinner    Category = "Dinner"
	Dessert   Category = "Dessert"
	Healthy   Category = "Healthy"
)

// Categories lists the fixed category set in display order.
var Categories = []Category{Breakfast, Lunch, Dinner, Dessert, Healthy}

// Valid reports whether c is one of the fixed categories.
// The comparison is exact: "dinner" is not a category.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// DefaultImage is the placeholder substituted when a recipe is saved without images.
const DefaultImage = "https://images.unsplash.com/photo-1495521821757-a1efb6729352?auto=format&fit=crop&q=80&w=800"

// CreatedAtLayout matches the ISO-8601 form stored in createdAt (UTC, milliseconds).
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Recipe is a single catalog entry. It is the only persisted entity;
// JSON field names are the stored document format.
type Recipe struct {
	// ID is assigned at creation and never reassigned
	ID int64 `json:"id"`

	Title    string   `json:"title"`
	Category Category `json:"category"`

	// Ingredients and Steps keep input order; the first three ingredients
	// are the card preview tags and steps are numbered in the detail view
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`

	// Images is non-empty; Images[0] is the thumbnail and detail image
	Images []string `json:"images"`

	// Favorite is toggled by visitors
	Favorite bool `json:"favorite"`

	// IsVisible gates membership in the public gallery
	IsVisible bool `json:"isVisible"`

	// CreatedAt is an ISO-8601 timestamp set once at creation
	CreatedAt string `json:"createdAt"`
}

// Thumbnail returns the canonical image, or "" when there is none.
func (r Recipe) Thumbnail() string {
	if len(r.Images) == 0 {
		return ""
	}
	return r.Images[0]
}

// Clone returns a deep copy of r.
func (r Recipe) Clone() Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	r.Steps = slices.Clone(r.Steps)
	r.Images = slices.Clone(r.Images)
	return r
}

// CloneAll deep-copies a recipe list.
func CloneAll(recipes []Recipe) []Recipe {
	if recipes == nil {
		return nil
	}
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Clone()
	}
	return out
}

// FormatCreatedAt formats t the way createdAt is stored.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

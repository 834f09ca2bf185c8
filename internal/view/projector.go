// Package view computes what a gallery should display: the filtered,
// ordered recipe subset and the affordances each card carries.
// Nothing here mutates or persists.
package view

import (
	"strings"

	"github.com/hpungsan/recipevault/internal/recipe"
)

// CategoryAll is the filter sentinel matching every category.
const CategoryAll = "all"

// PreviewTagCount is how many ingredients a card shows as tags.
const PreviewTagCount = 3

// EmptyMessage is shown when no recipe passes the filter.
const EmptyMessage = "No culinary wonders found..."

// Mode selects the presentation: public gallery or operator console.
type Mode int

const (
	ModePublic Mode = iota
	ModeOperator
)

// ModeFor maps an operator-session flag to a presentation mode.
func ModeFor(operator bool) Mode {
	if operator {
		return ModeOperator
	}
	return ModePublic
}

// ParseMode accepts "public" or "operator"; anything else is public.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "operator") {
		return ModeOperator
	}
	return ModePublic
}

func (m Mode) String() string {
	if m == ModeOperator {
		return "operator"
	}
	return "public"
}

// Status is the operator-facing visibility badge.
type Status string

const (
	StatusLive   Status = "LIVE"
	StatusHidden Status = "HIDDEN"
)

// Filter is the active gallery filter.
type Filter struct {
	Category string `json:"category"`
	Search   string `json:"search"`
}

// DefaultFilter matches everything.
func DefaultFilter() Filter {
	return Filter{Category: CategoryAll}
}

// MatchesText reports whether r passes the free-text search: empty search,
// title substring, or any ingredient substring, all case-insensitive.
func (f Filter) MatchesText(r recipe.Recipe) bool {
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(r.Title), q) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing), q) {
			return true
		}
	}
	return false
}

// MatchesCategory is a strict, case-sensitive comparison. An unknown
// category matches nothing.
func (f Filter) MatchesCategory(r recipe.Recipe) bool {
	return f.Category == CategoryAll || string(r.Category) == f.Category
}

// Card is one gallery entry plus the controls the surface should render.
type Card struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	CategoryBadge string   `json:"category_badge"`
	PreviewTags   []string `json:"preview_tags"`
	Thumbnail     string   `json:"thumbnail"`
	Images        []string `json:"images"`

	// Public mode
	ShowFavorite bool `json:"show_favorite"`
	Favorite     bool `json:"favorite"`

	// Operator mode
	ShowStatus           bool   `json:"show_status"`
	Status               Status `json:"status,omitempty"`
	Hidden               bool   `json:"hidden"`
	ShowVisibilityToggle bool   `json:"show_visibility_toggle"`
	ShowEdit             bool   `json:"show_edit"`
	ShowDelete           bool   `json:"show_delete"`
}

// Projection is the ordered result of a gallery query.
type Projection struct {
	Mode   string `json:"mode"`
	Filter Filter `json:"filter"`
	Cards  []Card `json:"cards"`
	Empty  bool   `json:"empty"`
	// Total counts every recipe before filtering
	Total int `json:"total"`
}

// Project filters recipes (text, then category, then visibility in public
// mode) and derives a card for each survivor, preserving list order.
func Project(recipes []recipe.Recipe, f Filter, m Mode) Projection {
	cards := make([]Card, 0, len(recipes))
	for _, r := range recipes {
		if !f.MatchesText(r) || !f.MatchesCategory(r) {
			continue
		}
		if m == ModePublic && !r.IsVisible {
			continue
		}
		cards = append(cards, NewCard(r, m))
	}
	return Projection{
		Mode:   m.String(),
		Filter: f,
		Cards:  cards,
		Empty:  len(cards) == 0,
		Total:  len(recipes),
	}
}

// NewCard derives the card for a single recipe.
func NewCard(r recipe.Recipe, m Mode) Card {
	tags := r.Ingredients
	if len(tags) > PreviewTagCount {
		tags = tags[:PreviewTagCount]
	}

	c := Card{
		ID:            r.ID,
		Title:         r.Title,
		CategoryBadge: string(r.Category),
		PreviewTags:   append([]string{}, tags...),
		Thumbnail:     r.Thumbnail(),
		Images:        append([]string{}, r.Images...),
	}

	switch m {
	case ModeOperator:
		c.ShowStatus = true
		c.Status = StatusLive
		if !r.IsVisible {
			c.Status = StatusHidden
			c.Hidden = true
		}
		c.ShowVisibilityToggle = true
		c.ShowEdit = true
		c.ShowDelete = true
	default:
		c.ShowFavorite = true
		c.Favorite = r.Favorite
	}
	return c
}

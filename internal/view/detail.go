package view

import "github.com/hpungsan/recipevault/internal/recipe"

// Step is a numbered preparation step.
type Step struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Detail is the full single-recipe view.
type Detail struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Ingredients []string `json:"ingredients"`
	Steps       []Step   `json:"steps"`
	Favorite    bool     `json:"favorite"`
	IsVisible   bool     `json:"is_visible"`
	CreatedAt   string   `json:"created_at"`
}

// ProjectDetail builds the detail view; steps are numbered from 1.
func ProjectDetail(r recipe.Recipe) Detail {
	steps := make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = Step{Number: i + 1, Text: s}
	}
	return Detail{
		ID:          r.ID,
		Title:       r.Title,
		Category:    string(r.Category),
		Image:       r.Thumbnail(),
		Images:      append([]string{}, r.Images...),
		Ingredients: append([]string{}, r.Ingredients...),
		Steps:       steps,
		Favorite:    r.Favorite,
		IsVisible:   r.IsVisible,
		CreatedAt:   r.CreatedAt,
	}
}

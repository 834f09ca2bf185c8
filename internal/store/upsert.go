package store

import (
	"context"
	"slices"
	"strings"

	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/recipe"
)

// Notification messages.
const (
	MsgCreated = "New recipe added to your vault!"
	MsgUpdated = "Recipe updated successfully!"
)

// UpsertInput is a submitted recipe form.
type UpsertInput struct {
	// ID selects the recipe to edit; nil (or an unknown id) creates a new one
	ID       *int64
	Title    string
	Category string
	// Ingredients and Steps are multi-line text, one entry per line
	Ingredients string
	Steps       string
	// Images are finished references handed over by the image capture step
	Images []string
}

// UpsertOutput contains the result of the Upsert operation.
type UpsertOutput struct {
	Recipe  recipe.Recipe `json:"recipe"`
	Created bool          `json:"created"`
	Message string        `json:"message"`
}

// Validate checks the submission without touching any state.
func (in UpsertInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.NewValidation("title", "title is required")
	}
	if !recipe.Category(in.Category).Valid() {
		return errors.NewValidation("category", "category must be one of: Breakfast, Lunch, Dinner, Dessert, Healthy")
	}
	return nil
}

// Upsert creates a recipe or replaces an existing one's content.
// Editing carries favorite, isVisible, createdAt and list position forward.
func (s *Store) Upsert(ctx context.Context, g Gate, input UpsertInput) (*UpsertOutput, error) {
	if !isOperator(g) {
		return nil, errors.NewOperatorRequired("save recipes")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	images := recipe.CleanImages(input.Images)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(images) == 0 {
		images = []string{s.image}
	}
	fields := recipe.Recipe{
		Title:       strings.TrimSpace(input.Title),
		Category:    recipe.Category(input.Category),
		Ingredients: recipe.SplitLines(input.Ingredients),
		Steps:       recipe.SplitLines(input.Steps),
		Images:      images,
	}

	if input.ID != nil {
		if i := s.indexLocked(*input.ID); i >= 0 {
			prev := s.recipes[i]
			updated := fields
			updated.ID = prev.ID
			updated.Favorite = prev.Favorite
			updated.IsVisible = prev.IsVisible
			updated.CreatedAt = prev.CreatedAt

			next := slices.Clone(s.recipes)
			next[i] = updated
			if err := s.commitLocked(ctx, next); err != nil {
				return nil, err
			}
			s.notifier.Notify(MsgUpdated)
			return &UpsertOutput{Recipe: updated.Clone(), Message: MsgUpdated}, nil
		}
	}

	created := fields
	created.ID = s.nextIDLocked()
	created.Favorite = false
	created.IsVisible = true
	created.CreatedAt = recipe.FormatCreatedAt(s.now())

	next := make([]recipe.Recipe, 0, len(s.recipes)+1)
	next = append(next, created)
	next = append(next, s.recipes...)
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	s.notifier.Notify(MsgCreated)
	return &UpsertOutput{Recipe: created.Clone(), Created: true, Message: MsgCreated}, nil
}

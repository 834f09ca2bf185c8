package store

import (
	"context"
	"slices"

	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/recipe"
)

// Notification messages.
const (
	MsgNowVisible = "Recipe is now visible to public"
	MsgNowHidden  = "Recipe is now hidden from public"
)

// ToggleOutput contains the result of a toggle operation.
type ToggleOutput struct {
	ID    int64 `json:"id"`
	Found bool  `json:"found"`
	// Value is the flag's new state
	Value   bool   `json:"value"`
	Message string `json:"message,omitempty"`
}

// ToggleVisibility flips isVisible. Unknown ids are a silent no-op.
func (s *Store) ToggleVisibility(ctx context.Context, g Gate, id int64) (*ToggleOutput, error) {
	if !isOperator(g) {
		return nil, errors.NewOperatorRequired("change recipe visibility")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return &ToggleOutput{ID: id}, nil
	}

	next := slices.Clone(s.recipes)
	next[i].IsVisible = !next[i].IsVisible
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}

	msg := MsgNowHidden
	if next[i].IsVisible {
		msg = MsgNowVisible
	}
	s.notifier.Notify(msg)
	return &ToggleOutput{ID: id, Found: true, Value: next[i].IsVisible, Message: msg}, nil
}

// ToggleFavorite flips favorite. It is a visitor action and needs no gate.
// Unknown ids are a silent no-op.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (*ToggleOutput, error) {
	return s.toggleFavorite(ctx, id, nil)
}

// ToggleFavoriteFor is ToggleFavorite as seen through g: a hidden recipe
// does not exist for a visitor and yields NOT_FOUND. Visibility is checked
// under the same lock as the flip.
func (s *Store) ToggleFavoriteFor(ctx context.Context, g Gate, id int64) (*ToggleOutput, error) {
	operator := isOperator(g)
	return s.toggleFavorite(ctx, id, func(r recipe.Recipe) bool {
		return operator || r.IsVisible
	})
}

func (s *Store) toggleFavorite(ctx context.Context, id int64, visible func(recipe.Recipe) bool) (*ToggleOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return &ToggleOutput{ID: id}, nil
	}
	if visible != nil && !visible(s.recipes[i]) {
		return nil, errors.NewNotFound(id)
	}

	next := slices.Clone(s.recipes)
	next[i].Favorite = !next[i].Favorite
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	return &ToggleOutput{ID: id, Found: true, Value: next[i].Favorite}, nil
}

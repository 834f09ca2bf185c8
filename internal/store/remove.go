package store

import (
	"context"

	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/recipe"
)

// Confirmation prompt and notification for deletes.
const (
	ConfirmDeleteMessage = "Are you sure you want to delete this culinary masterpiece?"
	MsgDeleted           = "Recipe deleted."
)

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	ID        int64  `json:"id"`
	Removed   int    `json:"removed"`
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message,omitempty"`
}

// Remove deletes the recipe with id after the confirmer agrees.
// A declined confirmation or an unknown id changes and saves nothing.
func (s *Store) Remove(ctx context.Context, g Gate, c Confirmer, id int64) (*RemoveOutput, error) {
	if !isOperator(g) {
		return nil, errors.NewOperatorRequired("delete recipes")
	}
	if c == nil || !c.Confirm(ConfirmDeleteMessage) {
		return &RemoveOutput{ID: id, Cancelled: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]recipe.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		if r.ID != id {
			next = append(next, r)
		}
	}
	removed := len(s.recipes) - len(next)
	if removed == 0 {
		return &RemoveOutput{ID: id}, nil
	}

	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	s.notifier.Notify(MsgDeleted)
	return &RemoveOutput{ID: id, Removed: removed, Message: MsgDeleted}, nil
}

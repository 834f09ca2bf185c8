package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/recipe"
)

// Gateway reads and writes the recipe document held in one slot.
type Gateway struct {
	slot Slot
	key  string
	now  func() time.Time
}

// NewGateway binds a gateway to slot under key.
func NewGateway(slot Slot, key string) *Gateway {
	return &Gateway{slot: slot, key: key, now: time.Now}
}

// Key returns the storage key this gateway reads and writes.
func (g *Gateway) Key() string {
	return g.key
}

// Load returns the stored recipe list. An absent or empty document yields
// the seed recipes; a document that does not parse yields PERSISTENCE_CORRUPT.
func (g *Gateway) Load(ctx context.Context) ([]recipe.Recipe, error) {
	raw, ok, err := g.slot.Get(ctx, g.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return recipe.Seed(g.now()), nil
	}

	recipes, err := Decode([]byte(raw))
	if err != nil {
		return nil, errors.NewPersistenceCorrupt(g.key, err)
	}
	return recipes, nil
}

// Save overwrites the stored document with the full list.
func (g *Gateway) Save(ctx context.Context, recipes []recipe.Recipe) error {
	data, err := Encode(recipes)
	if err != nil {
		return errors.NewInternal(err)
	}
	return g.slot.Put(ctx, g.key, string(data))
}

// Clear removes the stored document so the next Load reseeds.
func (g *Gateway) Clear(ctx context.Context) error {
	return g.slot.Delete(ctx, g.key)
}

// storedRecipe shadows IsVisible so a missing field can be told apart from
// false and from null.
type storedRecipe struct {
	recipe.Recipe
	IsVisible json.RawMessage `json:"isVisible"`
}

// Decode parses a stored document. Records without an isVisible field are
// backfilled to visible; an explicit null reads as false. Nothing else is
// repaired.
func Decode(data []byte) ([]recipe.Recipe, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("document is not a JSON array")
	}

	var stored []storedRecipe
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return nil, err
	}

	recipes := make([]recipe.Recipe, len(stored))
	for i, s := range stored {
		r := s.Recipe
		r.IsVisible = true
		if len(s.IsVisible) > 0 {
			r.IsVisible = false
			if err := json.Unmarshal(s.IsVisible, &r.IsVisible); err != nil {
				return nil, fmt.Errorf("record %d: isVisible: %w", i, err)
			}
		}
		recipes[i] = r
	}
	return recipes, nil
}

// Encode serializes the full list in stored document form.
func Encode(recipes []recipe.Recipe) ([]byte, error) {
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	return json.Marshal(recipes)
}

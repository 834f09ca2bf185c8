// Package store owns the in-memory recipe list and the active filter.
// Every mutation persists the full list through the Persistence Gateway.
package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/recipe"
	"github.com/hpungsan/recipevault/internal/view"
)

// Gateway is the persistence contract the Store depends on.
type Gateway interface {
	Load(ctx context.Context) ([]recipe.Recipe, error)
	Save(ctx context.Context, recipes []recipe.Recipe) error
}

// Gate reports whether the caller holds an operator session.
type Gate interface {
	IsOperatorSession() bool
}

// Confirmer asks the operator to confirm a destructive action. It blocks
// until answered.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// Notifier receives a human-readable summary after each successful mutation.
type Notifier interface {
	Notify(message string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) { f(message) }

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(message string) { log.Printf("recipevault: %s", message) }

// Options configures a Store.
type Options struct {
	Notifier     Notifier
	Clock        func() time.Time
	DefaultImage string
}

// Store holds the ordered recipe list (newest first) and the filter.
// Methods are safe for concurrent use; mutations are serialized.
type Store struct {
	mu       sync.Mutex
	gateway  Gateway
	notifier Notifier
	now      func() time.Time
	image    string

	recipes []recipe.Recipe
	filter  view.Filter
	lastID  int64
}

// Open loads the recipe list through gateway. A corrupt stored document
// is logged and replaced in memory by the seed recipes; it is overwritten
// on the next save.
func Open(ctx context.Context, gateway Gateway, opts Options) (*Store, error) {
	s := &Store{
		gateway:  gateway,
		notifier: opts.Notifier,
		now:      opts.Clock,
		image:    opts.DefaultImage,
		filter:   view.DefaultFilter(),
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.image == "" {
		s.image = recipe.DefaultImage
	}

	recipes, err := gateway.Load(ctx)
	if err != nil {
		if !errors.Is(err, errors.ErrPersistenceCorrupt) {
			return nil, err
		}
		log.Printf("WARNING: %v; starting from seed recipes", err)
		recipes = recipe.Seed(s.now())
	}
	s.recipes = recipes
	for _, r := range recipes {
		s.lastID = max(s.lastID, r.ID)
	}
	return s, nil
}

// Recipes returns a copy of the full list in stored order.
func (s *Store) Recipes() []recipe.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recipe.CloneAll(s.recipes)
}

// Get returns a copy of the recipe with id.
func (s *Store) Get(id int64) (recipe.Recipe, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.recipes[i].Clone(), true
	}
	return recipe.Recipe{}, false
}

// Filter returns the active filter.
func (s *Store) Filter() view.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetSearch replaces the search text. Filters are never persisted.
func (s *Store) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Search = text
}

// SetCategory replaces the category filter. Unknown values are accepted
// and simply match nothing.
func (s *Store) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Category = category
}

// SetFilter replaces both filter fields.
func (s *Store) SetFilter(f view.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Query projects the current list and filter for mode. It never mutates.
func (s *Store) Query(mode view.Mode) view.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.Project(s.recipes, s.filter, mode)
}

// Replace swaps the whole list (used by import).
func (s *Store) Replace(ctx context.Context, g Gate, recipes []recipe.Recipe) error {
	if !isOperator(g) {
		return errors.NewOperatorRequired("replace the recipe list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := recipe.CloneAll(recipes)
	if next == nil {
		next = []recipe.Recipe{}
	}
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}
	for _, r := range next {
		s.lastID = max(s.lastID, r.ID)
	}
	return nil
}

// commitLocked saves next and, only on success, makes it the current list.
func (s *Store) commitLocked(ctx context.Context, next []recipe.Recipe) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled("save")
	}
	if err := s.gateway.Save(ctx, next); err != nil {
		return err
	}
	s.recipes = next
	return nil
}

func (s *Store) indexLocked(id int64) int {
	for i, r := range s.recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked returns a timestamp-derived id strictly greater than any
// id seen so far.
func (s *Store) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func isOperator(g Gate) bool {
	return g != nil && g.IsOperatorSession()
}

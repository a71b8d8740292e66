package archive

import (
	"context"
	"slices"

	"github.com/abhisek/medquiz/internal/store"
)

// Favorites returns the favorite question ids in the order they were added.
func (e *Engine) Favorites(ctx context.Context) ([]int, error) {
	var out []int
	err := e.view(ctx, func(t *txn) error {
		var err error
		out, err = t.idList(store.KeyFavorites)
		return err
	})
	return out, err
}

// IsFavorite reports whether id is a favorite.
func (e *Engine) IsFavorite(ctx context.Context, id int) (bool, error) {
	favs, err := e.Favorites(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(favs, id), nil
}

// AddFavorite marks id as favorite. Adding twice is a no-op.
func (e *Engine) AddFavorite(ctx context.Context, id int) error {
	_, err := e.setFavorite(ctx, id, func(bool) bool { return true })
	return err
}

// RemoveFavorite unmarks id.
func (e *Engine) RemoveFavorite(ctx context.Context, id int) error {
	_, err := e.setFavorite(ctx, id, func(bool) bool { return false })
	return err
}

// ToggleFavorite flips the favorite flag of id and returns the new state.
func (e *Engine) ToggleFavorite(ctx context.Context, id int) (bool, error) {
	return e.setFavorite(ctx, id, func(cur bool) bool { return !cur })
}

func (e *Engine) setFavorite(ctx context.Context, id int, next func(cur bool) bool) (bool, error) {
	if err := e.validate(id, nil); err != nil {
		return false, err
	}
	var state bool
	err := e.update(ctx, func(t *txn) error {
		favs, err := t.idList(store.KeyFavorites)
		if err != nil {
			return err
		}
		cur := slices.Contains(favs, id)
		state = next(cur)
		if state == cur {
			return nil
		}
		if state {
			favs = append(favs, id)
		} else {
			favs = without(favs, id)
		}
		if err := t.setIDList(store.KeyFavorites, favs); err != nil {
			return err
		}
		t.notify(Change{Kind: ChangeFavorite, QuestionID: id, Favorite: state})
		return nil
	})
	return state, err
}

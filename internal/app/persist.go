package app

import (
	"context"
	"errors"

	"geometree/internal/store"
)

// Persistent is implemented by scenes that can be saved to a store.
type Persistent interface {
	Record() store.SceneRecord
	Restore(rec store.SceneRecord) error
}

// LoadScene restores the named record into p. A missing record is not an
// error; it reports false.
func LoadScene(ctx context.Context, st *store.Store, p Persistent, name string) (bool, error) {
	rec, err := st.LoadScene(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := p.Restore(rec); err != nil {
		return false, err
	}
	return true, nil
}

// SaveScene records p under name.
func SaveScene(ctx context.Context, st *store.Store, p Persistent, name string) (int, error) {
	rec := p.Record()
	rec.Name = name
	if err := st.SaveScene(ctx, rec); err != nil {
		return 0, err
	}
	return len(rec.Points), nil
}

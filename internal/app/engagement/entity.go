package engagement

import (
	"encoding/json"
	"fmt"

	"github.com/habitloop/habitloop/internal/domain"
)

// Storage keys, one blob per entity.
const (
	keyStreak     = "streak"
	keyReminders  = "reminders"
	keyClaims     = "reward_claims"
	keyChallenges = "challenges"
	keyProfile    = "profile"
)

// entity persists one value of type T as a JSON blob under a fixed key.
type entity[T any] struct {
	store domain.StateStore
	key   string
}

// load returns the stored value, or def() when the key was never saved.
// A failing or corrupt store is an error; defaults are never invented for it.
func (e entity[T]) load(def func() T) (T, error) {
	var v T
	raw, found, err := e.store.Load(e.key)
	if err != nil {
		return v, fmt.Errorf("%w: load %s: %w", domain.ErrPersistenceUnavailable, e.key, err)
	}
	if !found {
		return def(), nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: decode %s: %w", domain.ErrPersistenceUnavailable, e.key, err)
	}
	return v, nil
}

// save writes v. Callers swap their in-memory copy only after save succeeds.
func (e entity[T]) save(v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.key, err)
	}
	if err := e.store.Save(e.key, raw); err != nil {
		return fmt.Errorf("%w: save %s: %w", domain.ErrPersistenceUnavailable, e.key, err)
	}
	return nil
}

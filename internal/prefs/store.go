// Package prefs persists the sidebar's per-visitor flags (open accordion
// section and theme) in the local sqlite database.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/ziadkadry99/tradebook/internal/db"
	"github.com/ziadkadry99/tradebook/internal/menu"
)

// Persisted keys. The table's CHECK constraint rejects anything else.
const (
	KeyMenuOpen = "menu-open"
	KeyTheme    = "theme"
)

// Store reads and writes UI preferences keyed by visitor id.
type Store struct {
	db           *db.DB
	defaultTheme menu.Theme
}

// NewStore creates a Store backed by the given database. defaultTheme is
// used for visitors that never toggled the theme.
func NewStore(database *db.DB, defaultTheme menu.Theme) *Store {
	return &Store{db: database, defaultTheme: menu.ParseTheme(string(defaultTheme))}
}

// Get returns the stored value and whether it exists.
func (s *Store) Get(ctx context.Context, visitor, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ui_preferences WHERE visitor_id = ? AND key = ?`,
		visitor, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key for visitor, replacing any previous value.
func (s *Store) Set(ctx context.Context, visitor, key, value string) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ui_preferences (visitor_id, key, value, updated_at)
			VALUES (?, ?, ?, datetime('now'))
			ON CONFLICT(visitor_id, key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at`,
			visitor, key, value,
		)
		if err != nil {
			return fmt.Errorf("writing preference %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes key for visitor. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, visitor, key string) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ui_preferences WHERE visitor_id = ? AND key = ?`,
			visitor, key,
		); err != nil {
			return fmt.Errorf("deleting preference %s: %w", key, err)
		}
		return nil
	})
}

// LoadState builds the widget state for visitor from its persisted flags.
// A stored section index outside [0, sectionCount) restores to no selection.
func (s *Store) LoadState(ctx context.Context, visitor string, sectionCount int) (menu.State, error) {
	state := menu.NewState()
	state.Theme = s.defaultTheme

	open, ok, err := s.Get(ctx, visitor, KeyMenuOpen)
	if err != nil {
		return state, err
	}
	if ok {
		state.OpenIndex = menu.RestoreOpenIndex(open, sectionCount)
	}

	theme, ok, err := s.Get(ctx, visitor, KeyTheme)
	if err != nil {
		return state, err
	}
	if ok {
		state.Theme = menu.ParseTheme(theme)
	}
	return state, nil
}

// ToggleSection applies an accordion click on sections[idx] as seen on the
// page at currentPath, so a section opened because it holds the active link
// closes on its first click. The opened index is stored, closing removes
// the key.
func (s *Store) ToggleSection(ctx context.Context, visitor string, idx int, sections []menu.Section, currentPath string) (menu.State, bool, error) {
	state, err := s.LoadState(ctx, visitor, len(sections))
	if err != nil {
		return state, false, err
	}
	state.OpenIndex = menu.OpenSection(sections, state, currentPath)
	open, ok := state.ToggleSection(idx, len(sections))
	if !ok {
		return state, false, nil
	}
	if open {
		err = s.Set(ctx, visitor, KeyMenuOpen, strconv.Itoa(idx))
	} else {
		err = s.Delete(ctx, visitor, KeyMenuOpen)
	}
	return state, true, err
}

// ToggleTheme flips and persists the visitor's theme.
func (s *Store) ToggleTheme(ctx context.Context, visitor string) (menu.Theme, error) {
	state, err := s.LoadState(ctx, visitor, 0)
	if err != nil {
		return state.Theme, err
	}
	next := state.ToggleTheme()
	if err := s.Set(ctx, visitor, KeyTheme, string(next)); err != nil {
		return state.Theme, err
	}
	return next, nil
}

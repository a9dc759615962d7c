package store

import (
	"context"
	"fmt"

	"github.com/roach88/todoracle/internal/item"
)

// SaveItems replaces the persisted list of appID with items, atomically.
// Positions are rewritten from the slice order.
func (s *Store) SaveItems(ctx context.Context, appID string, items []item.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save items: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE app_id = ?`, appID); err != nil {
		return fmt.Errorf("save items: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (app_id, position, text, completed)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save items: prepare: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, appID, i, it.Text, it.Completed); err != nil {
			return fmt.Errorf("save items: insert position %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save items: commit: %w", err)
	}
	return nil
}

// LoadItems returns the persisted list of appID in position order.
// An application that never saved reads as an empty snapshot.
func (s *Store) LoadItems(ctx context.Context, appID string) (item.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, completed
		FROM items
		WHERE app_id = ?
		ORDER BY position ASC
	`, appID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	snap := item.Snapshot{}
	for rows.Next() {
		var it item.Item
		if err := rows.Scan(&it.Text, &it.Completed); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		snap = append(snap, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return snap, nil
}

// DeleteItems removes every persisted item of appID.
func (s *Store) DeleteItems(ctx context.Context, appID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE app_id = ?`, appID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return nil
}

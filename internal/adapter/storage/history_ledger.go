package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl1809/formalin/internal/core/domain"
)

// AppendHistory records an entry for an existing item. It returns
// domain.ErrNotFound when the item is missing rather than tripping the
// foreign key.
func (a *SQLAdapter) AppendHistory(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	var id int64
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := a.lockItem(ctx, tx, entry.ItemID); err != nil {
			return err
		}
		var err error
		id, err = appendHistory(ctx, tx, entry)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (a *SQLAdapter) DeleteHistoryByItem(ctx context.Context, itemID int64) (int64, error) {
	return deleteHistoryByItem(ctx, a.db, itemID)
}

func (a *SQLAdapter) ListHistoryByItem(ctx context.Context, itemID int64) ([]domain.HistoryEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT history_id, item_id, updated_by, updated_at, old_status, new_status, old_place, new_place
		FROM item_history
		WHERE item_id = ?
		ORDER BY history_id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.UpdatedBy, &e.UpdatedAt,
			&e.OldStatus, &e.NewStatus, &e.OldPlace, &e.NewPlace); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func appendHistory(ctx context.Context, q querier, e domain.HistoryEntry) (int64, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO item_history (item_id, updated_by, updated_at, old_status, new_status, old_place, new_place)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ItemID, e.UpdatedBy, e.UpdatedAt, e.OldStatus, e.NewStatus, e.OldPlace, e.NewPlace,
	)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return id, nil
}

func deleteHistoryByItem(ctx context.Context, q querier, itemID int64) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM item_history WHERE item_id = ?`, itemID)
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return rows, nil
}

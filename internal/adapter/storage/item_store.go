package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/formalin/internal/core/domain"
)

const itemColumns = "id, item_key, place, status, timestamp, size, expired, lot_number"

const itemWithHistoryQuery = `
	SELECT
		i.id, i.item_key, i.place, i.status, i.timestamp, i.size, i.expired, i.lot_number,
		h.history_id, h.updated_by, h.updated_at, h.old_status, h.new_status, h.old_place, h.new_place
	FROM items AS i
	LEFT JOIN item_history AS h ON h.item_id = i.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (domain.Item, error) {
	var item domain.Item
	err := row.Scan(&item.ID, &item.Key, &item.Place, &item.Status,
		&item.Timestamp, &item.Size, &item.Expired, &item.LotNumber)
	return item, err
}

func (a *SQLAdapter) ListItems(ctx context.Context) ([]domain.ItemWithHistory, error) {
	rows, err := a.db.QueryContext(ctx, itemWithHistoryQuery+`
	ORDER BY i.id, h.history_id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	return groupHistory(rows)
}

func (a *SQLAdapter) GetItem(ctx context.Context, id int64) (*domain.ItemWithHistory, error) {
	rows, err := a.db.QueryContext(ctx, itemWithHistoryQuery+`
	WHERE i.id = ?
	ORDER BY h.history_id`, id)
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	defer rows.Close()

	items, err := groupHistory(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrNotFound
	}
	return &items[0], nil
}

// groupHistory folds joined item/history rows into one entry per item.
// Rows must arrive ordered by item id. Items without history get an empty,
// non-nil slice.
func groupHistory(rows *sql.Rows) ([]domain.ItemWithHistory, error) {
	items := []domain.ItemWithHistory{}
	for rows.Next() {
		var (
			item      domain.Item
			historyID sql.NullInt64
			updatedBy sql.NullString
			updatedAt sql.NullString
			oldStatus sql.NullString
			newStatus sql.NullString
			oldPlace  sql.NullString
			newPlace  sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Key, &item.Place, &item.Status,
			&item.Timestamp, &item.Size, &item.Expired, &item.LotNumber,
			&historyID, &updatedBy, &updatedAt, &oldStatus, &newStatus, &oldPlace, &newPlace,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}

		if n := len(items); n == 0 || items[n-1].ID != item.ID {
			items = append(items, domain.ItemWithHistory{Item: item, History: []domain.HistoryEntry{}})
		}
		if !historyID.Valid {
			continue
		}

		last := &items[len(items)-1]
		last.History = append(last.History, domain.HistoryEntry{
			ID:        historyID.Int64,
			ItemID:    item.ID,
			UpdatedBy: updatedBy.String,
			UpdatedAt: updatedAt.String,
			OldStatus: oldStatus.String,
			NewStatus: newStatus.String,
			OldPlace:  oldPlace.String,
			NewPlace:  newPlace.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (a *SQLAdapter) CreateItem(ctx context.Context, item domain.Item, audit *domain.Audit) (int64, error) {
	var id int64
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO items (item_key, place, status, timestamp, size, expired, lot_number)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.Key, item.Place, item.Status, item.Timestamp, item.Size, item.Expired, item.LotNumber,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}

		if audit == nil {
			return nil
		}
		item.ID = id
		_, err = appendHistory(ctx, tx, audit.Entry(id, domain.Item{}, item))
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (a *SQLAdapter) UpdateItem(ctx context.Context, id int64, patch domain.ItemPatch, audit *domain.Audit) error {
	return a.inTx(ctx, func(tx *sql.Tx) error {
		before, err := a.lockItem(ctx, tx, id)
		if err != nil {
			return err
		}

		after := patch.Apply(before)
		if !patch.IsEmpty() {
			_, err = tx.ExecContext(ctx, `
				UPDATE items
				SET item_key = ?, place = ?, status = ?, timestamp = ?, size = ?, expired = ?, lot_number = ?
				WHERE id = ?`,
				after.Key, after.Place, after.Status, after.Timestamp, after.Size, after.Expired, after.LotNumber, id,
			)
			if err != nil {
				return fmt.Errorf("update item: %w", err)
			}
		}

		if audit == nil {
			return nil
		}
		_, err = appendHistory(ctx, tx, audit.Entry(id, before, after))
		return err
	})
}

func (a *SQLAdapter) DeleteItem(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		removed, err = deleteHistoryByItem(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (a *SQLAdapter) ListExpired(ctx context.Context, asOf string) ([]domain.Item, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE expired IS NOT NULL AND expired < ?
		ORDER BY expired, id`, asOf)
	if err != nil {
		return nil, fmt.Errorf("query expired items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired items: %w", err)
	}
	return items, nil
}

// lockItem loads the current row inside tx, holding a row lock where the
// dialect supports one.
func (a *SQLAdapter) lockItem(ctx context.Context, tx *sql.Tx, id int64) (domain.Item, error) {
	item, err := scanItem(tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE id = ?`+a.dialect.lockClause(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("load item: %w", err)
	}
	return item, nil
}

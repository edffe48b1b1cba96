package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/formalin/internal/core/domain"
)

func auditBy(user string) *domain.Audit {
	return &domain.Audit{UpdatedBy: user, UpdatedAt: "2024-01-01 09:00:00"}
}

func TestCreateItem_WithoutAuditHasEmptyHistory(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		id, err := a.CreateItem(ctx, domain.Item{Key: "K1"}, nil)
		require.NoError(t, err)

		items, err := a.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)

		got := items[0]
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "K1", got.Key)
		assert.Nil(t, got.Place)
		assert.Nil(t, got.Status)
		assert.Nil(t, got.Timestamp)
		assert.Nil(t, got.Size)
		assert.Nil(t, got.Expired)
		assert.Nil(t, got.LotNumber)
		assert.NotNil(t, got.History)
		assert.Empty(t, got.History)
	})
}

func TestCreateItem_WithAuditWritesFirstEntry(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		item := domain.Item{Key: "K1", Status: strPtr("IN_USE"), Place: strPtr("RoomA")}
		id, err := a.CreateItem(ctx, item, auditBy("alice"))
		require.NoError(t, err)

		got, err := a.GetItem(ctx, id)
		require.NoError(t, err)
		require.Len(t, got.History, 1)

		entry := got.History[0]
		assert.Equal(t, id, entry.ItemID)
		assert.Equal(t, "alice", entry.UpdatedBy)
		assert.Equal(t, "2024-01-01 09:00:00", entry.UpdatedAt)
		assert.Equal(t, "", entry.OldStatus)
		assert.Equal(t, "IN_USE", entry.NewStatus)
		assert.Equal(t, "", entry.OldPlace)
		assert.Equal(t, "RoomA", entry.NewPlace)
	})
}

func TestCreateItem_RollsBackWhenHistoryFails(t *testing.T) {
	a := newSQLiteAdapter(t)
	ctx := context.Background()

	_, err := a.db.ExecContext(ctx, `DROP TABLE item_history`)
	require.NoError(t, err)

	_, err = a.CreateItem(ctx, domain.Item{Key: "K1"}, auditBy("alice"))
	require.Error(t, err)

	var count int
	require.NoError(t, a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count))
	assert.Equal(t, 0, count, "item row must not survive a failed history write")
}

func TestUpdateItem_RollsBackWhenHistoryFails(t *testing.T) {
	a := newSQLiteAdapter(t)
	ctx := context.Background()

	id, err := a.CreateItem(ctx, domain.Item{Key: "K1", Place: strPtr("RoomA")}, nil)
	require.NoError(t, err)

	_, err = a.db.ExecContext(ctx, `DROP TABLE item_history`)
	require.NoError(t, err)

	err = a.UpdateItem(ctx, id, domain.ItemPatch{Place: domain.Value("RoomB")}, auditBy("alice"))
	require.Error(t, err)

	var place string
	require.NoError(t, a.db.QueryRowContext(ctx, `SELECT place FROM items WHERE id = ?`, id).Scan(&place))
	assert.Equal(t, "RoomA", place, "item row must not change when the history write fails")
}

func TestDeleteItem_RollsBackWhenItemDeleteFails(t *testing.T) {
	a := newSQLiteAdapter(t)
	ctx := context.Background()

	id, err := a.CreateItem(ctx, domain.Item{Key: "K1"}, auditBy("alice"))
	require.NoError(t, err)

	_, err = a.db.ExecContext(ctx, `
		CREATE TRIGGER block_item_delete BEFORE DELETE ON items
		BEGIN SELECT RAISE(ABORT, 'blocked'); END`)
	require.NoError(t, err)

	_, err = a.DeleteItem(ctx, id)
	require.Error(t, err)

	history, err := a.ListHistoryByItem(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1, "history must survive when the item delete fails")
}

func TestUpdateItem_PartialKeepsUnsuppliedFields(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		id, err := a.CreateItem(ctx, domain.Item{Key: "K1", Status: strPtr("IN_USE"), Size: strPtr("1L")}, nil)
		require.NoError(t, err)

		patch := domain.ItemPatch{Place: domain.Value("RoomB")}
		require.NoError(t, a.UpdateItem(ctx, id, patch, nil))
		require.NoError(t, a.UpdateItem(ctx, id, patch, nil))

		got, err := a.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "K1", got.Key)
		assert.Equal(t, "RoomB", *got.Place)
		assert.Equal(t, "IN_USE", *got.Status)
		assert.Equal(t, "1L", *got.Size)
		assert.Empty(t, got.History)
	})
}

func TestUpdateItem_ExplicitNullClears(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		id, err := a.CreateItem(ctx, domain.Item{Key: "K1", LotNumber: strPtr("LOT-9")}, nil)
		require.NoError(t, err)

		require.NoError(t, a.UpdateItem(ctx, id, domain.ItemPatch{LotNumber: domain.Null()}, nil))

		got, err := a.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got.LotNumber)
	})
}

func TestUpdateItem_AppendsHistoryWithBeforeAndAfter(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		id, err := a.CreateItem(ctx, domain.Item{Key: "K1", Status: strPtr("STORED"), Place: strPtr("RoomA")}, nil)
		require.NoError(t, err)

		patch := domain.ItemPatch{Status: domain.Value("IN_USE"), Place: domain.Value("RoomB")}
		require.NoError(t, a.UpdateItem(ctx, id, patch, auditBy("bob")))

		history, err := a.ListHistoryByItem(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "STORED", history[0].OldStatus)
		assert.Equal(t, "IN_USE", history[0].NewStatus)
		assert.Equal(t, "RoomA", history[0].OldPlace)
		assert.Equal(t, "RoomB", history[0].NewPlace)
	})
}

func TestUpdateItem_NotFound(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		err := a.UpdateItem(ctx, 999, domain.ItemPatch{Place: domain.Value("RoomB")}, auditBy("alice"))
		assert.ErrorIs(t, err, domain.ErrNotFound)

		history, err := a.ListHistoryByItem(ctx, 999)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestUpdateItem_EmptyPatchOnlyLogsHistory(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		id, err := a.CreateItem(ctx, domain.Item{Key: "K1", Status: strPtr("IN_USE")}, nil)
		require.NoError(t, err)

		require.NoError(t, a.UpdateItem(ctx, id, domain.ItemPatch{}, auditBy("carol")))

		got, err := a.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "IN_USE", *got.Status)
		require.Len(t, got.History, 1)
		assert.Equal(t, "IN_USE", got.History[0].OldStatus)
		assert.Equal(t, "IN_USE", got.History[0].NewStatus)
	})
}

func TestDeleteItem_CascadesHistory(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		id, err := a.CreateItem(ctx, domain.Item{Key: "K1"}, auditBy("alice"))
		require.NoError(t, err)
		require.NoError(t, a.UpdateItem(ctx, id, domain.ItemPatch{Place: domain.Value("RoomB")}, auditBy("bob")))
		keep, err := a.CreateItem(ctx, domain.Item{Key: "K2"}, auditBy("alice"))
		require.NoError(t, err)

		removed, err := a.DeleteItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		items, err := a.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, keep, items[0].ID)
		assert.Len(t, items[0].History, 1)

		history, err := a.ListHistoryByItem(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, history)

		var orphans int
		require.NoError(t, a.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM item_history WHERE item_id = ?`, id).Scan(&orphans))
		assert.Zero(t, orphans)
	})
}

func TestDeleteItem_MissingIsNoop(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		removed, err := a.DeleteItem(context.Background(), 999)
		assert.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestCreateItem_IDsAreNotReused(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		first, err := a.CreateItem(ctx, domain.Item{Key: "K1"}, nil)
		require.NoError(t, err)
		_, err = a.DeleteItem(ctx, first)
		require.NoError(t, err)

		second, err := a.CreateItem(ctx, domain.Item{Key: "K2"}, nil)
		require.NoError(t, err)
		assert.Greater(t, second, first)
	})
}

func TestListItems_OrderedByIDWithGroupedHistory(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		first, err := a.CreateItem(ctx, domain.Item{Key: "A"}, auditBy("alice"))
		require.NoError(t, err)
		second, err := a.CreateItem(ctx, domain.Item{Key: "B"}, nil)
		require.NoError(t, err)
		require.NoError(t, a.UpdateItem(ctx, first, domain.ItemPatch{Status: domain.Value("USED")}, auditBy("bob")))

		items, err := a.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.Equal(t, first, items[0].ID)
		require.Len(t, items[0].History, 2)
		assert.Equal(t, "alice", items[0].History[0].UpdatedBy)
		assert.Equal(t, "bob", items[0].History[1].UpdatedBy)
		assert.Less(t, items[0].History[0].ID, items[0].History[1].ID)

		assert.Equal(t, second, items[1].ID)
		assert.Empty(t, items[1].History)
	})
}

func TestListItems_EmptyIsNotNil(t *testing.T) {
	a := newSQLiteAdapter(t)

	items, err := a.ListItems(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestGetItem_NotFound(t *testing.T) {
	a := newSQLiteAdapter(t)

	got, err := a.GetItem(context.Background(), 42)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListExpired(t *testing.T) {
	forEachDialect(t, func(t *testing.T, a *SQLAdapter) {
		ctx := context.Background()

		late, err := a.CreateItem(ctx, domain.Item{Key: "late", Expired: strPtr("2024-03-01 00:00:00")}, nil)
		require.NoError(t, err)
		early, err := a.CreateItem(ctx, domain.Item{Key: "early", Expired: strPtr("2024-01-15 00:00:00")}, nil)
		require.NoError(t, err)
		_, err = a.CreateItem(ctx, domain.Item{Key: "fresh", Expired: strPtr("2030-01-01 00:00:00")}, nil)
		require.NoError(t, err)
		_, err = a.CreateItem(ctx, domain.Item{Key: "undated"}, nil)
		require.NoError(t, err)

		items, err := a.ListExpired(ctx, "2024-06-01 00:00:00")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, early, items[0].ID)
		assert.Equal(t, late, items[1].ID)
	})
}

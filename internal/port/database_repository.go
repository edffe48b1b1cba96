package port

import (
	"context"

	"github.com/rl1809/formalin/internal/core/domain"
)

type ItemRepository interface {
	// ListItems returns every item with its history, ordered by id
	ListItems(ctx context.Context) ([]domain.ItemWithHistory, error)

	// GetItem returns domain.ErrNotFound when the id does not exist
	GetItem(ctx context.Context, id int64) (*domain.ItemWithHistory, error)

	// CreateItem inserts the item and, when audit is set, its first history entry in one transaction
	CreateItem(ctx context.Context, item domain.Item, audit *domain.Audit) (int64, error)

	// UpdateItem merges patch onto the stored row and appends history in one transaction
	UpdateItem(ctx context.Context, id int64, patch domain.ItemPatch, audit *domain.Audit) error

	// DeleteItem removes history then the item; missing ids are a no-op
	DeleteItem(ctx context.Context, id int64) (int64, error)

	// ListExpired returns items whose expiry is strictly before asOf
	ListExpired(ctx context.Context, asOf string) ([]domain.Item, error)
}

type HistoryLedger interface {
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) (int64, error)

	// DeleteHistoryByItem is idempotent and returns the number of removed entries
	DeleteHistoryByItem(ctx context.Context, itemID int64) (int64, error)

	ListHistoryByItem(ctx context.Context, itemID int64) ([]domain.HistoryEntry, error)
}

type UserRepository interface {
	ListUsernames(ctx context.Context) ([]string, error)

	// FindByUsername returns nil, nil when the user does not exist
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// CreateUser returns domain.ErrUsernameTaken on duplicates
	CreateUser(ctx context.Context, user domain.User) (int64, error)

	// UpdateCredentials leaves nil arguments unchanged
	UpdateCredentials(ctx context.Context, username string, passwordHash *string, isAdmin *bool) error
}

package service

import (
	"context"
	"sort"
	"sync"

	"github.com/rl1809/formalin/internal/core/domain"
)

// mockItemRepo is an in-memory ItemRepository and HistoryLedger.
type mockItemRepo struct {
	mu        sync.Mutex
	items     map[int64]domain.Item
	history   []domain.HistoryEntry
	nextID    int64
	nextHist  int64
	createErr error
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[int64]domain.Item)}
}

func (m *mockItemRepo) ListItems(ctx context.Context) ([]domain.ItemWithHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []domain.ItemWithHistory{}
	for _, id := range ids {
		out = append(out, domain.ItemWithHistory{Item: m.items[id], History: m.historyFor(id)})
	}
	return out, nil
}

func (m *mockItemRepo) GetItem(ctx context.Context, id int64) (*domain.ItemWithHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.ItemWithHistory{Item: item, History: m.historyFor(id)}, nil
}

func (m *mockItemRepo) CreateItem(ctx context.Context, item domain.Item, audit *domain.Audit) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	item.ID = m.nextID
	m.items[item.ID] = item
	if audit != nil {
		m.appendLocked(audit.Entry(item.ID, domain.Item{}, item))
	}
	return item.ID, nil
}

func (m *mockItemRepo) UpdateItem(ctx context.Context, id int64, patch domain.ItemPatch, audit *domain.Audit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	after := patch.Apply(before)
	m.items[id] = after
	if audit != nil {
		m.appendLocked(audit.Entry(id, before, after))
	}
	return nil
}

func (m *mockItemRepo) DeleteItem(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.deleteHistoryLocked(id)
	delete(m.items, id)
	return removed, nil
}

func (m *mockItemRepo) ListExpired(ctx context.Context, asOf string) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.Item{}
	for _, item := range m.items {
		if item.Expired != nil && *item.Expired < asOf {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Expired < *out[j].Expired })
	return out, nil
}

func (m *mockItemRepo) AppendHistory(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[entry.ItemID]; !ok {
		return 0, domain.ErrNotFound
	}
	return m.appendLocked(entry), nil
}

func (m *mockItemRepo) DeleteHistoryByItem(ctx context.Context, itemID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteHistoryLocked(itemID), nil
}

func (m *mockItemRepo) ListHistoryByItem(ctx context.Context, itemID int64) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyFor(itemID), nil
}

func (m *mockItemRepo) appendLocked(e domain.HistoryEntry) int64 {
	m.nextHist++
	e.ID = m.nextHist
	m.history = append(m.history, e)
	return e.ID
}

func (m *mockItemRepo) deleteHistoryLocked(itemID int64) int64 {
	var removed int64
	kept := m.history[:0]
	for _, e := range m.history {
		if e.ItemID == itemID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.history = kept
	return removed
}

func (m *mockItemRepo) historyFor(itemID int64) []domain.HistoryEntry {
	out := []domain.HistoryEntry{}
	for _, e := range m.history {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out
}

// mockCacheRepo mirrors the Redis idempotency adapter.
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	released       []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}

// mockUserRepo keeps users by name.
type mockUserRepo struct {
	mu     sync.Mutex
	users  map[string]domain.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) ListUsernames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := []string{}
	for name := range m.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return 0, domain.ErrUsernameTaken
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Username] = user
	return user.ID, nil
}

func (m *mockUserRepo) UpdateCredentials(ctx context.Context, username string, passwordHash *string, isAdmin *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	if isAdmin != nil {
		u.IsAdmin = *isAdmin
	}
	m.users[username] = u
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/internal/core/timefmt"
	"github.com/rl1809/formalin/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

// AuditInput carries the optional history fields of a mutation. A history
// entry is written only when both UpdatedBy and UpdatedAt are non-empty.
type AuditInput struct {
	UpdatedBy domain.Field `json:"updatedBy,omitzero"`
	UpdatedAt domain.Field `json:"updatedAt,omitzero"`
	OldStatus domain.Field `json:"oldStatus,omitzero"`
	NewStatus domain.Field `json:"newStatus,omitzero"`
	OldPlace  domain.Field `json:"oldPlace,omitzero"`
	NewPlace  domain.Field `json:"newPlace,omitzero"`
}

type CreateItemInput struct {
	domain.ItemPatch
	AuditInput

	// IdempotencyKey is taken from the transport, never the body.
	IdempotencyKey string `json:"-"`
}

func (in CreateItemInput) Validate() error {
	if !in.Key.Valid || strings.TrimSpace(in.Key.Value) == "" {
		return fmt.Errorf("%w: key is required", domain.ErrValidation)
	}
	return nil
}

type UpdateItemInput struct {
	domain.ItemPatch
	AuditInput
}

func (in UpdateItemInput) Validate() error {
	return in.ItemPatch.Validate()
}

type ItemService struct {
	repo       port.ItemRepository
	ledger     port.HistoryLedger
	cache      port.CacheRepository
	normalizer *timefmt.Normalizer
	logger     *zap.Logger
}

// NewItemService wires the item use cases. cache may be nil, in which case
// idempotency keys are ignored.
func NewItemService(repo port.ItemRepository, ledger port.HistoryLedger, cache port.CacheRepository, normalizer *timefmt.Normalizer, logger *zap.Logger) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{
		repo:       repo,
		ledger:     ledger,
		cache:      cache,
		normalizer: normalizer,
		logger:     logger,
	}
}

func (s *ItemService) List(ctx context.Context) ([]domain.ItemWithHistory, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *ItemService) Get(ctx context.Context, id int64) (*domain.ItemWithHistory, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

func (s *ItemService) History(ctx context.Context, id int64) ([]domain.HistoryEntry, error) {
	entries, err := s.ledger.ListHistoryByItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list history %d: %w", id, err)
	}
	return entries, nil
}

func (s *ItemService) Create(ctx context.Context, in CreateItemInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	patch, err := s.normalizePatch(in.ItemPatch)
	if err != nil {
		return 0, err
	}

	audit, err := s.gateAudit(in.AuditInput)
	if err != nil {
		return 0, err
	}

	key := ""
	if s.cache != nil && in.IdempotencyKey != "" {
		key = "items:create:" + in.IdempotencyKey
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return 0, ErrDuplicateRequest
		}
	}

	id, err := s.repo.CreateItem(ctx, patch.Apply(domain.Item{}), audit)
	if err != nil {
		if key != "" {
			if relErr := s.cache.ReleaseIdempotency(ctx, key); relErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return 0, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info("item created", zap.Int64("id", id), zap.Bool("audited", audit != nil))
	return id, nil
}

func (s *ItemService) Update(ctx context.Context, id int64, in UpdateItemInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	patch, err := s.normalizePatch(in.ItemPatch)
	if err != nil {
		return err
	}

	audit, err := s.gateAudit(in.AuditInput)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateItem(ctx, id, patch, audit); err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}

	s.logger.Info("item updated", zap.Int64("id", id), zap.Bool("audited", audit != nil))
	return nil
}

// Delete removes the item and its history. Unknown ids succeed.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	removed, err := s.repo.DeleteItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}

	s.logger.Info("item deleted", zap.Int64("id", id), zap.Int64("history_removed", removed))
	return nil
}

// normalizePatch rewrites the time fields into their stored form. A blank
// timestamp is stored as null.
func (s *ItemService) normalizePatch(p domain.ItemPatch) (domain.ItemPatch, error) {
	if p.Timestamp.Valid {
		ts, err := s.normalizer.Normalize(p.Timestamp.Value)
		if err != nil {
			return p, fmt.Errorf("timestamp: %w", err)
		}
		p.Timestamp = domain.FromPtr(ts)
	}
	if p.Expired.Valid {
		exp, err := s.normalizer.Canonical(p.Expired.Value)
		if err != nil {
			return p, fmt.Errorf("expired: %w", err)
		}
		p.Expired = domain.FromPtr(exp)
	}
	return p, nil
}

// gateAudit returns nil when either UpdatedBy or UpdatedAt is missing, so
// partial audit data is dropped without an error.
func (s *ItemService) gateAudit(in AuditInput) (*domain.Audit, error) {
	if !in.UpdatedBy.Present() || !in.UpdatedAt.Present() {
		return nil, nil
	}

	at, err := s.normalizer.Normalize(in.UpdatedAt.Value)
	if err != nil {
		return nil, fmt.Errorf("updatedAt: %w", err)
	}
	if at == nil {
		return nil, nil
	}

	return &domain.Audit{
		UpdatedBy: in.UpdatedBy.Value,
		UpdatedAt: *at,
		OldStatus: in.OldStatus,
		NewStatus: in.NewStatus,
		OldPlace:  in.OldPlace,
		NewPlace:  in.NewPlace,
	}, nil
}

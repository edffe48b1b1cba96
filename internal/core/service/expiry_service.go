package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/internal/core/timefmt"
	"github.com/rl1809/formalin/internal/port"
)

type ExpiryService struct {
	repo       port.ItemRepository
	normalizer *timefmt.Normalizer
	now        func() time.Time
}

func NewExpiryService(repo port.ItemRepository, normalizer *timefmt.Normalizer) *ExpiryService {
	return &ExpiryService{repo: repo, normalizer: normalizer, now: time.Now}
}

// Report lists items whose expiry passed before asOf, compared in the
// normalizer's local zone.
func (s *ExpiryService) Report(ctx context.Context, asOf time.Time) (domain.ExpiryReport, error) {
	cutoff := s.normalizer.Format(asOf)

	items, err := s.repo.ListExpired(ctx, cutoff)
	if err != nil {
		return domain.ExpiryReport{}, fmt.Errorf("expiry report: %w", err)
	}

	return domain.ExpiryReport{
		GeneratedAt: s.now().UTC(),
		AsOf:        cutoff,
		Count:       len(items),
		Items:       items,
	}, nil
}

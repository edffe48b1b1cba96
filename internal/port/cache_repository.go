package port

import (
	"context"

	"github.com/rl1809/formalin/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency drops the key so a failed request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}

type ReportRepository interface {
	SaveExpiryReport(ctx context.Context, report domain.ExpiryReport) error
}

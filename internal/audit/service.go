package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service records audit entries.
//
// IMPORTANT:
// - Audit is observability, not a transactional guarantee.
// - Callers must treat recording as best-effort and never fail a request
//   because an audit write failed.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEntry = errors.New("audit: invalid entry")

func (s *Service) Record(ctx context.Context, e Entry) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.TenantID == "" {
		return ErrInvalidEntry
	}
	if e.Action == "" {
		return ErrInvalidEntry
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return s.repo.Append(ctx, e)
}

// List returns the newest tenant-scoped entries, capped at 100.
func (s *Service) List(ctx context.Context, tenantID string, f ListFilter) ([]Entry, error) {
	if tenantID == "" {
		return nil, ErrInvalidEntry
	}
	return s.repo.List(ctx, tenantID, f)
}

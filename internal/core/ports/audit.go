package ports

import (
	"context"

	"github.com/revtrack/revenue-tracker/internal/core/domain"
)

// AuditRepository persists authentication audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditRecorder accepts audit events without blocking the request path.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// NopAuditRecorder drops every event.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(domain.AuthEvent) {}

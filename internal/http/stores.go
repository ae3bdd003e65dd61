package http

import (
	"context"

	"github.com/mrlokans/secrets/internal/entities"
)

// Each controller declares the narrow slice of storage it needs.

// SecretStore reads and writes the secret column of user records.
type SecretStore interface {
	UpdateSecret(ctx context.Context, id uint, secret string) error
	ListUsersWithSecrets(ctx context.Context) ([]entities.User, error)
}

// ActivityStore lists audit events.
type ActivityStore interface {
	GetEvents(ctx context.Context, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

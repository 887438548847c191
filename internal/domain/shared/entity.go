package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit timestamps embedded by every
// aggregate root. Mutating methods on the aggregates call Touch so
// UpdatedAt always reflects the last domain-level change, not the last
// database write.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity mints a fresh identity with both timestamps set to now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a domain-level mutation at the given instant
func (e *BaseEntity) Touch(now time.Time) {
	e.UpdatedAt = now
}

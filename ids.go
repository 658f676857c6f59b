package omegaedit

import (
	"fmt"

	"github.com/google/uuid"
)

// newSessionID mints a time-ordered UUIDv7 session identity: sortable and
// collision-resistant without a central allocator.
func newSessionID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("omegaedit: new session id: %w", err)
	}

	return id, nil
}

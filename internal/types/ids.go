package types

import (
	"time"

	"github.com/google/uuid"
)

// NewDraftID generates a UUIDv7 draft identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewDraftID() DraftID {
	return DraftID(uuid.Must(uuid.NewV7()).String())
}

// ParseDraftID validates and converts a string to DraftID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the store.
func ParseDraftID(s string) (DraftID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return DraftID(s), nil
}

// DraftIDTime extracts the timestamp embedded in a UUIDv7 draft ID.
// Enables creation-time ordering without a database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func DraftIDTime(id DraftID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}

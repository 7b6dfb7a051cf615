package ids

import "github.com/segmentio/ksuid"

// New returns a fresh, k-sortable identifier suitable for primary keys.
func New() string {
	return ksuid.New().String()
}

package domain

import "time"

// CatalogEntry is an admin-curated service category offered on the
// request form. Matching against provider services stays fuzzy regardless.
type CatalogEntry struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

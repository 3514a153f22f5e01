package discovery

import "context"

// NotAvailable is the sentinel for fields an external source did not supply.
// Explicit sentinels are preferred over nulls in persisted provider records.
const NotAvailable = "Not Available"

// DefaultRating is assumed for businesses with no published rating.
const DefaultRating = 3.5

// Place is the canonical shape every source adapter normalizes into. Every
// field is optional; zero values are replaced by sentinels at persistence.
type Place struct {
	Name      string
	Address   string
	Phone     string
	Website   string
	Rating    float64
	Latitude  *float64
	Longitude *float64
}

// Source is one external business-listing lookup. Search returns (nil, nil)
// when the source responded but had no usable result.
type Source interface {
	Name() string
	Search(ctx context.Context, serviceType, location string) (*Place, error)
}

// Normalize fills sentinel defaults into a raw place result.
func Normalize(p *Place) *Place {
	if p == nil {
		return nil
	}
	out := *p
	if out.Name == "" {
		out.Name = NotAvailable
	}
	if out.Address == "" {
		out.Address = NotAvailable
	}
	if out.Phone == "" {
		out.Phone = NotAvailable
	}
	if out.Website == "" {
		out.Website = NotAvailable
	}
	if out.Rating <= 0 {
		out.Rating = DefaultRating
	}
	return &out
}

package service

import (
	"sort"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// providerScore rewards both quality and volume; the x10 weight privileges
// rating over raw job count.
func providerScore(p domain.User) float64 {
	return p.Rating*10 + float64(p.CompletedJobs)
}

// RankProviders selects the best candidate: highest composite score, ties
// broken by lower active load, then earlier signup. Candidates that are
// unavailable or at the saturation cap are dropped first; an empty
// post-filter list returns nil, not an error.
func RankProviders(candidates []domain.User, saturationCap int) *domain.User {
	eligible := make([]domain.User, 0, len(candidates))
	for _, c := range candidates {
		if c.Availability != domain.AvailabilityAvailable {
			continue
		}
		if saturationCap > 0 && c.ActiveRequests >= saturationCap {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		si, sj := providerScore(eligible[i]), providerScore(eligible[j])
		if si != sj {
			return si > sj
		}
		if eligible[i].ActiveRequests != eligible[j].ActiveRequests {
			return eligible[i].ActiveRequests < eligible[j].ActiveRequests
		}
		return eligible[i].SignupDate.Before(eligible[j].SignupDate)
	})

	best := eligible[0]
	return &best
}

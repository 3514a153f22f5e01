package service

import (
	"testing"
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

func provider(id string, rating float64, completed, active int, signup time.Time) domain.User {
	return domain.User{
		ID:             id,
		Role:           domain.RoleProvider,
		Availability:   domain.AvailabilityAvailable,
		Rating:         rating,
		CompletedJobs:  completed,
		ActiveRequests: active,
		SignupDate:     signup,
	}
}

func TestRankProviders(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		candidates []domain.User
		cap        int
		wantID     string
		wantNil    bool
	}{
		{
			name:    "empty list",
			wantNil: true,
		},
		{
			name: "highest score wins",
			candidates: []domain.User{
				provider("a", 4.0, 10, 0, base),
				provider("b", 4.5, 3, 0, base),
			},
			cap:    10,
			wantID: "a", // 4.0*10+10=50 beats 4.5*10+3=48
		},
		{
			name: "rating outweighs jobs",
			candidates: []domain.User{
				provider("a", 3.0, 12, 0, base),
				provider("b", 4.5, 0, 0, base),
			},
			cap:    10,
			wantID: "b",
		},
		{
			name: "tie broken by lower active load",
			candidates: []domain.User{
				provider("busy", 4.0, 5, 6, base),
				provider("idle", 4.0, 5, 1, base),
			},
			cap:    10,
			wantID: "idle",
		},
		{
			name: "tie broken by earlier signup",
			candidates: []domain.User{
				provider("late", 4.0, 5, 2, base.AddDate(0, 6, 0)),
				provider("early", 4.0, 5, 2, base),
			},
			cap:    10,
			wantID: "early",
		},
		{
			name: "saturated providers excluded",
			candidates: []domain.User{
				provider("full", 5.0, 50, 10, base),
				provider("open", 3.0, 1, 2, base),
			},
			cap:    10,
			wantID: "open",
		},
		{
			name: "all saturated",
			candidates: []domain.User{
				provider("full1", 5.0, 50, 10, base),
				provider("full2", 4.0, 20, 12, base),
			},
			cap:     10,
			wantNil: true,
		},
		{
			name: "unavailable excluded",
			candidates: []domain.User{
				func() domain.User {
					p := provider("off", 5.0, 50, 0, base)
					p.Availability = domain.AvailabilityUnavailable
					return p
				}(),
				provider("on", 3.0, 1, 0, base),
			},
			cap:    10,
			wantID: "on",
		},
		{
			name: "zero cap disables saturation filter",
			candidates: []domain.User{
				provider("loaded", 4.0, 5, 99, base),
			},
			cap:    0,
			wantID: "loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankProviders(tt.candidates, tt.cap)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("RankProviders() = %v, want nil", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatal("RankProviders() = nil, want a provider")
			}
			if got.ID != tt.wantID {
				t.Errorf("RankProviders() = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

package database

import (
	"context"
	"fmt"

	"activity-points/fixtures"

	"github.com/rs/zerolog/log"
)

// Seed loads the demo records when the users collection is empty. It reports
// whether anything was written.
func Seed(ctx context.Context, s *Store, seed *fixtures.Seed) (bool, error) {
	existing, err := s.Users.List(ctx, Query{Limit: 1})
	if err != nil {
		return false, fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, u := range seed.Users {
		if _, err := s.Users.Set(ctx, u.ID, u); err != nil {
			return false, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, l := range seed.Ledgers {
		if _, err := s.Ledgers.Set(ctx, l.UserID, l); err != nil {
			return false, fmt.Errorf("seed ledger %s: %w", l.UserID, err)
		}
	}
	for _, a := range seed.Activities {
		a.Normalize()
		if _, err := s.Activities.Set(ctx, a.ID, a); err != nil {
			return false, fmt.Errorf("seed activity %s: %w", a.ID, err)
		}
	}

	log.Info().
		Int("users", len(seed.Users)).
		Int("activities", len(seed.Activities)).
		Msg("seeded demo data")
	return true, nil
}

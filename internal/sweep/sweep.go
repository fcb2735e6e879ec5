// Package sweep runs the periodic offer-expiry job. Expiry is still checked
// lazily at act/read time; the sweep keeps overdue offers from lingering as
// pending between reads.
package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"bitsbarter/internal/repositories"
)

// Start schedules the expiry sweep and returns the running scheduler.
func Start(offerRepo repositories.OfferRepository, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		expired, err := offerRepo.ExpireOverdue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("offer expiry sweep failed")
			return
		}
		if expired > 0 {
			log.Info().Int64("expired", expired).Msg("offer expiry sweep")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

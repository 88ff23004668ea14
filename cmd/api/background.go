package main

import (
	"context"
	"time"

	"welp/internal/store"
)

// purgeExpiredInvitationsHourly removes invitation rows (and their never
// activated users) whose activation window has lapsed. Runs for the life of
// the process.
func (app *application) purgeExpiredInvitationsHourly() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), store.QueryTimeoutDuration)

			deleted, err := app.store.Users.DeleteExpiredInvitations(ctx)
			switch {
			case err != nil:
				app.logger.Errorw("failed to purge expired invitations", "error", err)
			case deleted > 0:
				app.logger.Infow("purged expired invitations", "deleted", deleted)
			}

			cancel()
		}
	}()
}

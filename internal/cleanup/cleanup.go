package cleanup

import (
	"time"

	"recordstorebot/internal/data"
	"recordstorebot/internal/logger"
)

const cleanupHour = 2 // 2 AM

// StartCleanupRoutine starts the daily maintenance job: expired operator
// sessions are dropped, and any zero-quantity inventory rows that slipped
// past their decrement-time delete are removed.
func StartCleanupRoutine(sessions *data.SessionRepository, inventory *data.InventoryRepository) {
	go func() {
		logger.LogInfo("Cleanup routine started - will run daily at %d:00 AM", cleanupHour)

		for {
			// Calculate next 2 AM
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), cleanupHour, 0, 0, 0, now.Location())

			// If it's past 2 AM today, schedule for tomorrow
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}

			sleepDuration := next.Sub(now)
			logger.LogInfo("Next cleanup scheduled for %v (in %v)", next.Format("2006-01-02 15:04:05"), sleepDuration)

			time.Sleep(sleepDuration)

			runCleanup(sessions, inventory)
		}
	}()
}

func runCleanup(sessions *data.SessionRepository, inventory *data.InventoryRepository) {
	logger.LogInfo("Starting daily maintenance")

	removed, err := sessions.DeleteExpired(time.Now())
	if err != nil {
		logger.LogError("Failed to clean up expired operator sessions: %v", err)
	} else if removed > 0 {
		logger.LogInfo("Removed %d expired operator session(s)", removed)
	}

	swept, err := inventory.CleanupSoldOut()
	if err != nil {
		logger.LogError("Failed to sweep sold-out inventory rows: %v", err)
	} else if swept > 0 {
		logger.LogInfo("Swept %d sold-out inventory row(s)", swept)
	}

	if removed == 0 && swept == 0 {
		logger.LogInfo("Maintenance completed - nothing to clean")
	}
}

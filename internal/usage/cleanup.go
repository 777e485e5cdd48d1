package usage

import "time"

// RunCleanupLoop calls cleanupFn immediately and then every interval until
// stop is closed.
func RunCleanupLoop(stop <-chan struct{}, interval time.Duration, cleanupFn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cleanupFn()

	for {
		select {
		case <-ticker.C:
			cleanupFn()
		case <-stop:
			return
		}
	}
}

func retentionCutoff(retentionDays int) time.Time {
	return time.Now().AddDate(0, 0, -retentionDays).UTC()
}

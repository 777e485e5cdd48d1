package usage

import "time"

const (
	// BatchFlushThreshold is the number of buffered entries that triggers an
	// immediate write without waiting for the flush timer.
	BatchFlushThreshold = 100

	// CleanupInterval is how often expired entries are deleted.
	CleanupInterval = 1 * time.Hour

	tableName = "sampling_usage"
)

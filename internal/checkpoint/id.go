package checkpoint

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID builds a checkpoint_id from a timestamp plus a short random
// hash, per spec.md §3: "timestamp + short hash". The teacher and
// codenerd both reach for google/uuid for exactly this kind of
// correlation-id suffix.
func GenerateID(at time.Time) string {
	suffix := uuid.New().String()[:8]
	return "checkpoint_" + at.UTC().Format("20060102_150405") + "_" + suffix
}

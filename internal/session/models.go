package session

import (
	"time"

	"backend-wearquest/internal/location"
)

type Activity string

const (
	ActivityWalking Activity = "walking"
	ActivityRunning Activity = "running"
	ActivityCycling Activity = "cycling"
	ActivityGeneral Activity = "general"
)

const (
	// Samples closer than this to the last retained point are jitter.
	minMovementM = 5
	// A start fix must be at least this accurate.
	maxStartAccuracyM = 50
	// Sessions shorter than this cannot be genuine extended wear.
	minDuration = 2 * time.Minute
	// Sessions covering less than this are essentially stationary.
	minDistanceM = 50
	// Sustained average speed above this means vehicular motion.
	maxAvgSpeedMps = 20
	// Instantaneous speed thresholds, km/h.
	walkingMaxKmh   = 6
	runningMaxKmh   = 15
	vehicularMinKmh = 50

	tickInterval = 30 * time.Second
)

// Session is one bounded period of tracked physical activity tied to one
// user and one product. The validity flag is one-way: once false it never
// returns to true.
type Session struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	ProductID      string            `json:"product_id"`
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        time.Time         `json:"ended_at,omitempty"`
	StartLocation  location.Sample   `json:"start_location"`
	EndLocation    *location.Sample  `json:"end_location,omitempty"`
	TrackingPoints []location.Sample `json:"tracking_points"`
	DistanceM      float64           `json:"distance_m"`
	Valid          bool              `json:"valid"`
	NFCVerified    bool              `json:"nfc_verified"`
	Activity       Activity          `json:"activity_type"`
}

// Duration is end-time minus start-time, or time since start while the
// session is still active.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

func (s *Session) snapshot() Session {
	out := *s
	out.TrackingPoints = make([]location.Sample, len(s.TrackingPoints))
	copy(out.TrackingPoints, s.TrackingPoints)
	if s.EndLocation != nil {
		end := *s.EndLocation
		out.EndLocation = &end
	}
	return out
}

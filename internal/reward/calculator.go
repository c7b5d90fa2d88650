package reward

import (
	"math"
	"time"
)

const (
	nfcMultiplier      = 1.5
	longWearMultiplier = 1.2
	longWearMinutes    = 60
)

// Activity is the scored view of a finalized session.
type Activity struct {
	Type        string
	Duration    time.Duration
	DistanceM   float64
	Valid       bool
	NFCVerified bool
}

// Points maps a finalized session to its reward value. Invalid sessions
// always score zero. Multiplier order is fixed for reproducibility:
// base, NFC bonus, long-wear bonus, final floor.
func Points(a Activity) int {
	if !a.Valid {
		return 0
	}

	minutes := a.Duration.Minutes()
	km := a.DistanceM / 1000

	var base float64
	switch a.Type {
	case "walking":
		base = math.Floor(2*minutes + 10*km)
	case "running":
		base = math.Floor(3*minutes + 15*km)
	case "cycling":
		base = math.Floor(1.5*minutes + 5*km)
	default:
		base = math.Floor(minutes)
	}

	points := base
	if a.NFCVerified {
		points *= nfcMultiplier
	}
	if minutes > longWearMinutes {
		points *= longWearMultiplier
	}
	return int(math.Floor(points))
}

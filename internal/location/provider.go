package location

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPermissionDenied      = errors.New("location permission denied")
	ErrPermissionUnavailable = errors.New("location capability unavailable")
	ErrFixTimeout            = errors.New("location fix timed out")
	ErrFixUnavailable        = errors.New("location fix unavailable")
)

// FixTimeout bounds a one-shot CurrentFix read.
const FixTimeout = 15 * time.Second

type PermissionState string

const (
	PermissionUndetermined PermissionState = "undetermined"
	PermissionGranted      PermissionState = "granted"
	PermissionDenied       PermissionState = "denied"
	PermissionUnavailable  PermissionState = "unavailable"
)

// Sample is a single point-in-time location reading. Immutable once
// captured.
type Sample struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	AltitudeM  float64   `json:"altitude_m,omitempty"`
	Heading    float64   `json:"heading,omitempty"`
	SpeedMps   float64   `json:"speed_mps,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Provider abstracts platform location acquisition for one user.
//
// StreamFixes delivery is event-driven: inter-sample gaps are irregular
// and consumers must tolerate them. The stream never ends on its own;
// callers must invoke the cancel func, which releases the subscription.
type Provider interface {
	RequestPermission(ctx context.Context, userID string) (bool, error)
	CurrentFix(ctx context.Context, userID string) (Sample, error)
	StreamFixes(userID string) (<-chan Sample, func())
}

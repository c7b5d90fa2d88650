package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"backend-wearquest/internal/geofence"
	"backend-wearquest/internal/location"
	"backend-wearquest/internal/shared/geo"
	"backend-wearquest/internal/vault"

	"github.com/google/uuid"
)

var (
	ErrAlreadyActive        = errors.New("a session is already active")
	ErrNoActiveSession      = errors.New("no active session")
	ErrInvalidStartLocation = errors.New("start location rejected")
)

// Engine owns the lifecycle of at most one active session for one user.
// All session mutation (samples, ticks, stop) is serialized by the
// engine mutex.
type Engine struct {
	userID   string
	provider location.Provider
	zones    *geofence.Registry
	store    vault.Store

	tickEvery time.Duration

	mu           sync.Mutex
	current      *Session
	stopping     bool
	cancelStream func()
	stopTick     chan struct{}
}

func NewEngine(userID string, provider location.Provider, zones *geofence.Registry, store vault.Store) *Engine {
	return &Engine{
		userID:    userID,
		provider:  provider,
		zones:     zones,
		store:     store,
		tickEvery: tickInterval,
	}
}

// Start acquires permission and an initial fix, validates the start
// location, and begins tracking. A failed start leaves the engine idle
// and retryable.
func (e *Engine) Start(ctx context.Context, productID string, nfcVerified bool) (string, error) {
	e.mu.Lock()
	active := e.current != nil
	e.mu.Unlock()
	if active {
		return "", ErrAlreadyActive
	}

	granted, err := e.provider.RequestPermission(ctx, e.userID)
	if err != nil {
		return "", err
	}
	if !granted {
		return "", location.ErrPermissionDenied
	}

	fix, err := e.provider.CurrentFix(ctx, e.userID)
	if err != nil {
		return "", err
	}
	if fix.AccuracyM > maxStartAccuracyM || e.zones.InRestricted(fix.Lat, fix.Lng) {
		return "", ErrInvalidStartLocation
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		return "", ErrAlreadyActive
	}

	sess := &Session{
		ID:             uuid.NewString(),
		UserID:         e.userID,
		ProductID:      productID,
		StartedAt:      time.Now(),
		StartLocation:  fix,
		TrackingPoints: []location.Sample{fix},
		Valid:          true,
		NFCVerified:    nfcVerified,
		Activity:       ActivityGeneral,
	}
	e.current = sess

	fixes, cancel := e.provider.StreamFixes(e.userID)
	e.cancelStream = cancel
	e.stopTick = make(chan struct{})
	go e.consume(fixes)
	go e.runTicker(e.stopTick)

	return sess.ID, nil
}

func (e *Engine) consume(fixes <-chan location.Sample) {
	for s := range fixes {
		e.onSample(s)
	}
}

func (e *Engine) runTicker(stop <-chan struct{}) {
	t := time.NewTicker(e.tickEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			e.tick()
		case <-stop:
			return
		}
	}
}

// onSample folds one delivered fix into the active session. Samples
// under the movement threshold are jitter and dropped without retention
// or distance credit.
func (e *Engine) onSample(s location.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.current
	if sess == nil || !sess.EndedAt.IsZero() {
		return
	}

	last := sess.TrackingPoints[len(sess.TrackingPoints)-1]
	d := geo.HaversineM(last.Lat, last.Lng, s.Lat, s.Lng)
	if d < minMovementM {
		return
	}

	// The sample is retained and credited before any validity decision;
	// a vehicular-speed sample still counts toward distance.
	sess.TrackingPoints = append(sess.TrackingPoints, s)
	sess.DistanceM += d

	spd := s.SpeedMps
	if spd <= 0 {
		if gap := s.RecordedAt.Sub(last.RecordedAt); gap > 0 {
			spd = d / gap.Seconds()
		}
	}
	if spd > 0 {
		switch kmh := spd * 3.6; {
		case kmh < walkingMaxKmh:
			sess.Activity = ActivityWalking
		case kmh < runningMaxKmh:
			sess.Activity = ActivityRunning
		case kmh < vehicularMinKmh:
			sess.Activity = ActivityCycling
		default:
			sess.Valid = false
		}
	}

	if e.zones.InRestricted(s.Lat, s.Lng) {
		sess.Valid = false
	}
}

// tick runs the periodic validation pass and persists an encrypted
// snapshot. Persistence is best-effort; failures are logged and the
// session continues in memory.
func (e *Engine) tick() {
	e.mu.Lock()
	sess := e.current
	if sess == nil {
		e.mu.Unlock()
		return
	}
	if avgSpeed(sess) > maxAvgSpeedMps {
		sess.Valid = false
	}
	rec, payload := toRecord(sess)
	e.mu.Unlock()

	if err := e.store.Put(context.Background(), rec, payload); err != nil {
		log.Printf("session snapshot persist failed: %v", err)
	}
}

// Stop cancels the sample stream and timer, takes a best-effort final
// fix, runs the finalization validation pass, persists the final record,
// and returns the immutable finalized session.
func (e *Engine) Stop(ctx context.Context) (Session, error) {
	e.mu.Lock()
	sess := e.current
	if sess == nil || e.stopping {
		e.mu.Unlock()
		return Session{}, ErrNoActiveSession
	}
	// Claim finalization before releasing the lock so a racing Stop
	// cannot re-finalize the same session.
	e.stopping = true
	cancel, stop := e.cancelStream, e.stopTick
	e.cancelStream, e.stopTick = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stop != nil {
		close(stop)
	}

	// Final fix is best-effort; platform errors here must not lose the
	// session.
	endFix, fixErr := e.provider.CurrentFix(ctx, e.userID)

	e.mu.Lock()
	if fixErr == nil {
		f := endFix
		sess.EndLocation = &f
	}
	sess.EndedAt = time.Now()
	finalValidate(sess)
	rec, payload := toRecord(sess)
	out := sess.snapshot()
	e.current = nil
	e.stopping = false
	e.mu.Unlock()

	if err := e.store.Put(context.Background(), rec, payload); err != nil {
		log.Printf("session final persist failed: %v", err)
	}
	return out, nil
}

// Current returns a consistent read-only snapshot of the active session.
func (e *Engine) Current() (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Session{}, false
	}
	return e.current.snapshot(), true
}

func finalValidate(sess *Session) {
	if sess.Duration() < minDuration {
		sess.Valid = false
	}
	if sess.DistanceM < minDistanceM {
		sess.Valid = false
	}
	if avgSpeed(sess) > maxAvgSpeedMps {
		sess.Valid = false
	}
}

func avgSpeed(sess *Session) float64 {
	elapsed := sess.Duration().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return sess.DistanceM / elapsed
}

func toRecord(sess *Session) (vault.Record, []byte) {
	payload, _ := json.Marshal(sess)
	return vault.Record{
		ID:           sess.ID,
		UserID:       sess.UserID,
		ProductID:    sess.ProductID,
		StartedAt:    sess.StartedAt,
		EndedAt:      sess.EndedAt,
		DistanceM:    sess.DistanceM,
		DurationSec:  int64(sess.Duration().Seconds()),
		Valid:        sess.Valid,
		NFCVerified:  sess.NFCVerified,
		ActivityType: string(sess.Activity),
	}, payload
}

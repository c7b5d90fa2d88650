package location

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"backend-wearquest/internal/feed"
)

// FeedProvider implements Provider on top of the device fix feed. The
// platform prompt lives on the device, so permission state arrives over
// the ingest API and is held here per user.
type FeedProvider struct {
	hub *feed.Hub

	mu      sync.Mutex
	perms   map[string]PermissionState
	changed map[string]chan struct{}
}

func NewFeedProvider(hub *feed.Hub) *FeedProvider {
	return &FeedProvider{
		hub:     hub,
		perms:   map[string]PermissionState{},
		changed: map[string]chan struct{}{},
	}
}

// SetPermission records the device-reported permission state and wakes
// any blocked RequestPermission call.
func (p *FeedProvider) SetPermission(userID string, state PermissionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perms[userID] = state
	if ch, ok := p.changed[userID]; ok {
		close(ch)
	}
	p.changed[userID] = make(chan struct{})
}

// PushFix publishes one device sample onto the user's feed.
func (p *FeedProvider) PushFix(userID string, s Sample) {
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now()
	}
	payload, _ := json.Marshal(s)
	p.hub.Publish(userID, payload)
}

// RequestPermission blocks until the user's permission state leaves
// undetermined or the context expires.
func (p *FeedProvider) RequestPermission(ctx context.Context, userID string) (bool, error) {
	for {
		p.mu.Lock()
		state, ok := p.perms[userID]
		if !ok {
			state = PermissionUndetermined
		}
		wait, haveWait := p.changed[userID]
		if !haveWait {
			wait = make(chan struct{})
			p.changed[userID] = wait
		}
		p.mu.Unlock()

		switch state {
		case PermissionGranted:
			return true, nil
		case PermissionDenied:
			return false, nil
		case PermissionUnavailable:
			return false, ErrPermissionUnavailable
		}

		select {
		case <-wait:
		case <-ctx.Done():
			return false, ErrPermissionUnavailable
		}
	}
}

func (p *FeedProvider) CurrentFix(ctx context.Context, userID string) (Sample, error) {
	if p.hub == nil {
		return Sample{}, ErrFixUnavailable
	}

	client := p.hub.Register(userID)
	defer p.hub.Unregister(client)

	ctx, cancel := context.WithTimeout(ctx, FixTimeout)
	defer cancel()

	for {
		select {
		case payload, ok := <-client.Recv:
			if !ok {
				return Sample{}, ErrFixUnavailable
			}
			var s Sample
			if err := json.Unmarshal(payload, &s); err != nil {
				continue
			}
			return s, nil
		case <-ctx.Done():
			return Sample{}, ErrFixTimeout
		}
	}
}

func (p *FeedProvider) StreamFixes(userID string) (<-chan Sample, func()) {
	client := p.hub.Register(userID)
	out := make(chan Sample, 64)

	go func() {
		defer close(out)
		for payload := range client.Recv {
			var s Sample
			if err := json.Unmarshal(payload, &s); err != nil {
				continue
			}
			select {
			case out <- s:
			default:
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { p.hub.Unregister(client) })
	}
	return out, cancel
}

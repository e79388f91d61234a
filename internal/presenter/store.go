// Package presenter owns the route currently on display.
//
// State is held as immutable snapshots that are swapped atomically. Every
// orchestration run takes a request id from Begin; only the most recently
// issued id may publish, so overlapping runs resolve to the latest trigger
// regardless of which response arrives last.
package presenter

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/models"
)

// ErrSuperseded is returned by Publish when a newer request has been issued.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Phase is the lifecycle stage of the latest request.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseFetching  Phase = "fetching"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Status describes the latest request.
type Status struct {
	RequestID uint64
	Phase     Phase
	Message   string // user-facing notification, set on failure
}

// Snapshot is a published route. It must not be modified after Publish.
type Snapshot struct {
	RequestID   uint64
	Origin      string
	Destination string
	Route       models.Route
	PublishedAt time.Time
}

// Event is delivered to subscribers on every state change.
// Snapshot is the current route, nil until the first publication.
type Event struct {
	Status   Status
	Snapshot *Snapshot
}

// Store holds the current snapshot and the status of the latest request.
type Store struct {
	mu      sync.Mutex // serializes writers and subscriber bookkeeping
	latest  uint64
	current atomic.Pointer[Snapshot]
	status  atomic.Pointer[Status]
	subs    map[uint64]chan Event
	nextSub uint64
	now     func() time.Time
}

// NewStore returns an idle store with no route.
func NewStore() *Store {
	s := &Store{
		subs: make(map[uint64]chan Event),
		now:  time.Now,
	}
	s.status.Store(&Status{Phase: PhaseIdle})

	return s
}

// Begin issues a new request id and marks it as fetching.
// Any request issued earlier can no longer publish.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest++
	s.setStatus(Status{RequestID: s.latest, Phase: PhaseFetching})

	return s.latest
}

// Publish installs snap as the current route if id is the latest request.
// The snapshot's RequestID and PublishedAt are filled in by the store.
func (s *Store) Publish(id uint64, snap Snapshot) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.latest {
		return nil, ErrSuperseded
	}

	snap.RequestID = id
	snap.PublishedAt = s.now()
	s.current.Store(&snap)
	s.setStatus(Status{RequestID: id, Phase: PhaseSucceeded})

	return &snap, nil
}

// Fail records a failure for id if it is still the latest request.
// The current route is never touched.
func (s *Store) Fail(id uint64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.latest {
		return false
	}
	s.setStatus(Status{RequestID: id, Phase: PhaseFailed, Message: message})

	return true
}

// Current returns the displayed snapshot or nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Status returns the status of the latest request.
func (s *Store) Status() Status {
	return *s.status.Load()
}

// Subscribe registers an observer. When a subscriber's buffer is full its oldest
// pending event is discarded, so the latest state is always delivered; the
// returned cancel func closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	events := make(chan Event, buffer)
	s.subs[id] = events

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(events)
		})
	}

	return events, cancel
}

// setStatus must be called with mu held.
func (s *Store) setStatus(status Status) {
	s.status.Store(&status)

	event := Event{Status: status, Snapshot: s.current.Load()}
	for _, events := range s.subs {
		select {
		case events <- event:
			continue
		default:
		}
		// Full: replace the oldest pending event. Senders are serialized by mu.
		select {
		case <-events:
		default:
		}
		select {
		case events <- event:
		default:
		}
	}
}

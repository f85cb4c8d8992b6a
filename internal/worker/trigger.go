package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mtlprog/wizard/internal/pricing"
)

// UpdatePolicy decides whether an opportunistic refresh is due.
type UpdatePolicy interface {
	AutoUpdateEnabled(ctx context.Context) (bool, error)
	GlobalUpdateDue(ctx context.Context) (bool, error)
}

// BulkUpdater refreshes every asset price.
type BulkUpdater interface {
	UpdateAll(ctx context.Context) (pricing.BulkUpdateOutcome, error)
}

// Trigger fires a full price refresh at most once over its lifetime.
type Trigger struct {
	policy  UpdatePolicy
	updater BulkUpdater
	fired   atomic.Bool
	wg      *sync.WaitGroup
}

// NewTrigger creates a Trigger that has not fired yet.
func NewTrigger(policy UpdatePolicy, updater BulkUpdater) *Trigger {
	return newTrigger(policy, updater, &sync.WaitGroup{})
}

// newTrigger creates a Trigger whose fired update is tracked by wg.
func newTrigger(policy UpdatePolicy, updater BulkUpdater, wg *sync.WaitGroup) *Trigger {
	return &Trigger{policy: policy, updater: updater, wg: wg}
}

// MaybeFire starts UpdateAll in the background when auto-update is enabled and the
// newest price is stale. It never blocks on the update and reports whether it fired.
// Checks that find nothing due leave the trigger armed.
func (t *Trigger) MaybeFire(ctx context.Context) bool {
	if t.fired.Load() {
		return false
	}

	enabled, err := t.policy.AutoUpdateEnabled(ctx)
	if err != nil {
		slog.Warn("AutoUpdate: reading setting failed", "error", err)
		return false
	}
	if !enabled {
		return false
	}

	due, err := t.policy.GlobalUpdateDue(ctx)
	if err != nil {
		slog.Warn("AutoUpdate: checking staleness failed", "error", err)
		return false
	}
	if !due || !t.fired.CompareAndSwap(false, true) {
		return false
	}

	bg := context.WithoutCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		outcome, err := t.updater.UpdateAll(bg)
		switch {
		case errors.Is(err, pricing.ErrUpdateInProgress):
			slog.Info("AutoUpdate: update already running")
		case err != nil:
			slog.Warn("AutoUpdate: update failed", "error", err)
		default:
			slog.Info("AutoUpdate: update completed", "summary", outcome.Message())
		}
	}()
	return true
}

// Fired reports whether the trigger has already started an update.
func (t *Trigger) Fired() bool {
	return t.fired.Load()
}

// Wait blocks until a fired update has finished. Triggers handed out by
// Sessions share one tracker, so Wait covers every session's update.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// DefaultSessionTTL is how long an idle session keeps its trigger.
const DefaultSessionTTL = 12 * time.Hour

// DefaultMaxSessions caps how many sessions are tracked at once.
const DefaultMaxSessions = 1024

// Sessions keeps one Trigger per dashboard session and forgets idle ones.
// When full, the least recently seen session is dropped to make room.
// Updates fired by any session are tracked in one WaitGroup, so Wait also
// covers sessions that were dropped while their update was running.
type Sessions struct {
	policy  UpdatePolicy
	updater BulkUpdater
	ttl     time.Duration
	max     int
	now     func() time.Time

	inflight sync.WaitGroup

	mu       sync.Mutex
	triggers map[string]*sessionTrigger
}

type sessionTrigger struct {
	trigger  *Trigger
	lastSeen time.Time
}

// NewSessions creates an empty session registry.
func NewSessions(policy UpdatePolicy, updater BulkUpdater, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		policy:   policy,
		updater:  updater,
		ttl:      ttl,
		max:      DefaultMaxSessions,
		now:      time.Now,
		triggers: make(map[string]*sessionTrigger),
	}
}

// Trigger returns the session's trigger, creating it on first use.
func (s *Sessions) Trigger(sessionID string) *Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, st := range s.triggers {
		if now.Sub(st.lastSeen) > s.ttl {
			delete(s.triggers, id)
		}
	}

	st, ok := s.triggers[sessionID]
	if !ok {
		if len(s.triggers) >= s.max {
			s.evictOldest()
		}
		st = &sessionTrigger{trigger: newTrigger(s.policy, s.updater, &s.inflight)}
		s.triggers[sessionID] = st
	}
	st.lastSeen = now
	return st.trigger
}

func (s *Sessions) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, st := range s.triggers {
		if oldestID == "" || st.lastSeen.Before(oldest) {
			oldestID, oldest = id, st.lastSeen
		}
	}
	delete(s.triggers, oldestID)
}

// Len returns the number of tracked sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// Wait blocks until every update fired through these sessions has finished.
func (s *Sessions) Wait() {
	s.inflight.Wait()
}

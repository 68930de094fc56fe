// Package verify runs asynchronous aadhaar verification for roster
// members. The production identity-verification API keeps the same
// contract as the stub here: member id in, verified boolean out.
package verify

import (
	"context"
	"sync"
	"time"
)

// Verifier checks one member's aadhaar. Implementations must respect
// context cancellation.
type Verifier interface {
	Verify(ctx context.Context, localID string) (bool, error)
}

// StubVerifier approves every request after a fixed latency. It stands
// in for the external identity-verification call.
type StubVerifier struct {
	Latency time.Duration
}

func (v *StubVerifier) Verify(ctx context.Context, localID string) (bool, error) {
	select {
	case <-time.After(v.Latency):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type inflightEntry struct {
	cancel context.CancelFunc
}

// Manager tracks in-flight verifications keyed by member local id so a
// removed member's request can be cancelled instead of mutating a
// roster entry that no longer exists. Starting a new verification for
// a member cancels any previous one for the same member.
type Manager struct {
	mu       sync.Mutex
	verifier Verifier
	inflight map[string]*inflightEntry
	wg       sync.WaitGroup
}

func NewManager(verifier Verifier) *Manager {
	return &Manager{
		verifier: verifier,
		inflight: make(map[string]*inflightEntry),
	}
}

// Start launches a verification for the given member. apply runs only
// when the verifier answers positively before cancellation; the caller
// is responsible for re-checking that the member still exists.
func (m *Manager) Start(ctx context.Context, localID string, apply func(verified bool)) {
	ctx, cancel := context.WithCancel(ctx)
	entry := &inflightEntry{cancel: cancel}

	m.mu.Lock()
	if prev, ok := m.inflight[localID]; ok {
		prev.cancel()
	}
	m.inflight[localID] = entry
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.finish(localID, entry)

		verified, err := m.verifier.Verify(ctx, localID)
		if err != nil || ctx.Err() != nil {
			return
		}
		apply(verified)
	}()
}

// Cancel aborts any in-flight verification for a member.
func (m *Manager) Cancel(localID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.inflight[localID]; ok {
		entry.cancel()
		delete(m.inflight, localID)
	}
}

// CancelAll aborts every in-flight verification, used on wizard reset.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, entry := range m.inflight {
		entry.cancel()
		delete(m.inflight, id)
	}
}

// Wait blocks until all launched goroutines have drained; tests use it
// to avoid sleeping.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// finish clears the inflight entry unless a newer request already
// replaced it.
func (m *Manager) finish(localID string, entry *inflightEntry) {
	entry.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.inflight[localID]; ok && current == entry {
		delete(m.inflight, localID)
	}
}

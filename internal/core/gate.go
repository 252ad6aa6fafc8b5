package core

// gate.go serializes entry mutations.
//
// The gate is a single-slot semaphore: add, delete, clear and import each
// hold it from cloning the collection until the new state is persisted and
// swapped in. A mutation that cannot get the slot within maxWait fails with
// ErrBusy.
//
// WaitForDrain lets the CLI finish an in-flight write before exiting on a
// signal.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the gate is held past the wait timeout.
var ErrBusy = errors.New("another change is in progress, please try again")

// DefaultMutationWait is how long to wait for the gate before rejecting.
const DefaultMutationWait = 5 * time.Second

// MutationGate admits one mutation at a time.
type MutationGate struct {
	slot    chan struct{}
	maxWait time.Duration

	mu      sync.RWMutex
	active  bool
	waiting int
}

// NewMutationGate creates a gate whose waiters give up after maxWait.
func NewMutationGate(maxWait time.Duration) *MutationGate {
	if maxWait <= 0 {
		maxWait = DefaultMutationWait
	}
	return &MutationGate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the slot, waiting up to maxWait.
// The caller MUST call Release when done (use defer).
func (g *MutationGate) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	g.mu.Lock()
	g.waiting++
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.waiting--
		g.mu.Unlock()
	}()

	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.active = true
		g.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
}

// TryAcquire takes the slot without blocking.
func (g *MutationGate) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.active = true
		g.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees the slot. Must be called exactly once per successful
// Acquire or TryAcquire.
func (g *MutationGate) Release() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()

	<-g.slot
}

// Active reports whether a mutation holds the gate.
func (g *MutationGate) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// WaitForDrain blocks until no mutation holds the gate or ctx is done.
func (g *MutationGate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Active() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GateStatus is a snapshot of the gate.
type GateStatus struct {
	Active  bool `json:"active"`
	Waiting int  `json:"waiting"`
}

// Status returns the current gate state for diagnostics.
func (g *MutationGate) Status() GateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return GateStatus{Active: g.active, Waiting: g.waiting}
}

// Package regmutex implements the claim-register semaphore that serializes
// access to the lifecycle transition engine.
//
// The device exposes a single claim register. Writing ClaimValue and reading
// it back as ClaimValue means the writer owns the engine; writing zero gives
// it up. A Mutex wraps one claim register:
//
//	m := regmutex.New(regmutex.Config{Port: port, ClaimAddr: claim})
//	g, err := m.Acquire(ctx, poll.Attempts(1000))
//	if err != nil {
//	    return err // ErrLockTimeout: nothing was claimed, nothing to release
//	}
//	defer m.Release(g)
//
// A mock register file cannot tell writers apart, so the Mutex also holds a
// host-side slot: callers sharing one Mutex never write the claim register
// concurrently. Share a single Mutex per claim register. A caller queued
// behind another pays for the wait out of its own budget, so give shared
// Mutexes a budget with a Timeout or an Interval; a bare poll.Attempts budget
// gives up on a busy slot almost immediately.
package regmutex

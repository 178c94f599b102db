// Package poll provides the bounded polling primitive used by every
// register handshake.
//
// A device handshake is a loop that re-reads a register until a condition
// holds. Left unbounded, a stuck device hangs the caller forever. Until runs
// such a loop under an explicit Budget (attempt bound, wall-clock timeout or
// both) and honors context cancellation between attempts:
//
//	n, err := poll.Until(ctx, poll.Budget{MaxAttempts: 100, Interval: time.Millisecond},
//	    func(int) (bool, error) {
//	        return port.ReadRegister(status)&ready != 0, nil
//	    })
//	if errors.Is(err, poll.ErrTimeout) {
//	    // device never became ready within n attempts
//	}
//
// Register is a shorthand for the common read-and-test loop. It also stops
// as soon as the port reports a bus fault (see regport.Faulter).
package poll

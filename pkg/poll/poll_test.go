package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssbringup/bringup-go/pkg/regport"
)

func TestBudgetValidate(t *testing.T) {
	tests := []struct {
		name    string
		budget  Budget
		wantErr bool
	}{
		{"attempts", Budget{MaxAttempts: 3}, false},
		{"timeout", Budget{Timeout: time.Second}, false},
		{"both", Budget{MaxAttempts: 3, Timeout: time.Second}, false},
		{"unbounded", Budget{Interval: time.Millisecond}, true},
		{"negative", Budget{MaxAttempts: -1, Timeout: time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.budget.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnbounded) {
				t.Errorf("Validate() error = %v, want ErrUnbounded", err)
			}
		})
	}
}

func TestUntilSucceeds(t *testing.T) {
	n, err := Until(context.Background(), Attempts(10), func(attempt int) (bool, error) {
		return attempt == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUntilAttemptBound(t *testing.T) {
	calls := 0
	n, err := Until(context.Background(), Attempts(5), func(int) (bool, error) {
		calls++
		return false, nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, calls, "exactly MaxAttempts checks")
}

func TestUntilTimeout(t *testing.T) {
	start := time.Now()
	_, err := Until(context.Background(), Budget{Timeout: 30 * time.Millisecond, Interval: 5 * time.Millisecond},
		func(int) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, ErrTimeout)

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestUntilCondError(t *testing.T) {
	boom := errors.New("boom")
	n, err := Until(context.Background(), Attempts(10), func(attempt int) (bool, error) {
		if attempt == 2 {
			return false, boom
		}
		return false, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, n)
}

func TestUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n, err := Until(ctx, Budget{Timeout: time.Minute, Interval: time.Millisecond}, func(attempt int) (bool, error) {
		if attempt == 4 {
			cancel()
		}
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, 4, n)
}

func TestUntilCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	n, err := Until(ctx, Attempts(3), func(int) (bool, error) {
		called = true
		return true, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
	assert.False(t, called)
}

func TestUntilUnbounded(t *testing.T) {
	_, err := Until(context.Background(), Budget{}, func(int) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, ErrUnbounded)
}

func TestWaiterBackoff(t *testing.T) {
	w := newWaiter(Budget{Interval: time.Millisecond, MaxInterval: 8 * time.Millisecond, Factor: 2})
	got := []time.Duration{w.next(), w.next(), w.next(), w.next(), w.next()}
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond, 8 * time.Millisecond}
	assert.Equal(t, want, got)

	flat := newWaiter(Budget{Interval: 3 * time.Millisecond})
	assert.Equal(t, 3*time.Millisecond, flat.next())
	assert.Equal(t, 3*time.Millisecond, flat.next())
}

func TestRegister(t *testing.T) {
	m := regport.NewMemPort()
	reads := 0
	m.OnRead(0x4, func(_ regport.Store, _ regport.Addr, _ uint32) uint32 {
		reads++
		if reads >= 3 {
			return 0x8
		}
		return 0
	})

	v, n, err := Register(context.Background(), Attempts(10), m, 0x4, func(v uint32) bool { return v&0x8 != 0 })
	require.NoError(t, err)
	assert.Equal(t, uint32(0x8), v)
	assert.Equal(t, 3, n)
}

type faultPort struct {
	*regport.MemPort
	err error
}

func (f *faultPort) Err() error { return f.err }

func TestRegisterStopsOnBusFault(t *testing.T) {
	p := &faultPort{MemPort: regport.NewMemPort(), err: errors.New("link down")}
	_, n, err := Register(context.Background(), Attempts(10), p, 0x4, func(uint32) bool { return true })
	assert.ErrorIs(t, err, regport.ErrBus)
	assert.Equal(t, 1, n)
}

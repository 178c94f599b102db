package stream

import (
	"errors"
	"sync"
)

// ErrJobConsumed indicates a job that was already sent (or aborted).
var ErrJobConsumed = errors.New("stream job already consumed")

// Job is an ordered, finite sequence of words that is sent exactly once.
type Job struct {
	mu       sync.Mutex
	words    []uint32
	sent     int
	consumed bool
}

// NewJob creates a job sending words in order. The slice is copied.
func NewJob(words []uint32) *Job {
	return &Job{words: append([]uint32(nil), words...)}
}

// Len returns the number of elements in the job.
func (j *Job) Len() int {
	return len(j.words)
}

// Sent returns how many elements were accepted so far.
func (j *Job) Sent() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sent
}

// Consumed reports whether the job was handed to a channel.
func (j *Job) Consumed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.consumed
}

// claim marks the job consumed; it fails if it already was.
func (j *Job) claim() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.consumed {
		return ErrJobConsumed
	}
	j.consumed = true
	return nil
}

func (j *Job) advance() {
	j.mu.Lock()
	j.sent++
	j.mu.Unlock()
}

package segment

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SubmitFunc starts one remote search and returns its id.
type SubmitFunc func(ctx context.Context) (string, error)

// Deduplicator allows at most one outstanding submission per key. Callers
// arriving while a submission is in flight share its outcome; once it
// settles the next caller triggers a fresh submission.
type Deduplicator struct {
	group singleflight.Group

	mu      sync.Mutex
	pending map[string]uint64
	seq     uint64
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		pending: make(map[string]uint64),
	}
}

// Begin returns the search id of the single in-flight submission for key,
// starting it with submit when none is registered. shared is true when the
// outcome came from another caller's submission.
func (d *Deduplicator) Begin(ctx context.Context, key string, submit SubmitFunc) (string, bool, error) {
	ch := d.group.DoChan(key, func() (interface{}, error) {
		token := d.register(key)
		defer d.release(key, token)

		return submit(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Shared, res.Err
		}

		return res.Val.(string), res.Shared, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Clear forgets every pending registration. Submissions already in flight
// still complete, but later callers no longer join them.
func (d *Deduplicator) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.pending {
		d.group.Forget(key)
	}

	d.pending = make(map[string]uint64)
}

// Pending returns the number of keys with a submission in flight.
func (d *Deduplicator) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.pending)
}

func (d *Deduplicator) register(key string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.pending[key] = d.seq

	return d.seq
}

func (d *Deduplicator) release(key string, token uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending[key] == token {
		delete(d.pending, key)
	}
}

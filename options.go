// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque

import "time"

// Pool tuning defaults.
const (
	defaultBatch     = 64
	defaultThreshold = 10000
	defaultReaction  = 50 * time.Millisecond
)

// PoolBuilder configures and opens a Pool with fluent configuration.
//
// Example:
//
//	pool, err := soque.NewPool(q0, q1).
//		Threads(8).
//		Bind().
//		Batch(64).
//		Threshold(10000).
//		Reaction(50 * time.Millisecond).
//		Open()
type PoolBuilder struct {
	queues    []*Queue
	threads   int
	bind      bool
	batch     int
	helpBatch int
	threshold int
	reaction  time.Duration
}

// NewPool creates a pool builder over the given queues, in home-worker
// order: worker i owns queues[i].
func NewPool(queues ...*Queue) *PoolBuilder {
	return &PoolBuilder{
		queues:    queues,
		batch:     defaultBatch,
		threshold: defaultThreshold,
		reaction:  defaultReaction,
	}
}

// Threads sets the worker thread count. Zero (the default) means hardware
// concurrency. Values below the queue count are raised to it.
func (b *PoolBuilder) Threads(n int) *PoolBuilder {
	b.threads = n
	return b
}

// Bind pins workers to CPU cores 0, 1, 2, … in index order. Workers beyond
// the hardware CPU count, and the conductor, stay unpinned.
func (b *PoolBuilder) Bind() *PoolBuilder {
	b.bind = true
	return b
}

// Batch sets the per-claim batch size for home workers (and, unless
// HelpBatch is set, for helpers too).
func (b *PoolBuilder) Batch(n int) *PoolBuilder {
	b.batch = n
	return b
}

// HelpBatch sets a separate per-claim batch size for workers helping on a
// queue that is not their home queue.
func (b *PoolBuilder) HelpBatch(n int) *PoolBuilder {
	b.helpBatch = n
	return b
}

// Threshold sets the items-per-second rate above which the conductor
// counts a worker as hot.
func (b *PoolBuilder) Threshold(perSec int) *PoolBuilder {
	b.threshold = perSec
	return b
}

// Reaction sets the conductor sampling interval, which is also the helper
// parking interval.
func (b *PoolBuilder) Reaction(d time.Duration) *PoolBuilder {
	b.reaction = d
	return b
}

// Open spawns the pool's worker threads and conductor. All configured
// tuning is in effect before the first claim.
func (b *PoolBuilder) Open() (*Pool, error) {
	helpBatch := b.batch
	helpSet := false
	if b.helpBatch > 0 {
		helpBatch = b.helpBatch
		helpSet = true
	}
	return openPool(b.threads, b.bind, b.queues,
		b.batch, helpBatch, helpSet, b.threshold, b.reaction)
}

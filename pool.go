// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque

import (
	"runtime"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// maxThreads is the hardware concurrency, captured at library init.
// Workers with a lower index are eligible for core pinning; the conductor
// and workers beyond it run unpinned.
var maxThreads = runtime.NumCPU()

// workerState carries one worker's counters, each on its own cache line.
// speed is written only by the worker and read by the conductor; rate is
// written only by the conductor and read by Stats.
type workerState struct {
	_     pad
	speed atomix.Uint64 // items completed in proc, cumulative, wraps
	_     pad
	rate  atomix.Uint64 // items/s over the last conductor interval
	_     pad
}

// Pool multiplexes queues over worker threads.
//
// Worker i is the home worker of queue i (for i below the queue count) and
// alone runs that queue's push/pop callbacks; every worker helps with proc
// on every queue in round-robin. One conductor thread samples per-worker
// throughput and publishes the hot-worker count that gates helper parking
// and the waitable hint.
//
// Construct with NewPool (builder) or ThreadsOpen (framework table form).
type Pool struct {
	queues  []*Queue
	threads int
	bind    bool

	// Tunables; racy writes by design, monotonic and drift-safe.
	batch     atomix.Uint64
	helpBatch atomix.Uint64
	helpSet   bool // HelpBatch configured explicitly; Tune leaves it alone
	threshold atomix.Uint64 // items/s per worker to count as hot
	reaction  atomix.Uint64 // conductor interval, nanoseconds

	_            pad
	workersCount atomix.Int64 // conductor-published hot-worker count
	_            pad
	shutdown     atomix.Bool
	_            pad
	ready        atomix.Int64 // start barrier
	_            pad

	workers []workerState
	wg      sync.WaitGroup
}

// ThreadsOpen spawns a pool of threads worker threads plus one conductor
// over the given queues, with default tuning. A threads value of 0 means
// hardware concurrency; values below the queue count are raised to it, so
// every queue has a home worker. With bind set, workers that fit the
// hardware CPU count are pinned to cores 0, 1, 2, … in index order.
//
// Callbacks do not begin until every worker has started.
func ThreadsOpen(threads int, bind bool, queues []*Queue) (*Pool, error) {
	return openPool(threads, bind, queues,
		defaultBatch, defaultBatch, false, defaultThreshold, defaultReaction)
}

// openPool builds and starts a pool. Tuning is in place before the first
// worker spawns, so no claim ever runs with settings the caller did not
// ask for.
func openPool(threads int, bind bool, queues []*Queue,
	batch, helpBatch int, helpSet bool,
	threshold int, reaction time.Duration) (*Pool, error) {

	if len(queues) == 0 {
		return nil, ErrNoQueues
	}
	for i, q := range queues {
		for _, prev := range queues[:i] {
			if q == prev {
				return nil, ErrDuplicateQueue
			}
		}
	}
	if threads <= 0 {
		threads = maxThreads
	}
	if threads < len(queues) {
		threads = len(queues)
	}
	if batch <= 0 {
		batch = defaultBatch
	}
	if helpBatch <= 0 {
		helpBatch = batch
	}
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if reaction <= 0 {
		reaction = defaultReaction
	}

	p := &Pool{
		queues:  queues,
		threads: threads,
		bind:    bind,
		helpSet: helpSet,
		workers: make([]workerState, threads),
	}
	p.batch.StoreRelaxed(uint64(batch))
	p.helpBatch.StoreRelaxed(uint64(helpBatch))
	p.threshold.StoreRelaxed(uint64(threshold))
	p.reaction.StoreRelaxed(uint64(reaction))

	p.wg.Add(threads + 1)
	for id := range threads {
		go p.worker(id)
	}
	go p.conduct()

	return p, nil
}

// Tune updates the per-claim batch size, the hot-worker threshold in
// items/s, and the conductor reaction interval. Safe to call at any time.
// Unless a helper batch was configured explicitly, helpers follow batch.
func (p *Pool) Tune(batch, threshold int, reaction time.Duration) {
	if batch > 0 {
		p.batch.Store(uint64(batch))
		if !p.helpSet {
			p.helpBatch.Store(uint64(batch))
		}
	}
	if threshold > 0 {
		p.threshold.Store(uint64(threshold))
	}
	if reaction > 0 {
		p.reaction.Store(uint64(reaction))
	}
}

// WorkersCount returns the conductor's current hot-worker count. Zero
// means the pipeline is idle: callbacks are being invoked with waitable
// set and surplus helpers are parked.
func (p *Pool) WorkersCount() int {
	return int(p.workersCount.Load())
}

// Close stops the pool. Workers and the conductor observe the shutdown
// flag on their next iteration; every in-flight claim finishes its
// ProcDone before its worker exits. Close returns after all threads have
// joined. Slots filled but never claimed are discarded with the queues.
func (p *Pool) Close() {
	p.shutdown.Store(true)
	p.wg.Wait()
}

// worker runs one pool thread: a proc step on every queue in rotation and,
// on its home queue, the push/pop I/O step under the queue's gate.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if p.bind && id < maxThreads {
		setAffinity(id) // best effort
	}

	// Start barrier: no callback runs until all workers are up.
	p.ready.Add(1)
	sw := spin.Wait{}
	for p.ready.Load() < int64(p.threads) {
		sw.Once()
	}

	soques := len(p.queues)
	wake := 0
	if id >= soques {
		wake = id // helper rank: parks while workersCount < wake
	}

	i := 0
	worked := false
	backoff := iox.Backoff{}

	for !p.shutdown.Load() {
		q := p.queues[i]

		// Proc step, always.
		batch := int(p.batch.Load())
		if i != id {
			batch = int(p.helpBatch.Load())
		}
		if idx, cnt := q.ProcGet(batch); cnt > 0 {
			q.procCB(q.arg, idx, cnt)
			q.ProcDone(idx, cnt)
			p.workers[id].speed.Add(uint64(cnt))
			worked = true
		}

		// I/O step, home worker only.
		if i == id && q.PPEnter() {
			waitable := p.workersCount.Load() == 0
			for {
				popped := 0
				if ready := q.Pop(0); ready > 0 {
					if retired := q.popCB(q.arg, ready, waitable); retired > 0 {
						popped = q.Pop(retired)
						worked = true
					}
				}
				if free := q.Push(0); free > 0 {
					if produced := q.pushCB(q.arg, free, waitable); produced > 0 {
						q.Push(produced)
						worked = true
					}
				}
				// Keep the pipeline tight while pop keeps retiring.
				if popped == 0 {
					break
				}
			}
			q.PPLeave()
		}

		if i++; i == soques {
			i = 0
			switch {
			case wake > 0 && p.workersCount.Load() < int64(wake):
				// Surplus helper: the pipeline does not need this rank yet.
				time.Sleep(time.Duration(p.reaction.Load()))
			case !worked:
				backoff.Wait()
			default:
				backoff.Reset()
			}
			worked = false
		}
	}
}

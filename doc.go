// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package soque provides a strict-order staged queue and a worker pool for
// building high-throughput in-process pipelines.
//
// Items flow through three phases — ingress (push), parallel processing
// (proc), egress (pop) — and the externally observable completion order
// always matches ingress order: processing may finish out of order across
// workers, but items retire strictly in the order they were pushed.
//
// # Model
//
// A Queue is a fixed-size ring of per-slot state markers with four cursors:
//
//	popFixed → procFixed → procRun → pushFixed → (wraps to) popFixed
//
// The queue carries no payload. User data lives in user-owned storage,
// indexed by the slot numbers the queue hands out. The queue is a
// coordination structure: it decides who may fill, process, and retire
// which slots, and in what order they become visible.
//
//	q, err := soque.NewQueue(2048, state, pushCB, procCB, popCB)
//
//	// producer side (single owner at a time, guarded by PPEnter)
//	n := q.Push(0)      // free capacity
//	n = q.Push(batch)   // publish batch filled slots
//
//	// processing side (any number of workers)
//	idx, cnt := q.ProcGet(64) // claim up to 64 filled slots
//	// ... work on slots [idx, idx+cnt) mod size ...
//	q.ProcDone(idx, cnt)      // mark the claim complete
//
//	// consumer side (single owner at a time)
//	n = q.Pop(0)        // slots ready to retire, in push order
//	n = q.Pop(n)        // free them
//
// Claims may complete in any order. Retirement advances only along the
// contiguous prefix of completed work, so a slow claim at the retire
// boundary holds back later, already-completed claims — that is the price
// of strict ordering, and the point of it.
//
// # Worker pool
//
// A Pool multiplexes several queues over N worker threads (N >= queue
// count). Worker i is the home worker of queue i and alone performs that
// queue's push/pop callbacks; every worker helps with proc on every queue
// in round-robin. Workers lock their OS thread and can be pinned to CPU
// cores in order.
//
//	pool, err := soque.NewPool(q0, q1).
//		Threads(8).
//		Bind().
//		Batch(64).
//		Threshold(10000).
//		Reaction(50 * time.Millisecond).
//		Open()
//	defer pool.Close()
//
// A conductor thread samples per-worker completion counters every reaction
// interval and publishes the number of "hot" workers (those above the
// threshold rate). Surplus helper workers park while the published count
// stays below their rank, and the count doubles as the waitable hint:
// push/pop callbacks receive waitable == true exactly when no worker is
// currently productive, meaning a blocking read or write is acceptable.
//
// # Callback contract
//
// PushFunc and PopFunc run only on a queue's home worker, inside the
// queue's push/pop gate. ProcFunc runs on any worker, on disjoint claimed
// ranges, concurrently. A callback that blocks while waitable is false
// starves the pipeline; a ProcFunc that never returns stalls retirement at
// its claim's position forever. See the function types for details.
//
// # Transient conditions
//
// Empty and full queues, a failed PPEnter, and a claim race are normal
// outcomes, reported as zero counts or false — never as errors. Errors are
// reserved for construction (ErrQueueSize, ErrNilCallback, ErrNoQueues,
// ErrDuplicateQueue) and framework version mismatch (ErrVersion).
//
// # Race detection
//
// The ordering protocol establishes happens-before through atomic
// operations on cursors and markers with acquire-release semantics, which
// Go's race detector cannot observe. Tests that exercise cross-variable
// ordering are excluded under the race detector via RaceEnabled.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/spin] for CPU pause
// instructions in retry loops, and [code.hybscloud.com/iox] for adaptive
// idle backoff in the worker pool.
package soque

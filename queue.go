// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Per-slot marker states. Every slot cycles
// empty → filled → processed → empty.
const (
	markerEmpty uint64 = iota
	markerFilled
	markerProcessed
)

// Queue is a bounded strict-order staged ring.
//
// Slots move through three phases: a producer fills them (Push), workers
// claim and process them in parallel (ProcGet/ProcDone), and a consumer
// retires them in push order (Pop). The queue stores only per-slot state
// markers; payload lives in user memory indexed by slot number.
//
// Cursors are free-running counters; a slot index is cursor mod size. They
// advance in ring order popFixed ≤ procFixed ≤ procRun ≤ pushFixed with at
// most size−1 slots outstanding, so pushFixed == popFixed unambiguously
// means empty.
//
// Push and Pop are single-owner operations arbitrated by the PPEnter gate.
// ProcGet and ProcDone are safe from any number of workers.
type Queue struct {
	_         pad
	pushFixed atomix.Uint64 // next slot the producer fills
	_         pad
	procRun   atomix.Uint64 // next slot not yet handed to a processor
	_         pad
	procFixed atomix.Uint64 // retire boundary: contiguous completed prefix
	_         pad
	popFixed  atomix.Uint64 // next slot the consumer frees
	_         pad
	procLock  atomix.Uint64 // serialises retire-boundary scans
	_         pad
	ppLock    atomix.Uint64 // push/pop ownership gate
	_         pad

	// Read-only after NewQueue.
	size   uint64
	arg    any
	pushCB PushFunc
	procCB ProcFunc
	popCB  PopFunc

	_       pad
	markers []atomix.Uint64 // one state word per slot
}

// NewQueue creates a strict-order queue with the given ring size and user
// callbacks. The ring holds at most size−1 outstanding items; one slot is
// permanently reserved to distinguish full from empty.
//
// arg is opaque: stored once, passed back on every callback.
func NewQueue(size int, arg any, push PushFunc, proc ProcFunc, pop PopFunc) (*Queue, error) {
	if size < 2 {
		return nil, ErrQueueSize
	}
	if push == nil || proc == nil || pop == nil {
		return nil, ErrNilCallback
	}

	return &Queue{
		size:    uint64(size),
		arg:     arg,
		pushCB:  push,
		procCB:  proc,
		popCB:   pop,
		markers: make([]atomix.Uint64, size),
	}, nil
}

// Size returns the ring size. Usable capacity is Size()−1.
func (q *Queue) Size() int {
	return int(q.size)
}

// PPEnter attempts to acquire the queue's push/pop gate. It returns false
// without blocking when another thread holds it. The holder is the queue's
// owner for push and pop until PPLeave.
func (q *Queue) PPEnter() bool {
	return q.ppLock.CompareAndSwapAcqRel(0, 1)
}

// PPLeave releases the push/pop gate acquired by PPEnter.
func (q *Queue) PPLeave() {
	q.ppLock.StoreRelease(0)
}

// Push extends the filled region of the ring. Callers must hold the
// push/pop gate.
//
// Push(0) reports the empty capacity without advancing. Push(n) with n > 0
// marks up to n slots filled, starting at the push cursor, and returns how
// many it actually pushed. The corresponding payload must already be in
// user storage: the cursor publish is what makes the slots claimable.
func (q *Queue) Push(n int) int {
	pushF := q.pushFixed.LoadRelaxed() // single writer under the gate
	popF := q.popFixed.LoadAcquire()

	free := q.size - 1 - (pushF - popF)
	if n <= 0 {
		return int(free)
	}

	cnt := uint64(n)
	if cnt > free {
		cnt = free
	}
	if cnt == 0 {
		return 0
	}

	for i := uint64(0); i < cnt; i++ {
		m := &q.markers[(pushF+i)%q.size]
		if m.LoadRelaxed() != markerEmpty {
			panic("soque: push into non-empty slot")
		}
		m.StoreRelaxed(markerFilled)
	}

	// Marker writes precede the cursor publish.
	q.pushFixed.StoreRelease(pushF + cnt)
	return int(cnt)
}

// ProcGet claims a batch of up to n filled slots for processing and
// returns the claim's starting slot index and count. A zero count means
// nothing is claimable. Safe from any number of workers: a single CAS on
// the claim cursor linearises assignment, so concurrent claims never
// overlap.
//
// ProcGet(0) reports the claimable count without advancing.
func (q *Queue) ProcGet(n int) (index, count int) {
	sw := spin.Wait{}
	for {
		pr := q.procRun.LoadAcquire()
		pushF := q.pushFixed.LoadAcquire()

		avail := pushF - pr
		if n <= 0 {
			return int(pr % q.size), int(avail)
		}
		if avail == 0 {
			return 0, 0
		}

		cnt := uint64(n)
		if cnt > avail {
			cnt = avail
		}

		if q.procRun.CompareAndSwapAcqRel(pr, pr+cnt) {
			return int(pr % q.size), int(cnt)
		}
		sw.Once()
	}
}

// ProcDone completes a claim previously returned by ProcGet, marking its
// slots processed. When the claim sits at the retire boundary the caller
// also advances the boundary over the contiguous completed prefix, making
// the slots — and any later, already-completed claims — ready for Pop.
func (q *Queue) ProcDone(index, count int) {
	if count <= 0 {
		return
	}

	for i := uint64(0); i < uint64(count); i++ {
		m := &q.markers[(uint64(index)+i)%q.size]
		if m.LoadRelaxed() != markerFilled {
			panic("soque: proc_done on unclaimed slot")
		}
		m.StoreRelease(markerProcessed)
	}

	// Only the claim at the boundary can extend the completed prefix.
	// Later claims leave their markers for a boundary carrier to collect.
	if uint64(index) == q.procFixed.LoadAcquire()%q.size {
		q.retire(true)
	}
}

// Pop retires processed slots in push order. Callers must hold the
// push/pop gate.
//
// Pop first advances the retire boundary over the contiguous completed
// prefix. Pop(0) then reports the ready count without freeing anything.
// Pop(n) with n > 0 frees up to n ready slots and returns how many it
// retired.
func (q *Queue) Pop(n int) int {
	q.retire(false)

	popF := q.popFixed.LoadRelaxed() // single writer under the gate
	procF := q.procFixed.LoadAcquire()

	ready := procF - popF
	if n <= 0 {
		return int(ready)
	}

	cnt := uint64(n)
	if cnt > ready {
		cnt = ready
	}
	if cnt == 0 {
		return 0
	}

	for i := uint64(0); i < cnt; i++ {
		m := &q.markers[(popF+i)%q.size]
		if m.LoadRelaxed() != markerProcessed {
			panic("soque: pop of unprocessed slot")
		}
		m.StoreRelaxed(markerEmpty)
	}

	// Marker writes precede the cursor publish.
	q.popFixed.StoreRelease(popF + cnt)
	return int(cnt)
}

// retire advances the retire boundary over the contiguous run of processed
// markers, stopping at the claim cursor. The scan runs under procLock; a
// boundary-carrying ProcDone spins hot for the flag, while Pop backs off
// between attempts.
func (q *Queue) retire(carrier bool) {
	if carrier {
		for !q.procLock.CompareAndSwapAcqRel(0, 1) {
		}
	} else {
		sw := spin.Wait{}
		for !q.procLock.CompareAndSwapAcqRel(0, 1) {
			sw.Once()
		}
	}

	procF := q.procFixed.LoadRelaxed()
	procR := q.procRun.LoadAcquire()
	for procF != procR && q.markers[procF%q.size].LoadAcquire() == markerProcessed {
		procF++
	}
	q.procFixed.StoreRelease(procF)

	q.procLock.StoreRelease(0)
}

// Close releases the queue. The ring holds no resources beyond its marker
// array, so Close only exists for symmetry with the framework table; the
// queue must not be used afterwards. Slots left filled by a discarded
// partial push are not drained — markers start empty again at the next
// NewQueue.
func (q *Queue) Close() {}

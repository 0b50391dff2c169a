// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/soque"
)

// =============================================================================
// Queue Stress Tests
//
// These drive the claim protocol from goroutine fleets. They rely on
// happens-before established through atomic cursor/marker orderings, which
// the race detector cannot observe; they skip under it.
// =============================================================================

// TestConcurrentClaimsDisjoint verifies that concurrent ProcGet calls never
// return overlapping ranges and that every pushed slot is claimed exactly
// once.
func TestConcurrentClaimsDisjoint(t *testing.T) {
	if soque.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}

	const (
		size       = 1024
		total      = 50000
		numWorkers = 8
		timeout    = 10 * time.Second
	)

	q, err := soque.NewQueue(size, nil, nopPush, nopProc, nopPop)
	if err != nil {
		t.Fatal(err)
	}

	// One claim counter per pushed item; each must end at exactly 1.
	claims := make([]atomix.Int32, total)

	var processed atomix.Int64
	var stop atomix.Bool
	var wg sync.WaitGroup

	// pushBase[slot] maps a live slot to its item ordinal. Written by the
	// owner before the cursor publish, read by claimers after it.
	pushBase := make([]uint64, size)

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for !stop.Load() {
				idx, cnt := q.ProcGet(16)
				if cnt == 0 {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				for i := range cnt {
					claims[pushBase[(idx+i)%size]].Add(1)
				}
				q.ProcDone(idx, cnt)
				processed.Add(int64(cnt))
			}
		}()
	}

	// Owner: push and pop from the test goroutine.
	deadline := time.Now().Add(timeout)
	pushed, popped := 0, 0
	for popped < total {
		if time.Now().After(deadline) {
			t.Fatalf("timeout: pushed=%d popped=%d processed=%d",
				pushed, popped, processed.Load())
		}

		if pushed < total {
			n := min(q.Push(0), 37, total-pushed)
			for i := range n {
				pushBase[(pushed+i)%size] = uint64(pushed + i)
			}
			q.Push(n)
			pushed += n
		}

		popped += q.Pop(q.Pop(0))
	}

	stop.Store(true)
	wg.Wait()

	if got := processed.Load(); got != total {
		t.Fatalf("conservation: processed=%d, want %d", got, total)
	}
	for i := range claims {
		if got := claims[i].Load(); got != 1 {
			t.Fatalf("item %d claimed %d times, want 1", i, got)
		}
	}
}

// TestStrictOrderConcurrent verifies the fundamental property under
// out-of-order completion: workers process claims with random delays, yet
// the retired sequence equals the pushed sequence.
func TestStrictOrderConcurrent(t *testing.T) {
	if soque.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}
	if testing.Short() {
		t.Skip("skip: slow")
	}

	const (
		size       = 1024
		total      = 10000
		numWorkers = 4
		procMark   = uint64(1) << 32
		timeout    = 30 * time.Second
	)

	payload := make([]uint64, size)
	q, err := soque.NewQueue(size, nil, nopPush, nopProc, nopPop)
	if err != nil {
		t.Fatal(err)
	}

	var stop atomix.Bool
	var wg sync.WaitGroup

	for w := range numWorkers {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			backoff := iox.Backoff{}
			for !stop.Load() {
				idx, cnt := q.ProcGet(16)
				if cnt == 0 {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				for i := range cnt {
					payload[(idx+i)%size] += procMark
					time.Sleep(time.Duration(rng.Intn(100)) * time.Microsecond)
				}
				q.ProcDone(idx, cnt)
			}
		}(int64(w) + 1)
	}

	deadline := time.Now().Add(timeout)
	pushed, popped := 0, 0
	for popped < total {
		if time.Now().After(deadline) {
			t.Fatalf("timeout: pushed=%d popped=%d", pushed, popped)
		}

		if pushed < total {
			n := min(q.Push(0), 64, total-pushed)
			for i := range n {
				payload[(pushed+i)%size] = uint64(pushed + i)
			}
			q.Push(n)
			pushed += n
		}

		ready := q.Pop(0)
		for i := range ready {
			want := uint64(popped+i) + procMark
			if got := payload[(popped+i)%size]; got != want {
				t.Fatalf("retired slot %d: got %#x, want %#x (order violated)",
					popped+i, got, want)
			}
		}
		popped += q.Pop(ready)
	}

	stop.Store(true)
	wg.Wait()
}

// TestHeadroomConcurrent verifies the one-slot headroom invariant while
// claims churn: the owner can never overfill the ring.
func TestHeadroomConcurrent(t *testing.T) {
	if soque.RaceEnabled {
		t.Skip("skip: cross-variable memory ordering")
	}

	const (
		size    = 64
		rounds  = 20000
		timeout = 10 * time.Second
	)

	q, err := soque.NewQueue(size, nil, nopPush, nopProc, nopPop)
	if err != nil {
		t.Fatal(err)
	}

	var stop atomix.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for !stop.Load() {
			idx, cnt := q.ProcGet(8)
			if cnt == 0 {
				backoff.Wait()
				continue
			}
			backoff.Reset()
			q.ProcDone(idx, cnt)
		}
	}()

	deadline := time.Now().Add(timeout)
	outstanding := 0
	for n := 0; n < rounds; n++ {
		if time.Now().After(deadline) {
			t.Fatalf("timeout at round %d", n)
		}
		pushedNow := q.Push(size) // ask for more than fits
		outstanding += pushedNow
		if outstanding > size-1 {
			t.Fatalf("round %d: %d outstanding items in a size-%d ring", n, outstanding, size)
		}
		outstanding -= q.Pop(q.Pop(0))
	}

	stop.Store(true)
	wg.Wait()
}

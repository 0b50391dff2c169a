// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque

import "time"

// Stats is a read-only telemetry snapshot of a pool.
type Stats struct {
	// WorkersCount is the hot-worker count the conductor last published.
	WorkersCount int
	// Rates holds each worker's items/s over the last conductor interval.
	Rates []uint64
}

// Stats returns the pool's current telemetry snapshot.
func (p *Pool) Stats() Stats {
	s := Stats{
		WorkersCount: int(p.workersCount.Load()),
		Rates:        make([]uint64, len(p.workers)),
	}
	for w := range p.workers {
		s.Rates[w] = p.workers[w].rate.Load()
	}
	return s
}

// conduct runs the conductor thread: a pure observer that samples the
// per-worker speed counters every reaction interval, estimates items/s per
// worker, and publishes the hot-worker count. It never touches queue
// state.
func (p *Pool) conduct() {
	defer p.wg.Done()

	prev := make([]uint64, p.threads)
	last := time.Now()

	for !p.shutdown.Load() {
		time.Sleep(time.Duration(p.reaction.Load()))

		now := time.Now()
		elapsed := now.Sub(last).Seconds()
		last = now
		if elapsed <= 0 {
			continue
		}

		threshold := p.threshold.Load()
		hot := 0
		trickle := false
		for w := range p.workers {
			cur := p.workers[w].speed.Load()
			rate := uint64(float64(cur-prev[w]) / elapsed) // wrap-safe delta
			prev[w] = cur
			p.workers[w].rate.Store(rate)

			if rate > threshold {
				hot++
			} else if rate > threshold/100 {
				trickle = true
			}
		}
		// A pipeline that is active but slow still deserves one hot
		// worker; otherwise helpers and waitable would flap at low rates.
		if hot == 0 && trickle {
			hot = 1
		}
		p.workersCount.Store(int64(hot))
	}
	p.workersCount.Store(0)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// soque-bench drives a pool of strict-order queues with synthetic
// callbacks and prints per-second throughput. The proc callback burns
// proctsc iterations of busy work per item; push and pop burn a tenth of
// that, imitating lighter I/O edges.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/soque"
	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
)

var (
	app          = kingpin.New("soque-bench", "Throughput benchmark for strict-order queues.")
	queueSize    = app.Arg("queue_size", "Ring size per queue.").Default("2048").Int()
	queueCount   = app.Arg("queue_count", "Number of queues.").Default("1").Int()
	threadsCount = app.Arg("threads_count", "Worker threads (0 = hardware concurrency).").Default("16").Int()
	bind         = app.Arg("bind", "Pin workers to CPU cores (0/1).").Default("1").Int()
	batch        = app.Arg("batch", "Per-claim batch size.").Default("64").Int()
	threshold    = app.Arg("threshold", "Hot-worker threshold, items/s.").Default("10000").Int()
	reaction     = app.Arg("reaction", "Conductor reaction interval, ms.").Default("50").Int()
	proctsc      = app.Arg("proctsc", "Busy-work iterations per processed item.").Default("1000").Int()
)

var (
	procCount atomix.Uint64
	sink      atomix.Uint64
)

// burn spins for iters iterations of trivial work, a portable stand-in
// for an rdtsc-bounded delay.
func burn(iters int) {
	var s uint64
	for i := 0; i < iters; i++ {
		s += uint64(i)
	}
	sink.Add(s)
}

func ioCB(arg any, count int, waitable bool) int {
	if *proctsc > 0 {
		burn(*proctsc * count / 10)
	}
	return count
}

func procCB(arg any, index, count int) {
	procCount.Add(uint64(count))
	if *proctsc > 0 {
		burn(*proctsc * count)
	}
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))

	soq := soque.GetFramework()
	drift, err := soq.Compatible(soque.Major, soque.Minor)
	if err != nil {
		logger.Log("msg", "framework rejected", "err", err)
		os.Exit(1)
	}
	if drift {
		logger.Log("msg", "framework minor version drift", "have", soq.Minor, "want", soque.Minor)
	}

	logger.Log(
		"queue_size", *queueSize,
		"queue_count", *queueCount,
		"threads_count", *threadsCount,
		"bind", *bind,
		"batch", *batch,
		"threshold", *threshold,
		"reaction_ms", *reaction,
		"proctsc", *proctsc,
	)

	queues := make([]*soque.Queue, *queueCount)
	for i := range queues {
		q, err := soq.Open(*queueSize, nil, ioCB, procCB, ioCB)
		if err != nil {
			logger.Log("msg", "queue open failed", "err", err)
			os.Exit(1)
		}
		queues[i] = q
	}

	pool, err := soq.ThreadsOpen(*threadsCount, *bind != 0, queues)
	if err != nil {
		logger.Log("msg", "pool open failed", "err", err)
		os.Exit(1)
	}
	soq.ThreadsTune(pool, *batch, *threshold, time.Duration(*reaction)*time.Millisecond)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	time.Sleep(time.Second) // warming

	var moment, approx float64
	n := 0
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		save := procCount.Load()
		select {
		case <-stop:
			pool.Close()
			for _, q := range queues {
				soq.Close(q)
			}
			return
		case <-tick.C:
		}

		momentPrev := moment
		approxPrev := approx
		moment = float64(procCount.Load() - save)
		approx = (approx*float64(n) + moment) / float64(n+1)
		n++

		fmt.Printf("Mpps:   %.03f (%+.03f)   ~   %.03f (%+.03f)   workers: %d\n",
			moment/1e6, (moment-momentPrev)/1e6,
			approx/1e6, (approx-approxPrev)/1e6,
			pool.WorkersCount())
	}
}

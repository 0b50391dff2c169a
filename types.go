// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque

// PushFunc is the ingress callback.
//
// The pool invokes it only from the home worker of the queue, inside the
// push/pop gate, with the number of empty slots currently available. The
// callback writes up to that many items into user storage — the slots
// being filled start at the queue's push cursor and wrap at the ring size —
// and returns how many it actually produced. The return value must not
// exceed available.
//
// When waitable is true no worker is currently productive and the callback
// may block on its source. When waitable is false it must return promptly:
// helpers are running and a blocked callback starves them of new work.
type PushFunc func(arg any, available int, waitable bool) int

// ProcFunc is the processing callback.
//
// It runs on any worker, concurrently with other claims, and must perform
// work exactly on slots [index, index+count) with wrap at the ring size.
// Touching slots outside the claimed range corrupts neighbouring claims.
type ProcFunc func(arg any, index, count int)

// PopFunc is the egress callback.
//
// Same home-worker contract as PushFunc. ready is the number of processed
// items available for retirement, in push order, starting at the queue's
// pop cursor. The callback consumes up to ready items from user storage and
// returns how many it retired. The return value must not exceed ready.
type PopFunc func(arg any, ready int, waitable bool) int

// pad is cache line padding to prevent false sharing.
type pad [64]byte

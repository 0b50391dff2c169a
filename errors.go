// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque

import "errors"

// ErrQueueSize indicates a queue size below the smallest legal ring.
//
// The ring reserves one slot to disambiguate full from empty, so a size of
// 1 could never hold an item; 2 is the minimum.
var ErrQueueSize = errors.New("soque: queue size must be >= 2")

// ErrNilCallback indicates a missing push, proc, or pop callback.
var ErrNilCallback = errors.New("soque: nil callback")

// ErrNoQueues indicates a pool opened over an empty queue list.
var ErrNoQueues = errors.New("soque: pool needs at least one queue")

// ErrDuplicateQueue indicates the same queue listed twice in a pool. Each
// queue has exactly one home worker; a duplicate would give it two.
var ErrDuplicateQueue = errors.New("soque: duplicate queue in pool")

// ErrVersion indicates a framework major version mismatch.
//
// A client built against a different major version must not use the table.
// Minor drift is not an error; Framework.Compatible reports it separately
// so the caller may warn.
var ErrVersion = errors.New("soque: framework major version mismatch")

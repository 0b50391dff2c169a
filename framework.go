// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soque

import "time"

// Framework table version. Clients built against a different major version
// must not use the table; minor drift is tolerated.
const (
	Major = 1
	Minor = 0
)

// Framework is the versioned operation table exposed to clients that bind
// the library dynamically. It carries every queue and pool operation as a
// plain function value, so a loader shim can hand the whole surface across
// a single symbol.
type Framework struct {
	Major int
	Minor int

	Open     func(size int, arg any, push PushFunc, proc ProcFunc, pop PopFunc) (*Queue, error)
	Push     func(q *Queue, n int) int
	ProcGet  func(q *Queue, n int) (index, count int)
	ProcDone func(q *Queue, index, count int)
	Pop      func(q *Queue, n int) int
	PPEnter  func(q *Queue) bool
	PPLeave  func(q *Queue)
	Close    func(q *Queue)

	ThreadsOpen  func(threads int, bind bool, queues []*Queue) (*Pool, error)
	ThreadsTune  func(p *Pool, batch, threshold int, reaction time.Duration)
	ThreadsClose func(p *Pool)
}

// framework is the process-static table. Read-only after init.
var framework = Framework{
	Major: Major,
	Minor: Minor,

	Open:     NewQueue,
	Push:     (*Queue).Push,
	ProcGet:  (*Queue).ProcGet,
	ProcDone: (*Queue).ProcDone,
	Pop:      (*Queue).Pop,
	PPEnter:  (*Queue).PPEnter,
	PPLeave:  (*Queue).PPLeave,
	Close:    (*Queue).Close,

	ThreadsOpen:  ThreadsOpen,
	ThreadsTune:  (*Pool).Tune,
	ThreadsClose: (*Pool).Close,
}

// GetFramework returns the process-static framework table.
func GetFramework() *Framework {
	return &framework
}

// Compatible checks the table against the version a client was built for.
// A major mismatch returns ErrVersion. Minor drift is reported through the
// drift result so the caller may warn without rejecting the table.
func (f *Framework) Compatible(major, minor int) (drift bool, err error) {
	if f.Major != major {
		return false, ErrVersion
	}
	return f.Minor != minor, nil
}

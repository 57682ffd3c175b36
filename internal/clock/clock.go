// Package clock is the injected time source behind the connection core's
// activity/pong deadlines (spec design note: "modelled as monotonic
// deadlines re-read from a clock source injected for testability, not as
// platform timer objects"). Grounded on the teacher's constructor-injection
// style: every timing parameter in NewUpstreamWSClient is an argument, never
// a package global or a bare time.Now() call buried in the logic.
package clock

import "time"

// Clock produces the current time and schedules deferred work.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the minimal handle the core needs back from AfterFunc.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Real is the production Clock, backed by the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return &realTimer{t: time.AfterFunc(d, f)}
}

type realTimer struct{ t *time.Timer }

func (r *realTimer) Stop() bool                 { return r.t.Stop() }
func (r *realTimer) Reset(d time.Duration) bool { return r.t.Reset(d) }

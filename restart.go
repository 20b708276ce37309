// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

import "sync/atomic"

// Restart names established by the signal entry points.
const (
	RestartMuffle        = "muffle"
	RestartMuffleWarning = "muffleWarning"
	RestartMuffleMessage = "muffleMessage"
)

// Restart is a resumption point established for the dynamic extent of one
// frame: a signal operation for the muffle restarts, or a [WithRestart] body.
//
// A Restart is one-shot. Once its frame has returned, invoking it raises a
// [ClassUsageError] error instead of transferring control.
type Restart struct {
	used  atomic.Uintptr
	name  string
	cond  *Condition
	stack *Stack
}

// Name returns the restart name.
func (r *Restart) Name() string { return r.name }

// Condition returns the condition the restart is associated with, or nil
// for restarts that apply to any condition.
func (r *Restart) Condition() *Condition { return r.cond }

// Active reports whether the establishing frame is still running.
func (r *Restart) Active() bool { return r.used.Load() == 0 }

// Invoke transfers control to the frame that established r, passing args.
// It does not return.
func (r *Restart) Invoke(args ...any) {
	if !r.Active() {
		r.stack.Error(usageError("restart "+r.name+" is no longer active", "restart", r.name))
	}
	panic(&restartUnwind{target: r, args: args})
}

func (s *Stack) establish(name string, c *Condition) (*Restart, int) {
	r := &Restart{name: name, cond: c, stack: s}
	depth := len(s.restarts)
	s.restarts = append(s.restarts, r)
	return r, depth
}

func (s *Stack) conclude(r *Restart, depth int) {
	r.used.Store(1)
	if depth < len(s.restarts) {
		clear(s.restarts[depth:])
		s.restarts = s.restarts[:depth]
	}
}

// withMuffle runs fn with a muffle restart for c established, reporting
// whether the restart was invoked.
func (s *Stack) withMuffle(name string, c *Condition, fn func()) (muffled bool) {
	r, depth := s.establish(name, c)
	defer func() {
		s.conclude(r, depth)
		if v := recover(); v != nil {
			if u, ok := v.(*restartUnwind); ok && u.target == r {
				muffled = true
				return
			}
			panic(v)
		}
	}()
	fn()
	return false
}

// WithRestart runs body with a restart called name established. If the
// restart is invoked while body runs, body is abandoned and onRestart is
// called with the invocation arguments; its result is returned.
//
// Example:
//
//	v := cond.WithRestart(s, "use_value", func() int {
//	    return parse(input)
//	}, func(args ...any) int {
//	    return args[0].(int)
//	})
func WithRestart[A any](s *Stack, name string, body func() A, onRestart func(args ...any) A) A {
	r, depth := s.establish(name, nil)
	var (
		result  A
		invoked bool
		args    []any
	)
	func() {
		defer func() {
			s.conclude(r, depth)
			if v := recover(); v != nil {
				if u, ok := v.(*restartUnwind); ok && u.target == r {
					invoked = true
					args = u.args
					return
				}
				panic(v)
			}
		}()
		result = body()
	}()
	if invoked {
		return onRestart(args...)
	}
	return result
}

// FindRestart returns the innermost active restart called name that applies
// to c: either associated with c or with no condition. A nil c matches any
// restart. Returns nil when none exists.
func (s *Stack) FindRestart(name string, c *Condition) *Restart {
	for i := len(s.restarts) - 1; i >= 0; i-- {
		r := s.restarts[i]
		if r.name != name {
			continue
		}
		if c == nil || r.cond == nil || r.cond == c {
			return r
		}
	}
	return nil
}

// ComputeRestarts returns the names of the active restarts applicable to c,
// innermost first.
func (s *Stack) ComputeRestarts(c *Condition) []string {
	var names []string
	for i := len(s.restarts) - 1; i >= 0; i-- {
		r := s.restarts[i]
		if c == nil || r.cond == nil || r.cond == c {
			names = append(names, r.name)
		}
	}
	return names
}

// InvokeRestart invokes the innermost active restart called name.
// When none exists it raises a [ClassUsageError] error.
func (s *Stack) InvokeRestart(name string, args ...any) {
	r := s.FindRestart(name, nil)
	if r == nil {
		s.Error(usageError("no active restart "+name, "restart", name))
	}
	r.Invoke(args...)
}

// Muffle stops the signal operation that is delivering c: the remaining
// handler search is skipped and the signal call returns to its caller.
// Muffle is meant for in-place handlers and does not return.
//
// Muffling an error raises a [ClassUsageError] error, as does muffling when
// no muffle restart for c's family is active.
func (s *Stack) Muffle(c *Condition) {
	fam := c.Family()
	if fam == FamilyError {
		s.Error(usageError("cannot muffle an error", "condition", c.message))
	}
	name := muffleRestart(fam)
	var r *Restart
	for i := len(s.restarts) - 1; i >= 0; i-- {
		if s.restarts[i].name == name && s.restarts[i].cond == c {
			r = s.restarts[i]
			break
		}
	}
	if r == nil {
		s.Error(usageError("no active restart "+name+" for condition", "restart", name, "condition", c.message))
	}
	r.Invoke()
}

func muffleRestart(f Family) string {
	switch f {
	case FamilyWarning:
		return RestartMuffleWarning
	case FamilyMessage:
		return RestartMuffleMessage
	default:
		return RestartMuffle
	}
}

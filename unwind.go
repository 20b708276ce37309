// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

import (
	"fmt"
	"runtime/debug"
)

// Non-local transfers are panics carrying one of the values below. Each is
// recovered only by the frame it targets; every other frame re-panics it,
// so deferred cleanups run innermost first along the way.

// exitUnwind transfers control to the TryCatch that owns target.
type exitUnwind struct {
	target  *registration
	binding int
	cond    *Condition
}

// restartUnwind transfers control to the frame that established target.
type restartUnwind struct {
	target *Restart
	args   []any
}

// abort terminates the current operation for an unhandled error or
// interrupt. It is recovered by Run and Eval.
type abort struct {
	cond *Condition
}

func (a *abort) Error() string {
	if a.cond.Family() == FamilyInterrupt {
		return "cond: unhandled interrupt: " + a.cond.message
	}
	return "cond: unhandled error: " + a.cond.message
}

func (a *abort) Unwrap() error { return a.cond }

// Run executes body as an operation boundary. It returns nil when body
// completes, the aborting condition when an error or interrupt was not
// caught, and a [ClassPanic] error condition when body panicked with a
// foreign value. Unwinds targeting scopes outside body pass through.
func (s *Stack) Run(body func()) (err error) {
	_, err = Eval(s, func() struct{} {
		body()
		return struct{}{}
	})
	return err
}

// Eval is Run for a body that produces a value.
func Eval[A any](s *Stack, body func() A) (result A, err error) {
	depth := len(s.regs)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s.pop(depth)
		switch u := r.(type) {
		case *abort:
			s.opts.logger.Error("operation aborted",
				"class", u.cond.classes[0], "message", u.cond.message)
			err = u.cond
		case *exitUnwind, *restartUnwind:
			panic(r)
		default:
			c := fromPanic(r)
			s.opts.logger.Error("operation panicked", "message", c.message)
			err = c
		}
	}()
	return body(), nil
}

func fromPanic(r any) *Condition {
	msg := fmt.Sprint(r)
	if msg == "" {
		msg = "panic"
	}
	c := build([]Class{ClassPanic, ClassError}, msg, []Field{
		{Key: "value", Val: r},
		{Key: "stack", Val: string(debug.Stack())},
	})
	if e, ok := r.(error); ok {
		c.cause = e
	}
	return c
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cond provides structured condition signaling and handling in Go.
//
// A [Condition] is an immutable value describing one event: an ordered
// sequence of class tags ending in "condition", a required message, an
// optional origin [Call] and ordered metadata. Code signals conditions
// through a [Stack], the handler stack of one execution context, and
// callers decide what happens by registering handlers around the code
// that signals.
//
// # Families
//
// Every condition belongs to a family, the first of error, warning,
// message or interrupt in its classes, or the generic condition family:
//
//   - error: aborts the current operation unless an exiting handler catches it
//   - warning: recorded (see [WarningPolicy]) and execution continues
//   - message: written to the message writer and execution continues
//   - interrupt: cancellation; aborts like an error, caught only by
//     handlers that name [ClassInterrupt]
//   - condition: ignored when unhandled
//
// Custom conditions prepend classes ahead of a family root:
//
//	c := cond.NewError("must be a number", "arg", "x").
//	    Subclass("bad_argument")
//	// classes: [bad_argument error condition]
//
// # Handler Registration
//
// Two scoping primitives push a registration for the dynamic extent of a
// body and pop it on every exit path:
//
//   - [TryCatch], [TryCatchFinally]: exiting handlers. A match abandons the
//     body at the signal point and returns the handler's result.
//   - [WithCallingHandlers]: in-place handlers. A match runs the handler at
//     the signal point; the body resumes afterwards.
//
// Matching walks registrations innermost first. Inside one registration the
// bindings are tested in declared order and the first one whose class the
// condition inherits wins, so specific classes must be declared before the
// generic ones.
//
// # Signaling
//
//   - [Stack.Signal]: dispatch by family
//   - [Stack.Error], [Stack.Warning], [Stack.Message]: family entry points
//   - [Stack.Interrupt], [Stack.CheckInterrupt]: cancellation
//   - [Stack.Stopf], [Stack.Warnf], [Stack.Messagef]: formatted shorthands
//   - [Stack.Check]: raise a Go error as an error condition
//
// # Muffling and Restarts
//
// Warning, message and generic signals establish a one-shot muffle
// [Restart] for the duration of the signal. An in-place handler calls
// [Stack.Muffle] to stop propagation; the signal call then returns and the
// signaling code continues. Errors cannot be muffled.
//
// [WithRestart] establishes named restarts for callers' own recovery
// strategies, invoked with [Stack.InvokeRestart].
//
// # Boundaries
//
// [Stack.Run] and [Eval] mark the boundary of an operation: an unhandled
// error or interrupt aborts up to the nearest boundary and is returned as
// the *Condition error. Foreign panics become [ClassPanic] errors there.
//
// # Example
//
//	s := cond.NewStack()
//	v := cond.TryCatch(s, func() int {
//	    s.Messagef("before")
//	    s.Stopf("boom")
//	    return 1 // never reached
//	}, cond.On(cond.ClassError, func(c *cond.Condition) int {
//	    return 10
//	}))
//	// v == 10
package cond

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Signal raises c through the handler stack according to its family:
// errors go through [Stack.Error], warnings through [Stack.Warning],
// messages through [Stack.Message], interrupts abort like errors. Any other
// condition is offered to the handlers with a [RestartMuffle] restart
// established and Signal returns when no handler takes it.
func (s *Stack) Signal(c *Condition) {
	switch c.Family() {
	case FamilyError:
		s.Error(c)
	case FamilyWarning:
		s.Warning(c)
	case FamilyMessage:
		s.Message(c)
	case FamilyInterrupt:
		s.raise(c)
	default:
		s.opts.logger.Debug("condition signaled", "class", c.classes[0], "message", c.message)
		if s.withMuffle(RestartMuffle, c, func() { s.dispatch(c) }) {
			s.muffled(c)
			return
		}
		s.observe(c, OutcomeUnhandled)
	}
}

// Error raises c as an error. When no exiting handler catches it, the
// current operation is aborted up to the nearest [Stack.Run] or [Eval].
// A generic condition gains the error root; Error never returns.
func (s *Stack) Error(c *Condition) {
	s.raise(c.withRoot(ClassError))
}

// Warning raises c as a warning with a [RestartMuffleWarning] restart
// established. Unhandled warnings follow the stack's [WarningPolicy].
func (s *Stack) Warning(c *Condition) {
	c = c.withRoot(ClassWarning)
	s.opts.logger.Debug("warning signaled", "class", c.classes[0], "message", c.message)
	if s.withMuffle(RestartMuffleWarning, c, func() { s.dispatch(c) }) {
		s.muffled(c)
		return
	}
	s.observe(c, OutcomeUnhandled)
	switch s.opts.policy {
	case WarnIgnore:
	case WarnImmediate:
		fmt.Fprintf(s.opts.out, "Warning: %s\n", c.message)
	case WarnError:
		s.Error(build([]Class{ClassConvertedWarning, ClassError},
			"(converted from warning) "+c.message,
			[]Field{{Key: "warning", Val: c}}))
	default:
		s.opts.logger.Warn("warning recorded", "class", c.classes[0], "message", c.message)
		s.recordWarning(c)
	}
}

// Message raises c as a message with a [RestartMuffleMessage] restart
// established. Unhandled messages are written to the message writer.
func (s *Stack) Message(c *Condition) {
	c = c.withRoot(ClassMessage)
	s.opts.logger.Debug("message signaled", "class", c.classes[0], "message", c.message)
	if s.withMuffle(RestartMuffleMessage, c, func() { s.dispatch(c) }) {
		s.muffled(c)
		return
	}
	s.observe(c, OutcomeUnhandled)
	io.WriteString(s.opts.out, c.message+"\n")
}

// Interrupt raises an interrupt carrying cause. Only exiting handlers bound
// to [ClassInterrupt] (or a class it inherits) stop it; otherwise the
// current operation is aborted. Interrupt never returns.
func (s *Stack) Interrupt(cause error) {
	s.raise(newInterrupt(cause))
}

// CheckInterrupt raises an interrupt when ctx is done, with the context's
// cause. It returns normally otherwise.
func (s *Stack) CheckInterrupt(ctx context.Context) {
	if ctx.Err() != nil {
		s.Interrupt(context.Cause(ctx))
	}
}

// Stopf raises an error condition with a formatted message.
func (s *Stack) Stopf(format string, args ...any) {
	s.raise(NewError(fmt.Sprintf(format, args...)).WithCall(Caller(1)))
}

// Warnf raises a warning with a formatted message.
func (s *Stack) Warnf(format string, args ...any) {
	s.Warning(NewWarning(fmt.Sprintf(format, args...)).WithCall(Caller(1)))
}

// Messagef raises a message with a formatted text.
func (s *Stack) Messagef(format string, args ...any) {
	s.Message(NewMessage(fmt.Sprintf(format, args...)))
}

// Check raises err as an error condition. A nil err is a no-op; a
// *Condition found in err's chain is signaled as is; any other error is
// wrapped as the cause of a new error condition.
func (s *Stack) Check(err error) {
	if err == nil {
		return
	}
	var c *Condition
	if errors.As(err, &c) {
		s.Signal(c)
		return
	}
	s.raise(NewError(err.Error()).WithCause(err))
}

// raise walks the handlers for an error or interrupt and aborts when no
// exiting handler takes it.
func (s *Stack) raise(c *Condition) {
	s.opts.logger.Debug("condition raised", "class", c.classes[0], "message", c.message)
	s.dispatch(c)
	s.observe(c, OutcomeUnhandled)
	panic(&abort{cond: c})
}

func (s *Stack) muffled(c *Condition) {
	s.opts.logger.Debug("condition muffled", "class", c.classes[0], "message", c.message)
	s.observe(c, OutcomeMuffled)
}

// dispatch walks the registrations top-down. Within one registration the
// first binding in declared order whose class c inherits is chosen. An
// exiting match unwinds to its TryCatch; an in-place match runs and the
// walk continues below it. dispatch returns when the walk is exhausted.
func (s *Stack) dispatch(c *Condition) {
	for i := len(s.regs) - 1; i >= 0; i-- {
		r := s.regs[i]
		j := r.match(c)
		if j < 0 {
			continue
		}
		switch r.kind {
		case exiting:
			s.opts.logger.Debug("condition caught", "class", c.classes[0], "binding", r.keys[j])
			s.observe(c, OutcomeCaught)
			panic(&exitUnwind{target: r, binding: j, cond: c})
		case inPlace:
			s.invoke(i, r.handlers[j], c)
		}
	}
}

// invoke runs an in-place handler with only the registrations below index
// i visible, so signals raised by the handler skip its own registration and
// everything above it. The full view is restored on every exit path.
func (s *Stack) invoke(i int, h Handler, c *Condition) {
	saved := s.regs
	s.regs = saved[:i:i]
	defer func() { s.regs = saved }()
	h.Handle(c)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

// Handler binds a class to an in-place handler for [WithCallingHandlers].
// The handler observes the condition; its return is discarded and the
// signaling code resumes unless the handler calls [Stack.Muffle].
type Handler struct {
	Class  Class
	Handle func(c *Condition)
}

// Calling creates an in-place binding.
//
// Example:
//
//	cond.WithCallingHandlers(s, body,
//	    cond.Calling(cond.ClassMessage, func(c *cond.Condition) {
//	        log.Print(c.Message())
//	        s.Muffle(c)
//	    }),
//	)
func Calling(class Class, h func(c *Condition)) Handler {
	return Handler{Class: class, Handle: h}
}

// Catch binds a class to an exiting handler for [TryCatch]. When it matches,
// the body is abandoned and Handle's result becomes the result of TryCatch.
type Catch[A any] struct {
	Class  Class
	Handle func(c *Condition) A
}

// On creates an exiting binding.
//
// Example:
//
//	v := cond.TryCatch(s, body,
//	    cond.On(cond.ClassError, func(c *cond.Condition) int { return -1 }),
//	)
func On[A any](class Class, h func(c *Condition) A) Catch[A] {
	return Catch[A]{Class: class, Handle: h}
}

// dispatchKind selects the control-transfer discipline of a registration.
type dispatchKind uint8

const (
	exiting dispatchKind = iota + 1
	inPlace
)

func (k dispatchKind) String() string {
	switch k {
	case exiting:
		return "exiting"
	case inPlace:
		return "in_place"
	default:
		return "unknown"
	}
}

// registration is one Handler Stack entry. Its address is the scope token:
// unwinds target a registration by pointer identity.
type registration struct {
	kind     dispatchKind
	keys     []Class
	handlers []Handler // inPlace only; exiting bindings stay typed in TryCatch
}

// match returns the index of the first binding, in declared order, whose
// class c inherits; -1 when none matches. Interrupts never match the
// catch-all ClassCondition binding: they are only seen by bindings that
// name ClassInterrupt.
func (r *registration) match(c *Condition) int {
	interrupt := c.Family() == FamilyInterrupt
	for i, k := range r.keys {
		if interrupt && k == ClassCondition {
			continue
		}
		if c.Inherits(k) {
			return i
		}
	}
	return -1
}

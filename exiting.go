// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

// TryCatch runs body with an exiting registration for catches.
//
// When a signaled condition reaches this registration and matches one of the
// catches, body is abandoned at the signal point, every scope in between is
// unwound (running its deferred cleanups innermost first), the registration
// is popped, and the matching handler runs in TryCatch's own frame. Its
// result is returned. Otherwise body's result is returned.
//
// Catches are tested in declared order; put specific classes before the
// generic ones they inherit.
func TryCatch[A any](s *Stack, body func() A, catches ...Catch[A]) A {
	return tryCatch(s, body, nil, catches)
}

// TryCatchFinally is TryCatch with a finally action that runs exactly once
// on every exit path: normal completion, a handled exit (after the handler),
// or a condition or panic propagating past this frame.
func TryCatchFinally[A any](s *Stack, body func() A, finally func(), catches ...Catch[A]) A {
	return tryCatch(s, body, finally, catches)
}

func tryCatch[A any](s *Stack, body func() A, finally func(), catches []Catch[A]) (result A) {
	if finally != nil {
		defer finally()
	}
	if len(catches) == 0 {
		return body()
	}

	reg := acquireRegistration(exiting)
	for _, c := range catches {
		reg.keys = append(reg.keys, c.Class)
	}
	depth := s.push(reg)

	var (
		caught  *Condition
		binding int
	)
	func() {
		defer func() {
			s.pop(depth)
			r := recover()
			if r == nil {
				return
			}
			if u, ok := r.(*exitUnwind); ok && u.target == reg {
				caught, binding = u.cond, u.binding
				return
			}
			releaseRegistration(reg)
			panic(r)
		}()
		result = body()
	}()
	if caught == nil {
		releaseRegistration(reg)
		return result
	}
	releaseRegistration(reg)
	return catches[binding].Handle(caught)
}

// CatchFirst runs body and returns the first condition of any family
// signaled inside it, abandoning body at that point. It returns nil when
// body completes without signaling.
func CatchFirst(s *Stack, body func()) *Condition {
	return TryCatch(s, func() *Condition {
		body()
		return nil
	}, On(ClassCondition, func(c *Condition) *Condition { return c }))
}

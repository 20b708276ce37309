// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

// WithCallingHandlers runs body with an in-place registration for handlers
// and returns body's result.
//
// A matching handler runs at the signal point, without unwinding. After it
// returns, signaling continues with the registrations below this one unless
// the handler called [Stack.Muffle]. While a handler runs, this registration
// and everything pushed above it are hidden, so a handler that signals the
// class it handles does not re-enter itself.
func WithCallingHandlers[A any](s *Stack, body func() A, handlers ...Handler) A {
	if len(handlers) == 0 {
		return body()
	}
	reg := acquireRegistration(inPlace)
	for _, h := range handlers {
		reg.keys = append(reg.keys, h.Class)
		reg.handlers = append(reg.handlers, h)
	}
	depth := s.push(reg)
	defer func() {
		s.pop(depth)
		releaseRegistration(reg)
	}()
	return body()
}

// SuppressWarnings runs body, muffling every warning it signals.
func SuppressWarnings[A any](s *Stack, body func() A) A {
	return WithCallingHandlers(s, body, Calling(ClassWarning, s.Muffle))
}

// SuppressMessages runs body, muffling every message it signals.
func SuppressMessages[A any](s *Stack, body func() A) A {
	return WithCallingHandlers(s, body, Calling(ClassMessage, s.Muffle))
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

// Resource safety on top of the exiting discipline.

// Bracket acquires a resource, uses it and releases it. release runs
// exactly once after use, whether use returns, an exiting handler outside
// Bracket takes a condition raised by use, or an error aborts the operation.
func Bracket[R, A any](s *Stack, acquire func() R, release func(R), use func(R) A) A {
	resource := acquire()
	return TryCatchFinally(s, func() A {
		return use(resource)
	}, func() {
		release(resource)
	})
}

// OnError runs cleanup when body raises an error-family condition, then
// raises the same condition again from OnError's frame. Outer handlers see
// the condition as a fresh signal.
func OnError[A any](s *Stack, body func() A, cleanup func(c *Condition)) A {
	return TryCatch(s, body, On(ClassError, func(c *Condition) A {
		cleanup(c)
		s.Error(c)
		panic("unreachable")
	}))
}

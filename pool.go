// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

import "sync"

// Registration records are pooled: every scoping primitive acquires one on
// entry and releases it after the pop. A released record must not be
// compared against in-flight unwinds; scopes release only after their own
// recover has run.

var registrationPool = sync.Pool{
	New: func() any { return new(registration) },
}

func acquireRegistration(kind dispatchKind) *registration {
	r := registrationPool.Get().(*registration)
	r.kind = kind
	return r
}

func releaseRegistration(r *registration) {
	r.kind = 0
	r.keys = r.keys[:0]
	clear(r.handlers)
	r.handlers = r.handlers[:0]
	registrationPool.Put(r)
}

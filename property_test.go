// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond_test

import (
	"math/rand/v2"
	"testing"

	"code.hybscloud.com/cond"
)

const propertyN = 1000

var propertyClasses = []cond.Class{"a", "b", "c", "d", cond.ClassError, cond.ClassCondition}

// randMessage returns a random non-empty ASCII message of length [1, 8].
func randMessage(rng *rand.Rand) string {
	n := rng.IntN(8) + 1
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rng.IntN(95) + 32) // printable ASCII
	}
	return string(b)
}

// randClasses returns up to n classes drawn from propertyClasses.
func randClasses(rng *rand.Rand, n int) []cond.Class {
	out := make([]cond.Class, rng.IntN(n+1))
	for i := range out {
		out[i] = propertyClasses[rng.IntN(len(propertyClasses))]
	}
	return out
}

// firstMatch is the reference binding choice: the first key c inherits.
func firstMatch(c *cond.Condition, keys []cond.Class) int {
	for i, k := range keys {
		if c.Inherits(k) {
			return i
		}
	}
	return -1
}

// TestPropertyMuffleErrorAlwaysRejected: muffling any error raises a usage error.
func TestPropertyMuffleErrorAlwaysRejected(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	s := cond.NewStack()
	for range propertyN {
		c := cond.NewError(randMessage(rng)).Subclass(randClasses(rng, 3)...)
		err := s.Run(func() { s.Muffle(c) })
		got, ok := err.(*cond.Condition)
		if !ok || !got.Inherits(cond.ClassUsageError) {
			t.Fatalf("muffle %s: got %v, want usage error", c, err)
		}
	}
	if s.Depth() != 0 {
		t.Fatalf("depth %d after muffle attempts", s.Depth())
	}
}

// TestPropertyExitingFirstMatch: TryCatch picks the first binding in
// declared order whose class the condition inherits.
func TestPropertyExitingFirstMatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		c := cond.NewError(randMessage(rng)).Subclass(randClasses(rng, 3)...)
		keys := randClasses(rng, 4)
		catches := make([]cond.Catch[int], len(keys))
		for i, k := range keys {
			catches[i] = cond.On(k, func(*cond.Condition) int { return i })
		}

		s := cond.NewStack()
		got, err := cond.Eval(s, func() int {
			return cond.TryCatch(s, func() int {
				s.Error(c)
				return -2
			}, catches...)
		})
		if err != nil {
			got = -1
		}
		if want := firstMatch(c, keys); got != want {
			t.Fatalf("keys %v, classes %v: got binding %d, want %d", keys, c.Classes(), got, want)
		}
	}
}

// TestPropertyCallingFirstMatch: one in-place binding fires per registration,
// the first in declared order.
func TestPropertyCallingFirstMatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		c := cond.NewWarning(randMessage(rng)).Subclass(randClasses(rng, 3)...)
		keys := randClasses(rng, 4)
		var fired []int
		handlers := make([]cond.Handler, len(keys))
		for i, k := range keys {
			handlers[i] = cond.Calling(k, func(*cond.Condition) { fired = append(fired, i) })
		}

		s := cond.NewStack()
		cond.WithCallingHandlers(s, func() int {
			s.Warning(c)
			return 0
		}, handlers...)

		want := firstMatch(c, keys)
		switch {
		case want < 0 && len(fired) != 0:
			t.Fatalf("keys %v, classes %v: fired %v, want none", keys, c.Classes(), fired)
		case want >= 0 && (len(fired) != 1 || fired[0] != want):
			t.Fatalf("keys %v, classes %v: fired %v, want [%d]", keys, c.Classes(), fired, want)
		}
	}
}

// TestPropertyStackBalance: the stack depth returns to its entry value
// however a nested region is left.
func TestPropertyStackBalance(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	s := cond.NewStack()
	for range propertyN {
		depth := rng.IntN(6) + 1
		mode := rng.IntN(4)
		_ = s.Run(func() { nest(s, depth, mode) })
		if s.Depth() != 0 {
			t.Fatalf("depth %d after nest(%d, mode %d)", s.Depth(), depth, mode)
		}
	}
}

// nest alternates exiting and in-place registrations, then leaves the
// innermost body by returning, erroring, restarting or panicking.
func nest(s *cond.Stack, depth, mode int) int {
	if depth == 0 {
		switch mode {
		case 1:
			s.Error(cond.NewError("leave"))
		case 2:
			s.InvokeRestart("leave")
		case 3:
			panic("leave")
		}
		return 0
	}
	if depth%2 == 0 {
		return cond.TryCatch(s, func() int {
			return nest(s, depth-1, mode)
		}, cond.On(cond.ClassWarning, func(*cond.Condition) int { return 1 }))
	}
	return cond.WithRestart(s, "leave", func() int {
		return cond.WithCallingHandlers(s, func() int {
			return nest(s, depth-1, mode)
		}, cond.Calling(cond.ClassError, func(*cond.Condition) {}))
	}, func(...any) int { return 2 })
}

// TestPropertyWarningCap: at most max warnings are kept and the rest are counted.
func TestPropertyWarningCap(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		n := rng.IntN(20)
		limit := rng.IntN(10) + 1
		s := cond.NewStack(cond.WithMaxWarnings(limit))
		for range n {
			s.Warning(cond.NewWarning(randMessage(rng)))
		}
		if got, want := len(s.Warnings()), min(n, limit); got != want {
			t.Fatalf("n=%d max=%d: kept %d, want %d", n, limit, got, want)
		}
		if got, want := s.DroppedWarnings(), max(0, n-limit); got != want {
			t.Fatalf("n=%d max=%d: dropped %d, want %d", n, limit, got, want)
		}
	}
}

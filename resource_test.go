// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/cond"
)

func TestBracketReleasesOnSuccess(t *testing.T) {
	s := cond.NewStack()
	var trace []string

	got := cond.Bracket(s,
		func() string {
			trace = append(trace, "acquire")
			return "res"
		},
		func(r string) { trace = append(trace, "release "+r) },
		func(r string) int {
			trace = append(trace, "use "+r)
			return 42
		},
	)

	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"acquire", "use res", "release res"}, trace)
}

func TestBracketReleasesOnError(t *testing.T) {
	s := cond.NewStack()
	var trace []string

	got := cond.TryCatch(s, func() int {
		return cond.Bracket(s,
			func() int {
				trace = append(trace, "acquire")
				return 1
			},
			func(int) { trace = append(trace, "release") },
			func(int) int {
				s.Error(cond.NewError("use failed"))
				return 0
			},
		)
	}, cond.On(cond.ClassError, func(c *cond.Condition) int {
		trace = append(trace, "handled")
		return -1
	}))

	assert.Equal(t, -1, got)
	assert.Equal(t, []string{"acquire", "release", "handled"}, trace)
	assert.Zero(t, s.Depth())
}

func TestBracketReleasesOnAbort(t *testing.T) {
	s := cond.NewStack()
	released := false
	err := s.Run(func() {
		cond.Bracket(s, func() int { return 0 }, func(int) { released = true },
			func(int) int {
				s.Error(cond.NewError("fatal"))
				return 0
			})
	})
	require.Error(t, err)
	assert.True(t, released)
}

func TestOnErrorCleansUpAndPropagates(t *testing.T) {
	s := cond.NewStack()
	var trace []string

	got := cond.TryCatch(s, func() int {
		return cond.OnError(s, func() int {
			s.Error(cond.NewError("x"))
			return 0
		}, func(c *cond.Condition) { trace = append(trace, "cleanup "+c.Message()) })
	}, cond.On(cond.ClassError, func(c *cond.Condition) int {
		trace = append(trace, "outer "+c.Message())
		return 5
	}))

	assert.Equal(t, 5, got)
	assert.Equal(t, []string{"cleanup x", "outer x"}, trace)
}

func TestOnErrorSkipsCleanupOnSuccess(t *testing.T) {
	s := cond.NewStack()
	called := false
	got := cond.OnError(s, func() string { return "ok" }, func(*cond.Condition) { called = true })
	assert.Equal(t, "ok", got)
	assert.False(t, called)
}

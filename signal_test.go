// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/cond"
)

func TestUnhandledWarningIsDeferred(t *testing.T) {
	var out bytes.Buffer
	s := cond.NewStack(cond.WithMessageWriter(&out))
	var trace []string

	err := s.Run(func() {
		s.Warning(cond.NewWarning("careful"))
		trace = append(trace, "continued")
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"continued"}, trace)
	assert.Empty(t, out.String())
	ws := s.Warnings()
	require.Len(t, ws, 1)
	assert.Equal(t, "careful", ws[0].Message())
}

func TestUnhandledMessageIsWritten(t *testing.T) {
	var out bytes.Buffer
	s := cond.NewStack(cond.WithMessageWriter(&out))
	s.Message(cond.NewMessage("one"))
	s.Message(cond.NewMessage("two"))
	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestUnhandledErrorAborts(t *testing.T) {
	s := cond.NewStack()
	var trace []string

	err := s.Run(func() {
		trace = append(trace, "before")
		s.Error(cond.NewError("boom", "code", 3))
		trace = append(trace, "after")
	})

	require.Error(t, err)
	assert.Equal(t, []string{"before"}, trace)
	var c *cond.Condition
	require.ErrorAs(t, err, &c)
	assert.Equal(t, "boom", c.Message())
	v, _ := c.Value("code")
	assert.Equal(t, 3, v)
}

func TestUnhandledErrorWithoutBoundaryPanics(t *testing.T) {
	s := cond.NewStack()
	assert.PanicsWithError(t, "cond: unhandled error: boom", func() {
		s.Error(cond.NewError("boom"))
	})
	assert.PanicsWithError(t, "cond: unhandled interrupt: interrupted", func() {
		s.Interrupt(nil)
	})
}

func TestSignalGenericCondition(t *testing.T) {
	s := cond.NewStack()
	seen := 0
	var trace []string

	cond.WithCallingHandlers(s, func() int {
		s.Signal(cond.NewCondition("note"))
		trace = append(trace, "continued")
		return 0
	}, cond.Calling(cond.ClassCondition, func(*cond.Condition) { seen++ }))

	assert.Equal(t, 1, seen)
	assert.Equal(t, []string{"continued"}, trace)
	assert.Empty(t, s.Warnings())
}

func TestSignalDispatchesByFamily(t *testing.T) {
	var out bytes.Buffer
	s := cond.NewStack(cond.WithMessageWriter(&out))

	s.Signal(cond.NewWarning("w"))
	s.Signal(cond.NewMessage("m"))
	assert.Len(t, s.Warnings(), 1)
	assert.Equal(t, "m\n", out.String())

	err := s.Run(func() { s.Signal(cond.NewError("e")) })
	require.Error(t, err)
	assert.Equal(t, "e", err.Error())
}

func TestErrorPromotesGenericCondition(t *testing.T) {
	s := cond.NewStack()
	c := cond.CatchFirst(s, func() { s.Error(cond.Make([]cond.Class{"custom"}, "x", nil)) })
	require.NotNil(t, c)
	assert.Equal(t, []cond.Class{"custom", cond.ClassError, cond.ClassCondition}, c.Classes())

	w := cond.CatchFirst(s, func() { s.Warning(cond.NewCondition("y")) })
	require.NotNil(t, w)
	assert.Equal(t, cond.FamilyWarning, w.Family())
}

func TestWarningPolicy(t *testing.T) {
	t.Run("immediate", func(t *testing.T) {
		var out bytes.Buffer
		s := cond.NewStack(cond.WithMessageWriter(&out), cond.WithWarningPolicy(cond.WarnImmediate))
		s.Warning(cond.NewWarning("now"))
		assert.Equal(t, "Warning: now\n", out.String())
		assert.Empty(t, s.Warnings())
	})

	t.Run("ignore", func(t *testing.T) {
		var out bytes.Buffer
		s := cond.NewStack(cond.WithMessageWriter(&out), cond.WithWarningPolicy(cond.WarnIgnore))
		s.Warning(cond.NewWarning("gone"))
		assert.Empty(t, out.String())
		assert.Empty(t, s.Warnings())
	})

	t.Run("error", func(t *testing.T) {
		s := cond.NewStack(cond.WithWarningPolicy(cond.WarnError))
		w := cond.NewWarning("strict")
		err := s.Run(func() { s.Warning(w) })
		require.Error(t, err)

		var c *cond.Condition
		require.ErrorAs(t, err, &c)
		assert.True(t, c.Inherits(cond.ClassConvertedWarning))
		assert.Equal(t, cond.FamilyError, c.Family())
		assert.Equal(t, "(converted from warning) strict", c.Message())
		orig, ok := c.Value("warning")
		require.True(t, ok)
		assert.Same(t, w, orig)
	})

	t.Run("error handlers see warning first", func(t *testing.T) {
		s := cond.NewStack(cond.WithWarningPolicy(cond.WarnError))
		got := cond.SuppressWarnings(s, func() string {
			s.Warning(cond.NewWarning("muffled"))
			return "ok"
		})
		assert.Equal(t, "ok", got)
	})
}

func TestWarningPolicyString(t *testing.T) {
	assert.Equal(t, "deferred", cond.WarnDeferred.String())
	assert.Equal(t, "immediate", cond.WarnImmediate.String())
	assert.Equal(t, "ignore", cond.WarnIgnore.String())
	assert.Equal(t, "error", cond.WarnError.String())
	assert.Equal(t, "unknown", cond.WarningPolicy(42).String())
}

func TestMaxWarnings(t *testing.T) {
	s := cond.NewStack(cond.WithMaxWarnings(2))
	for i := range 5 {
		s.Warnf("w%d", i)
	}
	ws := s.Warnings()
	require.Len(t, ws, 2)
	assert.Equal(t, "w0", ws[0].Message())
	assert.Equal(t, "w1", ws[1].Message())
	assert.Equal(t, 3, s.DroppedWarnings())

	flushed := s.FlushWarnings()
	assert.Len(t, flushed, 2)
	assert.Empty(t, s.Warnings())
	assert.Zero(t, s.DroppedWarnings())
}

func TestDefaultMaxWarnings(t *testing.T) {
	s := cond.NewStack(cond.WithMaxWarnings(0))
	for i := range cond.DefaultMaxWarnings + 1 {
		s.Warnf("w%d", i)
	}
	assert.Len(t, s.Warnings(), cond.DefaultMaxWarnings)
	assert.Equal(t, 1, s.DroppedWarnings())
}

func TestWarnfRecordsCall(t *testing.T) {
	s := cond.NewStack()
	s.Warnf("odd %s", "input")
	ws := s.Warnings()
	require.Len(t, ws, 1)
	require.NotNil(t, ws[0].Call())
	assert.Contains(t, ws[0].Call().Function, "TestWarnfRecordsCall")
}

func TestInterrupt(t *testing.T) {
	t.Run("not caught by error or condition", func(t *testing.T) {
		s := cond.NewStack()
		err := s.Run(func() {
			cond.TryCatch(s, func() int {
				s.Interrupt(context.Canceled)
				return 0
			},
				cond.On(cond.ClassCondition, func(*cond.Condition) int { return 1 }),
				cond.On(cond.ClassError, func(*cond.Condition) int { return 2 }),
			)
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, "interrupted: context canceled", err.Error())
	})

	t.Run("caught by interrupt binding", func(t *testing.T) {
		s := cond.NewStack()
		got := cond.TryCatch(s, func() int {
			s.Interrupt(nil)
			return 0
		},
			cond.On(cond.ClassCondition, func(*cond.Condition) int { return 1 }),
			cond.On(cond.ClassInterrupt, func(*cond.Condition) int { return 3 }),
		)
		assert.Equal(t, 3, got)
	})

	t.Run("muffle rejected", func(t *testing.T) {
		s := cond.NewStack()
		var inner error
		got := cond.TryCatch(s, func() int {
			s.Interrupt(nil)
			return 0
		}, cond.On(cond.ClassInterrupt, func(c *cond.Condition) int {
			inner = s.Run(func() { s.Muffle(c) })
			return 1
		}))
		assert.Equal(t, 1, got)
		require.Error(t, inner)
		var c *cond.Condition
		require.ErrorAs(t, inner, &c)
		assert.True(t, c.Inherits(cond.ClassUsageError))
	})
}

func TestCheckInterrupt(t *testing.T) {
	s := cond.NewStack()
	s.CheckInterrupt(context.Background())

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errors.New("shutdown"))

	err := s.Run(func() { s.CheckInterrupt(ctx) })
	require.Error(t, err)
	var c *cond.Condition
	require.ErrorAs(t, err, &c)
	assert.Equal(t, cond.FamilyInterrupt, c.Family())
	assert.Equal(t, "interrupted: shutdown", c.Message())
}

func TestCheck(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		s := cond.NewStack()
		require.NoError(t, s.Run(func() { s.Check(nil) }))
	})

	t.Run("plain error", func(t *testing.T) {
		s := cond.NewStack()
		c := cond.CatchFirst(s, func() { s.Check(fmt.Errorf("read header: %w", io.EOF)) })
		require.NotNil(t, c)
		assert.Equal(t, cond.FamilyError, c.Family())
		assert.Equal(t, "read header: EOF", c.Message())
		assert.ErrorIs(t, c, io.EOF)
	})

	t.Run("wrapped condition", func(t *testing.T) {
		s := cond.NewStack()
		w := cond.NewWarning("soft")
		s.Check(fmt.Errorf("layer: %w", w))
		ws := s.Warnings()
		require.Len(t, ws, 1)
		assert.Same(t, w, ws[0])
	})
}

func TestObserver(t *testing.T) {
	type event struct {
		msg     string
		outcome cond.Outcome
	}
	var events []event
	s := cond.NewStack(
		cond.WithMessageWriter(io.Discard),
		cond.WithObserver(cond.ObserverFunc(func(c *cond.Condition, o cond.Outcome) {
			events = append(events, event{c.Message(), o})
		})),
	)

	s.Message(cond.NewMessage("shown"))
	cond.SuppressMessages(s, func() int {
		s.Message(cond.NewMessage("hidden"))
		return 0
	})
	cond.CatchFirst(s, func() { s.Error(cond.NewError("caught")) })
	s.Warning(cond.NewWarning("kept"))
	_ = s.Run(func() { s.Error(cond.NewError("fatal")) })

	assert.Equal(t, []event{
		{"shown", cond.OutcomeUnhandled},
		{"hidden", cond.OutcomeMuffled},
		{"caught", cond.OutcomeCaught},
		{"kept", cond.OutcomeUnhandled},
		{"fatal", cond.OutcomeUnhandled},
	}, events)
	assert.Equal(t, "muffled", cond.OutcomeMuffled.String())
}

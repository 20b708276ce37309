// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"code.hybscloud.com/cond"
)

// Result is the outcome of running one scenario.
type Result struct {
	Name            string
	Trace           []string
	Value           string
	Err             error
	Warnings        []*cond.Condition
	DroppedWarnings int
}

// Aborted reports whether the scenario ended with an unhandled error,
// interrupt or panic.
func (r Result) Aborted() bool { return r.Err != nil }

// Condition returns the aborting condition, or nil.
func (r Result) Condition() *cond.Condition {
	var c *cond.Condition
	if errors.As(r.Err, &c) {
		return c
	}
	return nil
}

// Run interprets sc against s. The stack's recorded warnings are flushed
// into the result.
func Run(s *cond.Stack, sc *Scenario) Result {
	return RunContext(context.Background(), s, sc)
}

// RunContext is Run with cancellation: once ctx is done, the next step
// raises an interrupt on s.
func RunContext(ctx context.Context, s *cond.Stack, sc *Scenario) Result {
	r := &runner{ctx: ctx, s: s}
	v, err := cond.Eval(s, func() string { return r.steps(sc.Steps) })
	dropped := s.DroppedWarnings()
	return Result{
		Name:            sc.Name,
		Trace:           r.trace,
		Value:           v,
		Err:             err,
		Warnings:        s.FlushWarnings(),
		DroppedWarnings: dropped,
	}
}

type runner struct {
	ctx   context.Context
	s     *cond.Stack
	trace []string
}

func (r *runner) tracef(format string, args ...any) {
	r.trace = append(r.trace, fmt.Sprintf(format, args...))
}

// steps runs a step list; its value is that of the last step producing one.
func (r *runner) steps(steps []Step) string {
	var v string
	for i := range steps {
		if out, ok := r.step(&steps[i]); ok {
			v = out
		}
	}
	return v
}

func (r *runner) step(st *Step) (string, bool) {
	s := r.s
	s.CheckInterrupt(r.ctx)
	switch {
	case st.Emit != "":
		r.tracef("%s", st.Emit)
	case st.Return != "":
		return st.Return, true
	case st.Signal != nil:
		s.Signal(st.Signal.Condition())
	case st.Interrupt != "":
		s.Interrupt(errors.New(st.Interrupt))
	case st.Invoke != "":
		s.InvokeRestart(st.Invoke)
	case st.Try != nil:
		return r.try(st.Try), true
	case st.Calling != nil:
		r.calling(st.Calling)
	case st.Restart != nil:
		return r.restart(st.Restart), true
	}
	return "", false
}

func (r *runner) try(t *TryStep) string {
	catches := make([]cond.Catch[string], 0, len(t.Catch))
	for _, spec := range t.Catch {
		catches = append(catches, cond.On(cond.Class(spec.Class), func(c *cond.Condition) string {
			r.tracef("caught %s: %s", spec.Class, c.Message())
			return spec.Return
		}))
	}
	body := func() string { return r.steps(t.Body) }
	if len(t.Finally) == 0 {
		return cond.TryCatch(r.s, body, catches...)
	}
	return cond.TryCatchFinally(r.s, body, func() { r.steps(t.Finally) }, catches...)
}

func (r *runner) calling(cs *CallingStep) {
	handlers := make([]cond.Handler, 0, len(cs.Handlers))
	for _, spec := range cs.Handlers {
		handlers = append(handlers, cond.Calling(cond.Class(spec.Class), func(c *cond.Condition) {
			r.tracef("handled %s: %s", spec.Class, c.Message())
			switch spec.Action {
			case ActionMuffle:
				r.s.Muffle(c)
			case ActionEscalate:
				r.s.Error(cond.NewError("escalated: "+c.Message(), "from", c))
			case ActionInvoke:
				r.s.InvokeRestart(spec.Restart, c.Message())
			}
		}))
	}
	cond.WithCallingHandlers(r.s, func() struct{} {
		r.steps(cs.Body)
		return struct{}{}
	}, handlers...)
}

func (r *runner) restart(rs *RestartStep) string {
	return cond.WithRestart(r.s, rs.Name, func() string {
		return r.steps(rs.Body)
	}, func(args ...any) string {
		r.tracef("restarted %s", rs.Name)
		return rs.Return
	})
}

// Condition builds the described condition.
func (cs *ConditionSpec) Condition() *cond.Condition {
	classes := make([]cond.Class, 0, len(cs.Classes)+1)
	for _, c := range cs.Classes {
		classes = append(classes, cond.Class(c))
	}
	var root cond.Class
	switch cs.Family {
	case "error":
		root = cond.ClassError
	case "warning":
		root = cond.ClassWarning
	case "message":
		root = cond.ClassMessage
	}
	if root != "" && !slices.Contains(classes, root) {
		classes = append(classes, root)
	}
	return cond.Make(classes, cs.Message, cs.Metadata)
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

import (
	"io"
	"log/slog"
	"os"

	"code.hybscloud.com/cond/internal/logging"
)

// DefaultMaxWarnings is the default cap on recorded warnings.
const DefaultMaxWarnings = 50

// WarningPolicy selects the default behavior for unhandled warnings.
type WarningPolicy int8

const (
	// WarnDeferred records the warning for later retrieval.
	WarnDeferred WarningPolicy = iota
	// WarnImmediate writes the warning to the message writer at once.
	WarnImmediate
	// WarnIgnore drops the warning.
	WarnIgnore
	// WarnError converts the warning into an error condition.
	WarnError
)

func (p WarningPolicy) String() string {
	switch p {
	case WarnDeferred:
		return "deferred"
	case WarnImmediate:
		return "immediate"
	case WarnIgnore:
		return "ignore"
	case WarnError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is how one signal operation concluded.
type Outcome uint8

const (
	// OutcomeCaught means an exiting handler absorbed the condition.
	OutcomeCaught Outcome = iota + 1
	// OutcomeMuffled means an in-place handler stopped propagation.
	OutcomeMuffled
	// OutcomeUnhandled means the family default behavior ran.
	OutcomeUnhandled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCaught:
		return "caught"
	case OutcomeMuffled:
		return "muffled"
	case OutcomeUnhandled:
		return "unhandled"
	default:
		return "unknown"
	}
}

// Observer receives the outcome of every signal operation on a Stack.
// Observe runs synchronously inside the signal call and must not signal.
type Observer interface {
	Observe(c *Condition, o Outcome)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(c *Condition, o Outcome)

// Observe implements Observer.
func (f ObserverFunc) Observe(c *Condition, o Outcome) { f(c, o) }

type options struct {
	logger      *slog.Logger
	out         io.Writer
	policy      WarningPolicy
	maxWarnings int
	observers   []Observer
}

// Option configures a Stack.
type Option func(*options)

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMessageWriter sets where unhandled messages and immediate warnings are
// written. The default is os.Stderr.
func WithMessageWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithWarningPolicy sets the default behavior for unhandled warnings.
func WithWarningPolicy(p WarningPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithMaxWarnings caps the number of recorded warnings. Non-positive n
// keeps the default.
func WithMaxWarnings(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxWarnings = n
		}
	}
}

// WithObserver adds an observer of signal outcomes.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Stack is the handler stack of one execution context, together with the
// restarts established by in-flight signal operations and the warnings
// recorded by default warning handling.
//
// A Stack is owned by a single goroutine. Concurrent execution contexts
// each use their own Stack; nothing is shared between them.
type Stack struct {
	regs     []*registration
	restarts []*Restart
	warnings []*Condition
	dropped  int
	opts     options
}

// NewStack creates an empty handler stack.
func NewStack(opts ...Option) *Stack {
	o := options{
		logger:      logging.NewNop(),
		out:         os.Stderr,
		policy:      WarnDeferred,
		maxWarnings: DefaultMaxWarnings,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Stack{opts: o}
}

// Depth returns the number of handler registrations visible to a signal
// raised at this point.
func (s *Stack) Depth() int { return len(s.regs) }

// Logger returns the stack's logger.
func (s *Stack) Logger() *slog.Logger { return s.opts.logger }

// push appends r and returns the depth to restore when r's scope ends.
func (s *Stack) push(r *registration) int {
	depth := len(s.regs)
	s.regs = append(s.regs, r)
	return depth
}

// pop truncates the stack back to depth.
func (s *Stack) pop(depth int) {
	if depth < len(s.regs) {
		clear(s.regs[depth:])
		s.regs = s.regs[:depth]
	}
}

func (s *Stack) observe(c *Condition, o Outcome) {
	for _, obs := range s.opts.observers {
		obs.Observe(c, o)
	}
}

// Warnings returns a copy of the recorded warnings, oldest first.
func (s *Stack) Warnings() []*Condition {
	out := make([]*Condition, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// DroppedWarnings returns how many warnings were not recorded because the
// cap was reached.
func (s *Stack) DroppedWarnings() int { return s.dropped }

// FlushWarnings returns the recorded warnings and clears them.
func (s *Stack) FlushWarnings() []*Condition {
	out := s.warnings
	s.warnings = nil
	s.dropped = 0
	return out
}

func (s *Stack) recordWarning(c *Condition) {
	if len(s.warnings) >= s.opts.maxWarnings {
		s.dropped++
		return
	}
	s.warnings = append(s.warnings, c)
}

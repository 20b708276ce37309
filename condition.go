// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cond

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Class is a condition class tag. A condition carries an ordered sequence of
// classes, most specific first, always ending in [ClassCondition].
type Class string

// Root class tags.
const (
	ClassCondition Class = "condition"
	ClassError     Class = "error"
	ClassWarning   Class = "warning"
	ClassMessage   Class = "message"
	ClassInterrupt Class = "interrupt"
)

// Engine-defined classes.
const (
	// ClassUsageError tags errors raised for misuse of the engine itself,
	// such as muffling an error or invoking a restart that is not active.
	ClassUsageError Class = "usage_error"

	// ClassPanic tags errors converted from foreign Go panics at a boundary.
	ClassPanic Class = "panic"

	// ClassConvertedWarning tags errors produced from warnings under [WarnError].
	ClassConvertedWarning Class = "converted_warning"
)

// Family is the root family of a condition.
type Family uint8

const (
	FamilyCondition Family = iota
	FamilyError
	FamilyWarning
	FamilyMessage
	FamilyInterrupt
)

// String returns the root class tag of the family.
func (f Family) String() string {
	return string(f.Class())
}

// Class returns the root class tag of the family.
func (f Family) Class() Class {
	switch f {
	case FamilyError:
		return ClassError
	case FamilyWarning:
		return ClassWarning
	case FamilyMessage:
		return ClassMessage
	case FamilyInterrupt:
		return ClassInterrupt
	default:
		return ClassCondition
	}
}

// Call identifies the call site that produced a condition.
type Call struct {
	Function string
	File     string
	Line     int
}

func (c *Call) String() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s:%d)", c.Function, c.File, c.Line)
}

// Caller captures the call site skip frames above the caller of Caller.
// Returns nil when the frame cannot be resolved.
func Caller(skip int) *Call {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return nil
	}
	call := &Call{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		call.Function = fn.Name()
	}
	return call
}

// Field is a single metadata entry of a condition.
type Field struct {
	Key string
	Val any
}

// Condition is one signaled event. A Condition is immutable: derivation
// methods return a new value and never alter the receiver.
type Condition struct {
	classes []Class
	message string
	call    *Call
	fields  []Field
	cause   error
}

// Make constructs a condition from explicit classes, a message and metadata.
// ClassCondition is appended when classes do not already end with it.
// Metadata keys are stored in sorted order.
//
// Make panics if message is empty or classes name the interrupt family;
// interrupts are raised only through [Stack.Interrupt].
func Make(classes []Class, message string, metadata map[string]any) *Condition {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fs := make([]Field, 0, len(keys))
	for _, k := range keys {
		fs = append(fs, Field{Key: k, Val: metadata[k]})
	}
	return build(classes, message, fs)
}

// NewError constructs an error condition with classes [error, condition].
// kv is read as key/value metadata pairs.
func NewError(message string, kv ...any) *Condition {
	return build([]Class{ClassError}, message, fieldsFromKV(kv))
}

// NewWarning constructs a warning condition with classes [warning, condition].
func NewWarning(message string, kv ...any) *Condition {
	return build([]Class{ClassWarning}, message, fieldsFromKV(kv))
}

// NewMessage constructs a message condition with classes [message, condition].
func NewMessage(message string, kv ...any) *Condition {
	return build([]Class{ClassMessage}, message, fieldsFromKV(kv))
}

// NewCondition constructs a generic condition with classes [condition].
func NewCondition(message string, kv ...any) *Condition {
	return build(nil, message, fieldsFromKV(kv))
}

func build(classes []Class, message string, fs []Field) *Condition {
	if message == "" {
		panic("cond: condition message is required")
	}
	if slices.Contains(classes, ClassInterrupt) {
		panic("cond: interrupt conditions are not user-constructible")
	}
	cs := make([]Class, 0, len(classes)+1)
	for _, c := range classes {
		if c != ClassCondition {
			cs = append(cs, c)
		}
	}
	cs = append(cs, ClassCondition)
	return &Condition{classes: cs, message: message, fields: fs}
}

// fieldsFromKV parses key/value pairs left to right. A non-string key drops
// the whole pair; a trailing key without a value maps to nil.
func fieldsFromKV(kv []any) []Field {
	if len(kv) == 0 {
		return nil
	}
	out := make([]Field, 0, len(kv)/2+1)
	for i := 0; i < len(kv); {
		k, ok := kv[i].(string)
		if !ok {
			i += 2
			continue
		}
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		out = append(out, Field{Key: k, Val: v})
		i += 2
	}
	return out
}

// Message returns the human-readable message.
func (c *Condition) Message() string { return c.message }

// Classes returns a copy of the class sequence, most specific first.
func (c *Condition) Classes() []Class { return slices.Clone(c.classes) }

// Call returns the originating call, or nil when none was recorded.
func (c *Condition) Call() *Call { return c.call }

// Cause returns the underlying Go error, or nil.
func (c *Condition) Cause() error { return c.cause }

// Inherits reports whether class appears in the condition's class sequence.
func (c *Condition) Inherits(class Class) bool {
	return slices.Contains(c.classes, class)
}

// Family returns the first root family found in the class sequence,
// or FamilyCondition when none of error, warning, message or interrupt appears.
func (c *Condition) Family() Family {
	for _, cl := range c.classes {
		switch cl {
		case ClassError:
			return FamilyError
		case ClassWarning:
			return FamilyWarning
		case ClassMessage:
			return FamilyMessage
		case ClassInterrupt:
			return FamilyInterrupt
		}
	}
	return FamilyCondition
}

// Value returns the metadata value stored under key. When a key was given
// more than once, the last value wins.
func (c *Condition) Value(key string) (any, bool) {
	for i := len(c.fields) - 1; i >= 0; i-- {
		if c.fields[i].Key == key {
			return c.fields[i].Val, true
		}
	}
	return nil, false
}

// Fields returns a copy of the ordered metadata fields.
func (c *Condition) Fields() []Field { return slices.Clone(c.fields) }

// Metadata returns a fresh map of the metadata. Mutating it does not affect c.
func (c *Condition) Metadata() map[string]any {
	if len(c.fields) == 0 {
		return nil
	}
	m := make(map[string]any, len(c.fields))
	for _, f := range c.fields {
		m[f.Key] = f.Val
	}
	return m
}

// Decode decodes the metadata into dst, a pointer to a struct or map.
// Struct fields are matched through `mapstructure` tags.
func (c *Condition) Decode(dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("cond: decode metadata: %w", err)
	}
	if err := dec.Decode(c.Metadata()); err != nil {
		return fmt.Errorf("cond: decode metadata of %q: %w", c.message, err)
	}
	return nil
}

// Error implements error. The text is the condition message.
func (c *Condition) Error() string { return c.message }

// Unwrap returns the cause so errors.Is and errors.As see through conditions.
func (c *Condition) Unwrap() error { return c.cause }

// String renders the condition as <class/.../condition: message>.
func (c *Condition) String() string {
	var b strings.Builder
	b.WriteByte('<')
	for i, cl := range c.classes {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(string(cl))
	}
	b.WriteString(": ")
	b.WriteString(c.message)
	b.WriteByte('>')
	return b.String()
}

// With returns a copy of c with one more metadata field.
func (c *Condition) With(key string, val any) *Condition {
	n := c.clone()
	n.fields = append(slices.Clone(c.fields), Field{Key: key, Val: val})
	return n
}

// WithCall returns a copy of c with the given origin.
func (c *Condition) WithCall(call *Call) *Condition {
	n := c.clone()
	n.call = call
	return n
}

// WithCause returns a copy of c wrapping err.
func (c *Condition) WithCause(err error) *Condition {
	n := c.clone()
	n.cause = err
	return n
}

// Subclass returns a copy of c with classes prepended ahead of its own.
// Interrupt and duplicate tags are ignored.
func (c *Condition) Subclass(classes ...Class) *Condition {
	n := c.clone()
	cs := make([]Class, 0, len(classes)+len(c.classes))
	for _, cl := range classes {
		if cl == ClassInterrupt || slices.Contains(cs, cl) || slices.Contains(c.classes, cl) {
			continue
		}
		cs = append(cs, cl)
	}
	n.classes = append(cs, c.classes...)
	return n
}

func (c *Condition) clone() *Condition {
	n := *c
	return &n
}

// withRoot returns c when it already belongs to a family, otherwise a copy
// with class inserted ahead of ClassCondition.
func (c *Condition) withRoot(class Class) *Condition {
	if c.Family() != FamilyCondition {
		return c
	}
	n := c.clone()
	cs := make([]Class, 0, len(c.classes)+1)
	cs = append(cs, c.classes[:len(c.classes)-1]...)
	n.classes = append(cs, class, ClassCondition)
	return n
}

// newInterrupt builds the [interrupt, condition] condition raised by
// Stack.Interrupt.
func newInterrupt(cause error) *Condition {
	msg := "interrupted"
	if cause != nil {
		msg = "interrupted: " + cause.Error()
	}
	return &Condition{
		classes: []Class{ClassInterrupt, ClassCondition},
		message: msg,
		cause:   cause,
	}
}

func usageError(message string, kv ...any) *Condition {
	return build([]Class{ClassUsageError, ClassError}, message, fieldsFromKV(kv))
}

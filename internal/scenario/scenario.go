// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scenario interprets YAML documents that describe nested handler
// registrations and signals, running them against a cond.Stack.
//
// Example document:
//
//	name: catch-boom
//	steps:
//	  - try:
//	      body:
//	        - emit: before
//	        - signal: {family: error, message: boom, classes: [bad_argument]}
//	        - emit: after
//	      catch:
//	        - class: bad_argument
//	          return: caught
//	      finally:
//	        - emit: cleanup
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one document.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one instruction. Exactly one field is set.
type Step struct {
	Emit      string         `yaml:"emit,omitempty"`
	Return    string         `yaml:"return,omitempty"`
	Signal    *ConditionSpec `yaml:"signal,omitempty"`
	Interrupt string         `yaml:"interrupt,omitempty"`
	Try       *TryStep       `yaml:"try,omitempty"`
	Calling   *CallingStep   `yaml:"calling,omitempty"`
	Restart   *RestartStep   `yaml:"restart,omitempty"`
	Invoke    string         `yaml:"invoke,omitempty"`
}

// ConditionSpec describes a condition to signal.
type ConditionSpec struct {
	Family   string         `yaml:"family"`
	Classes  []string       `yaml:"classes,omitempty"`
	Message  string         `yaml:"message"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// TryStep runs Body under exiting handlers.
type TryStep struct {
	Body    []Step      `yaml:"body"`
	Catch   []CatchSpec `yaml:"catch"`
	Finally []Step      `yaml:"finally,omitempty"`
}

// CatchSpec is one exiting binding; Return becomes the try's value.
type CatchSpec struct {
	Class  string `yaml:"class"`
	Return string `yaml:"return,omitempty"`
}

// CallingStep runs Body under in-place handlers.
type CallingStep struct {
	Body     []Step        `yaml:"body"`
	Handlers []HandlerSpec `yaml:"handlers"`
}

// Handler actions.
const (
	ActionTrace    = "trace"
	ActionMuffle   = "muffle"
	ActionEscalate = "escalate"
	ActionInvoke   = "invoke"
)

// HandlerSpec is one in-place binding. Every action traces the condition
// first; muffle then muffles it, escalate raises a new error and invoke
// invokes Restart.
type HandlerSpec struct {
	Class   string `yaml:"class"`
	Action  string `yaml:"action"`
	Restart string `yaml:"restart,omitempty"`
}

// RestartStep runs Body with a restart established; when invoked, Return
// becomes the step's value.
type RestartStep struct {
	Name   string `yaml:"name"`
	Body   []Step `yaml:"body"`
	Return string `yaml:"return,omitempty"`
}

// Parse decodes and validates a document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

// Validate checks the document structure.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	return validateSteps("steps", sc.Steps)
}

func validateSteps(path string, steps []Step) error {
	for i := range steps {
		if err := steps[i].validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (st *Step) kinds() int {
	n := 0
	for _, set := range []bool{
		st.Emit != "", st.Return != "", st.Signal != nil, st.Interrupt != "",
		st.Try != nil, st.Calling != nil, st.Restart != nil, st.Invoke != "",
	} {
		if set {
			n++
		}
	}
	return n
}

func (st *Step) validate(path string) error {
	if n := st.kinds(); n != 1 {
		return fmt.Errorf("%s: expected exactly one instruction, got %d", path, n)
	}
	switch {
	case st.Signal != nil:
		return st.Signal.validate(path + ".signal")
	case st.Try != nil:
		if len(st.Try.Catch) == 0 {
			return fmt.Errorf("%s.try: at least one catch is required", path)
		}
		for i, c := range st.Try.Catch {
			if c.Class == "" {
				return fmt.Errorf("%s.try.catch[%d]: class is required", path, i)
			}
		}
		if err := validateSteps(path+".try.body", st.Try.Body); err != nil {
			return err
		}
		return validateSteps(path+".try.finally", st.Try.Finally)
	case st.Calling != nil:
		if len(st.Calling.Handlers) == 0 {
			return fmt.Errorf("%s.calling: at least one handler is required", path)
		}
		for i, h := range st.Calling.Handlers {
			hp := fmt.Sprintf("%s.calling.handlers[%d]", path, i)
			if h.Class == "" {
				return fmt.Errorf("%s: class is required", hp)
			}
			switch h.Action {
			case "", ActionTrace, ActionMuffle, ActionEscalate:
			case ActionInvoke:
				if h.Restart == "" {
					return fmt.Errorf("%s: invoke requires restart", hp)
				}
			default:
				return fmt.Errorf("%s: unknown action %q", hp, h.Action)
			}
		}
		return validateSteps(path+".calling.body", st.Calling.Body)
	case st.Restart != nil:
		if st.Restart.Name == "" {
			return fmt.Errorf("%s.restart: name is required", path)
		}
		return validateSteps(path+".restart.body", st.Restart.Body)
	}
	return nil
}

func (cs *ConditionSpec) validate(path string) error {
	if cs.Message == "" {
		return fmt.Errorf("%s: message is required", path)
	}
	switch cs.Family {
	case "error", "warning", "message", "condition", "":
	case "interrupt":
		return fmt.Errorf("%s: interrupts are raised with the interrupt instruction", path)
	default:
		return fmt.Errorf("%s: unknown family %q", path, cs.Family)
	}
	for i, c := range cs.Classes {
		if c == "" || c == "interrupt" {
			return fmt.Errorf("%s.classes[%d]: invalid class %q", path, i, c)
		}
	}
	return nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"code.hybscloud.com/cond"
	"code.hybscloud.com/cond/internal/scenario"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	valueColor   = color.New(color.FgGreen)
)

// outcome is a scenario result plus the messages written by its stack.
type outcome struct {
	scenario.Result
	Output string
}

// report writes every outcome in input order and returns how many aborted.
func report(w io.Writer, results []outcome) int {
	aborted := 0
	for _, r := range results {
		headerColor.Fprintf(w, "== %s\n", r.Name)
		for _, line := range r.Trace {
			fmt.Fprintf(w, "  %s\n", line)
		}
		if r.Output != "" {
			for _, line := range strings.Split(strings.TrimRight(r.Output, "\n"), "\n") {
				fmt.Fprintf(w, "  | %s\n", line)
			}
		}
		writeWarnings(w, r.Warnings, r.DroppedWarnings)
		if r.Aborted() {
			aborted++
			writeError(w, r.Err)
			continue
		}
		if r.Value != "" {
			valueColor.Fprintf(w, "  => %s\n", r.Value)
		}
	}
	return aborted
}

func writeWarnings(w io.Writer, warnings []*cond.Condition, dropped int) {
	switch len(warnings) {
	case 0:
		return
	case 1:
		warningColor.Fprintf(w, "  Warning message:\n  %s\n", describe(warnings[0]))
	default:
		warningColor.Fprintln(w, "  Warning messages:")
		for i, c := range warnings {
			fmt.Fprintf(w, "  %d: %s\n", i+1, describe(c))
		}
	}
	if dropped > 0 {
		warningColor.Fprintf(w, "  (%d more warnings dropped)\n", dropped)
	}
}

func writeError(w io.Writer, err error) {
	var c *cond.Condition
	if !errors.As(err, &c) {
		errorColor.Fprintf(w, "  Error: %v\n", err)
		return
	}
	label := "Error"
	if c.Family() == cond.FamilyInterrupt {
		label = "Interrupted"
	}
	errorColor.Fprintf(w, "  %s: %s\n", label, describe(c))
	for _, f := range c.Fields() {
		if f.Key == "stack" {
			continue
		}
		fmt.Fprintf(w, "    %s = %v\n", f.Key, f.Val)
	}
}

// describe renders a condition's message with its call and specific class.
func describe(c *cond.Condition) string {
	var b strings.Builder
	if call := c.Call(); call != nil && call.Function != "" {
		b.WriteString("in ")
		b.WriteString(call.Function)
		b.WriteString(": ")
	}
	b.WriteString(c.Message())
	if cls := c.Classes(); len(cls) > 2 {
		fmt.Fprintf(&b, " [%s]", cls[0])
	}
	return b.String()
}

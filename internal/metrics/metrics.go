// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports condition signal outcomes as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"code.hybscloud.com/cond"
)

// Collector counts signal outcomes by family and outcome. It implements
// cond.Observer and may be shared by many stacks.
type Collector struct {
	conditions *prometheus.CounterVec
	warnings   prometheus.Counter
}

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		conditions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cond",
				Name:      "conditions_total",
				Help:      "Signal operations by condition family and outcome.",
			},
			[]string{"family", "outcome"},
		),
		warnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cond",
				Name:      "unhandled_warnings_total",
				Help:      "Warnings that reached default handling.",
			},
		),
	}
	for _, col := range []prometheus.Collector{c.conditions, c.warnings} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe implements cond.Observer.
func (c *Collector) Observe(cd *cond.Condition, o cond.Outcome) {
	fam := cd.Family()
	c.conditions.WithLabelValues(fam.String(), o.String()).Inc()
	if fam == cond.FamilyWarning && o == cond.OutcomeUnhandled {
		c.warnings.Inc()
	}
}

// Conditions exposes the counter vector, mainly for tests.
func (c *Collector) Conditions() *prometheus.CounterVec { return c.conditions }

// UnhandledWarnings exposes the unhandled warning counter.
func (c *Collector) UnhandledWarnings() prometheus.Counter { return c.warnings }

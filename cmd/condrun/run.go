// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/cond"
	"code.hybscloud.com/cond/internal/config"
	"code.hybscloud.com/cond/internal/metrics"
	"code.hybscloud.com/cond/internal/scenario"
)

var (
	runJobs    int
	runMetrics bool
)

func init() {
	runCmd.Flags().IntVarP(&runJobs, "jobs", "j", runtime.NumCPU(), "maximum scenarios run in parallel")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "print condition counters after the report")
}

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>...",
	Short: "Run scenario documents, each on its own handler stack",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		configureColor(cmd)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		reg := prometheus.NewRegistry()
		collector, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}

		results, err := runAll(ctx, cfg, collector, runJobs, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		aborted := report(out, results)
		if runMetrics {
			if err := printMetrics(out, reg); err != nil {
				return err
			}
		}
		if aborted > 0 {
			return fmt.Errorf("%d of %d scenario(s) aborted", aborted, len(results))
		}
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.Default()
	switch {
	case path != "":
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(config.FileName); err == nil {
			loaded, err := config.Load(config.FileName)
			if err != nil {
				return config.Config{}, err
			}
			cfg = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, fmt.Errorf("failed to stat %q: %w", config.FileName, err)
		}
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, cfg.Validate()
}

func configureColor(cmd *cobra.Command) {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}

// runAll loads every scenario, then runs them concurrently. Each scenario
// gets its own Stack and its own message buffer, so execution contexts
// share nothing but the metrics collector.
func runAll(ctx context.Context, cfg config.Config, obs cond.Observer, jobs int, paths []string) ([]outcome, error) {
	docs := make([]*scenario.Scenario, len(paths))
	for i, p := range paths {
		sc, err := scenario.Load(p)
		if err != nil {
			return nil, err
		}
		docs[i] = sc
	}

	results := make([]outcome, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(docs))))
	for i, sc := range docs {
		g.Go(func() error {
			var buf bytes.Buffer
			opts, err := cfg.Options(config.Streams{Stdout: &buf, Stderr: &buf, Log: os.Stderr})
			if err != nil {
				return err
			}
			s := cond.NewStack(append(opts, cond.WithObserver(obs))...)
			results[i] = outcome{Result: scenario.RunContext(gctx, s, sc), Output: buf.String()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += lp.GetName() + "=" + lp.GetValue()
			}
			if labels != "" {
				labels = "{" + labels + "}"
			}
			fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
		}
	}
	return nil
}

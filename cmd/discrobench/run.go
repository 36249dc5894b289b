package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sourcegraph/conc"
	"github.com/uklotzde/discro"
	"github.com/uklotzde/discro/dprom"
)

type result struct {
	Kind       string
	Deliveries int
	Last       int
}

func run(ctx context.Context, out io.Writer, cfg config) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ws, err := cfg.wakeSet()
	if err != nil {
		return err
	}

	pub := discro.NewPublisher(0, discro.WithWakeSet(ws), discro.WithLogger(log))
	obs := pub.Observe()

	reg := prometheus.NewRegistry()
	reg.MustRegister(dprom.NewCollector(obs, dprom.CollectorConfig{
		Subsystem: "bench",
	}))

	results := make([]result, cfg.Subscribers+cfg.Projected)

	// Subscribe everyone before the first write,
	// so that every subscriber is guaranteed to see the final value.
	var wg conc.WaitGroup
	for i := range cfg.Subscribers {
		sub := pub.Subscribe()
		wg.Go(func() {
			defer sub.Close()
			results[i] = consume(ctx, sub, "plain", func(v int) int { return v })
		})
	}
	for i := range cfg.Projected {
		bucket := cfg.Bucket
		p := discro.Project(pub.Subscribe(), func(v int) int { return v / bucket })
		wg.Go(func() {
			defer p.Close()
			results[cfg.Subscribers+i] = consume(ctx, p, "projected", func(v int) int { return v * bucket })
		})
	}

	start := time.Now()
	for i := 1; i <= cfg.Writes; i++ {
		pub.Set(i)
	}
	pub.Close()
	writeDur := time.Since(start)

	wg.Wait()
	totalDur := time.Since(start)

	log.Info(
		"Finished publishing",
		"writes", cfg.Writes,
		"write_duration", writeDur,
		"total_duration", totalDur,
		"wake", cfg.Wake,
	)

	var errs []error
	wantLast := map[string]int{
		"plain":     cfg.Writes,
		"projected": (cfg.Writes / cfg.Bucket) * cfg.Bucket,
	}
	for i, r := range results {
		fmt.Fprintf(out, "subscriber %d (%s): %d deliveries, last value %d\n", i, r.Kind, r.Deliveries, r.Last)
		if r.Last != wantLast[r.Kind] {
			errs = append(errs, fmt.Errorf(
				"subscriber %d (%s) finished at %d, want %d",
				i, r.Kind, r.Last, wantLast[r.Kind],
			))
		}
	}

	if cfg.Metrics {
		if err := writeMetrics(out, reg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type waiter interface {
	WaitForChange(context.Context) (int, error)
}

// consume waits on w until the publisher closes.
// The unproject function maps a delivered value back to the scale of
// published values, so projected and plain results can be compared.
func consume(ctx context.Context, w waiter, kind string, unproject func(int) int) result {
	r := result{Kind: kind}
	for {
		v, err := w.WaitForChange(ctx)
		if err != nil {
			return r
		}
		r.Deliveries++
		r.Last = unproject(v)
	}
}

func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

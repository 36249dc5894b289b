// Command discrobench drives one publisher against many subscribers
// and reports how many of the published values each subscriber observed.
//
// Every flag can also be set through the environment
// with a DISCRO_ prefix, e.g. DISCRO_SUBSCRIBERS=64.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DISCRO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "discrobench",
		Short: "Publish a sequence of values to concurrent subscribers",
		Long: `discrobench publishes the integers 1 through --writes as fast as possible
while --subscribers goroutines wait for changes.
Subscribers only observe the latest value, so each one reports
how many deliveries it received and confirms it saw the final value.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.Int("subscribers", 8, "number of plain subscribers")
	f.Int("projected", 0, "number of additional subscribers behind a bucketing projection")
	f.Int("bucket", 1000, "bucket width used by projected subscribers")
	f.Int("writes", 100_000, "number of values to publish")
	f.String("wake", "chan", "wake model for waiting subscribers: chan or cond")
	f.String("log-level", "info", "log level: debug, info, warn, or error")
	f.Bool("metrics", false, "print Prometheus metrics for the observable when done")

	if err := v.BindPFlags(f); err != nil {
		panic(fmt.Errorf("BUG: failed to bind flags: %w", err))
	}

	return cmd
}

package dwake_test

import (
	"testing"

	"github.com/uklotzde/discro/dwake"
	"github.com/uklotzde/discro/dwake/dwaketest"
	"github.com/uklotzde/discro/internal/dtest"
)

func TestChan_Compliance(t *testing.T) {
	t.Parallel()

	dwaketest.TestWakeSetCompliance(t, func() dwake.WakeSet {
		return dwake.NewChan()
	})
}

func TestChan_Ready(t *testing.T) {
	t.Parallel()

	c := dwake.NewChan()
	tok := c.Arm()

	ready := c.Ready(tok)
	dtest.NotSending(t, ready)

	c.Fire()
	dtest.IsSending(t, ready)

	// A stale token is ready immediately.
	dtest.IsSending(t, c.Ready(tok))

	// The next generation is not ready until the next fire.
	dtest.NotSending(t, c.Ready(c.Arm()))
}

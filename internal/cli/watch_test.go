package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/quizbank/qbank/internal/testutil"
)

func TestWatchCommandStopsOnCancel(t *testing.T) {
	d := testutil.NewTestData(t).Build()
	useStore(t, d)
	setFlag(t, &jsonOutput, false)
	setFlag(t, &watchSubject, "biology")
	setFlag(t, &watchExisting, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	var runErr error
	out := captureStdout(t, func() {
		runErr = runWatch(cmd, []string{t.TempDir()})
	})
	if runErr != nil {
		t.Fatalf("runWatch: %v", runErr)
	}
	if !strings.Contains(out, "Stopped watching.") {
		t.Errorf("output missing stop line:\n%s", out)
	}
}

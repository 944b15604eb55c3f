package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Blindtools/Api/internal/platform/errors"
	platformtesting "github.com/Blindtools/Api/internal/platform/testing"
)

func TestRunner_AllSucceed(t *testing.T) {
	runner := NewRunner(0, platformtesting.SetupTestLogger(t))

	results := runner.Run(context.Background(), 3, func(_ context.Context, i int) (string, error) {
		return fmt.Sprintf("item-%d", i), nil
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, res := range results {
		if !res.Success || res.Index != i || res.Output != fmt.Sprintf("item-%d", i) {
			t.Errorf("result %d = %+v", i, res)
		}
	}
}

func TestRunner_PartialFailure(t *testing.T) {
	runner := NewRunner(0, platformtesting.SetupTestLogger(t))

	results := runner.Run(context.Background(), 4, func(_ context.Context, i int) (string, error) {
		if i == 2 {
			return "", errors.New(errors.KindProvider, "ocr", "OCR request failed")
		}
		return "text", nil
	})

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, res := range results {
		if i == 2 {
			if res.Success {
				t.Error("item 2 should carry an error marker")
			}
			if res.Error != "OCR request failed" {
				t.Errorf("item 2 error = %q", res.Error)
			}
			continue
		}
		if !res.Success {
			t.Errorf("item %d should succeed, got %+v", i, res)
		}
	}
}

func TestRunner_InterItemDelay(t *testing.T) {
	delay := 30 * time.Millisecond
	runner := NewRunner(delay, platformtesting.SetupTestLogger(t))

	start := time.Now()
	runner.Run(context.Background(), 3, func(_ context.Context, _ int) (string, error) {
		return "ok", nil
	})
	elapsed := time.Since(start)

	// Two gaps between three items.
	if elapsed < 2*delay {
		t.Errorf("elapsed %v, want at least %v", elapsed, 2*delay)
	}
}

func TestRunner_SerializedCalls(t *testing.T) {
	runner := NewRunner(0, platformtesting.SetupTestLogger(t))

	inFlight := 0
	runner.Run(context.Background(), 5, func(_ context.Context, _ int) (string, error) {
		inFlight++
		if inFlight != 1 {
			t.Error("more than one downstream call in flight")
		}
		defer func() { inFlight-- }()
		return "ok", nil
	})
}

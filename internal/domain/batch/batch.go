package batch

import (
	"context"
	"time"

	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"
)

// ItemResult is the per-item outcome keyed by input order. A failed item
// carries its error message; the batch as a whole never fails.
type ItemResult struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Runner applies a single-item operation across a sequence, inserting a
// fixed pause between consecutive downstream calls. Items run strictly in
// order; one provider call is in flight at a time.
type Runner struct {
	delay  time.Duration
	logger *utils.Logger
}

func NewRunner(delay time.Duration, logger *utils.Logger) *Runner {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Runner{delay: delay, logger: logger}
}

// Run executes fn for indexes 0..n-1. Errors are recorded per item without
// aborting the remainder.
func (r *Runner) Run(ctx context.Context, n int, fn func(ctx context.Context, index int) (string, error)) []ItemResult {
	results := make([]ItemResult, n)

	for i := 0; i < n; i++ {
		if i > 0 && r.delay > 0 {
			time.Sleep(r.delay)
		}

		output, err := fn(ctx, i)
		if err != nil {
			r.logger.WarnTag("HTTP", "batch item %d failed: %v", i, err)
			results[i] = ItemResult{Index: i, Success: false, Error: itemMessage(err)}
			continue
		}
		results[i] = ItemResult{Index: i, Success: true, Output: output}
	}

	return results
}

func itemMessage(err error) string {
	if typed, ok := err.(*errors.Error); ok && typed.Message != "" {
		return typed.Message
	}
	return err.Error()
}

package health

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
)

type Registry struct {
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

type CheckResult struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type ReadinessResponse struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckAll runs every checker concurrently. One failing dependency marks the
// whole service down; results keep registration order.
func (r *Registry) CheckAll(ctx context.Context) ReadinessResponse {
	results := make([]CheckResult, len(r.checkers))

	var wg conc.WaitGroup
	for i, checker := range r.checkers {
		wg.Go(func() {
			start := time.Now()
			res := checker.Check(ctx)
			results[i] = CheckResult{
				Name:       checker.Name(),
				Status:     res.Status,
				Message:    res.Message,
				DurationMS: time.Since(start).Milliseconds(),
			}
		})
	}
	wg.Wait()

	overall := StatusUp
	for _, res := range results {
		if res.Status != StatusUp {
			overall = StatusDown
		}
	}
	return ReadinessResponse{Status: overall, Checks: results}
}

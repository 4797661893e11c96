// Package health runs tagged dependency checks and aggregates them into a
// report served by the /health endpoints.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	Healthy   Status = "Healthy"
	Degraded  Status = "Degraded"
	Unhealthy Status = "Unhealthy"
)

func (s Status) rank() int {
	switch s {
	case Unhealthy:
		return 2
	case Degraded:
		return 1
	default:
		return 0
	}
}

// Common tags used to select checks per endpoint.
const (
	TagReady = "ready"
	TagDB    = "db"
	TagML    = "ml"
)

// DefaultTimeout bounds a full report run.
const DefaultTimeout = 3 * time.Second

// Result is the outcome of a single check.
type Result struct {
	Status      Status
	Description string
	Err         error
	Data        map[string]any
}

// Check is a named probe of one dependency.
type Check interface {
	Name() string
	Tags() []string
	Check(ctx context.Context) Result
}

// Entry is the serialized form of one check result.
type Entry struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Duration    string         `json:"duration"`
	Description string         `json:"description,omitempty"`
	Error       string         `json:"error,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Report aggregates entries. Status is the worst entry status, Healthy when
// no check matched.
type Report struct {
	Status   Status  `json:"status"`
	Duration string  `json:"duration"`
	Checks   []Entry `json:"checks"`
}

type Registry struct {
	checks  []Check
	timeout time.Duration
	now     func() time.Time
}

func NewRegistry(timeout time.Duration, checks ...Check) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{checks: checks, timeout: timeout, now: time.Now}
}

// Register adds a check. Not safe for use once the registry is serving.
func (r *Registry) Register(c Check) {
	r.checks = append(r.checks, c)
}

// Run executes every check carrying tag concurrently. An empty tag selects
// all checks. Entries keep registration order.
func (r *Registry) Run(ctx context.Context, tag string) Report {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	selected := r.selected(tag)
	entries := make([]Entry, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range selected {
		g.Go(func() error {
			began := r.now()
			res := runCheck(gctx, c)
			e := Entry{
				Name:        c.Name(),
				Status:      res.Status,
				Duration:    r.now().Sub(began).String(),
				Description: res.Description,
				Data:        res.Data,
			}
			if res.Err != nil {
				e.Error = res.Err.Error()
			}
			entries[i] = e
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, e := range entries {
		if e.Status.rank() > status.rank() {
			status = e.Status
		}
	}
	return Report{
		Status:   status,
		Duration: r.now().Sub(start).String(),
		Checks:   entries,
	}
}

func (r *Registry) selected(tag string) []Check {
	if tag == "" {
		return r.checks
	}
	var out []Check
	for _, c := range r.checks {
		for _, t := range c.Tags() {
			if t == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// runCheck converts a check that overruns the deadline into an Unhealthy
// result.
func runCheck(ctx context.Context, c Check) Result {
	done := make(chan Result, 1)
	go func() { done <- c.Check(ctx) }()

	select {
	case res := <-done:
		if res.Status == "" {
			res.Status = Healthy
		}
		return res
	case <-ctx.Done():
		return Result{Status: Unhealthy, Description: "check timed out", Err: ctx.Err()}
	}
}

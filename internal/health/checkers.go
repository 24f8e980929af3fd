// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"time"
)

const defaultProbeTimeout = 2 * time.Second

// FuncChecker adapts a probe function to Checker. A nil error is healthy.
type FuncChecker struct {
	name    string
	timeout time.Duration
	probe   func(ctx context.Context) error
	ok      string
}

// NewFuncChecker creates a checker that calls probe with a bounded context.
func NewFuncChecker(name, okMessage string, probe func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, timeout: defaultProbeTimeout, probe: probe, ok: okMessage}
}

func (c *FuncChecker) Name() string {
	return c.name
}

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.probe(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: c.ok}
}

// NewWritableDirChecker reports whether a media directory accepts writes.
func NewWritableDirChecker(name string, check func() error) *FuncChecker {
	return NewFuncChecker(name, "writable", func(context.Context) error { return check() })
}

// NewDatabaseChecker reports whether the library database answers pings.
func NewDatabaseChecker(ping func(ctx context.Context) error) *FuncChecker {
	return NewFuncChecker("database", "reachable", ping)
}

// ToolChecker reports whether an optional external tool can be found.
// Missing tools degrade the service but never make it unready, since
// uploads still succeed with warnings.
type ToolChecker struct {
	name      string
	available func() bool
}

// NewToolChecker creates a ToolChecker.
func NewToolChecker(name string, available func() bool) *ToolChecker {
	return &ToolChecker{name: name, available: available}
}

func (c *ToolChecker) Name() string {
	return c.name
}

func (c *ToolChecker) Check(context.Context) CheckResult {
	if c.available() {
		return CheckResult{Status: StatusHealthy, Message: "available"}
	}
	return CheckResult{Status: StatusDegraded, Message: "not found; conversion and thumbnails are skipped"}
}

type informational struct {
	Checker
}

// Informational downgrades unhealthy results of c to degraded so c is
// reported without gating readiness.
func Informational(c Checker) Checker {
	return informational{Checker: c}
}

func (i informational) Check(ctx context.Context) CheckResult {
	res := i.Checker.Check(ctx)
	if res.Status == StatusUnhealthy {
		res.Status = StatusDegraded
	}
	return res
}

// Package progress defines the reporting capability the orchestration layer
// uses to surface per-source status. Acquisition and conversion code never
// touches it; reporters are injected and invoked only around the algorithms.
package progress

import (
	"fmt"
	"io"
	"sync"
)

// Reporter receives status updates for one run.
type Reporter interface {
	Start(text string)
	Update(text string)
	Succeed(text string)
	Warn(text string)
	Fail(text string)
}

// Console writes prefixed status lines to a writer. Safe for concurrent use.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) write(prefix, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", prefix, text)
}

// Start reports the beginning of a unit of work.
func (c *Console) Start(text string) { c.write("...", text) }

// Update reports intermediate progress.
func (c *Console) Update(text string) { c.write("...", text) }

// Succeed reports successful completion.
func (c *Console) Succeed(text string) { c.write("ok ", text) }

// Warn reports a non-fatal problem.
func (c *Console) Warn(text string) { c.write("warn", text) }

// Fail reports failure of a unit of work.
func (c *Console) Fail(text string) { c.write("FAIL", text) }

// Nop discards all reports.
type Nop struct{}

func (Nop) Start(string)   {}
func (Nop) Update(string)  {}
func (Nop) Succeed(string) {}
func (Nop) Warn(string)    {}
func (Nop) Fail(string)    {}

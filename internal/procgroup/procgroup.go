// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup makes context cancellation of external tools reap the
// whole process tree instead of only the direct child.
package procgroup

import (
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait blocks on inherited pipes after the process
// group was killed.
const waitDelay = 5 * time.Second

// Set configures cmd to start in its own process group and to kill that
// group when the command's context is done. Call before cmd.Start.
func Set(cmd *exec.Cmd) {
	set(cmd)
	cmd.WaitDelay = waitDelay
}

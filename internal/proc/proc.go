// Package proc probes and signals OS processes by pid. It is the only place
// that touches process-level syscalls, so tests elsewhere can substitute a
// fake Prober.
package proc

import (
	"errors"
	"fmt"
	"syscall"
)

// Prober answers whether a pid currently identifies a running process and
// requests termination of one. Both are best-effort: pid reuse can produce
// false positives, and Terminate reports "signal sent", not "process dead".
type Prober interface {
	Alive(pid int) bool
	Terminate(pid int) error
}

// OS is the real implementation backed by signals.
type OS struct{}

// Alive reports whether pid exists. Signal 0 performs the existence check
// without delivering anything. EPERM means the process exists but belongs to
// another user, which still counts as alive. Never returns an error: an
// unprobeable pid is treated as dead.
func (OS) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// Terminate sends SIGTERM to pid. A pid that is already gone is not an
// error; the caller only wants it dead.
func (OS) Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	err := syscall.Kill(pid, syscall.SIGTERM)
	if err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signaling pid %d: %w", pid, err)
	}
	return nil
}

// Package prof captures CPU and heap profiles of long batch audits.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Session is an active profiling session. The zero paths disable the
// corresponding profile.
type Session struct {
	memPath string
	cpuFile *os.File
	stopped bool
}

// Start begins CPU profiling into cpuPath when it is set; the heap profile is
// written to memPath by Stop.
func Start(cpuPath, memPath string) (*Session, error) {
	s := &Session{memPath: memPath}
	if cpuPath == "" {
		return s, nil
	}
	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start cpu profile: %w", err)
	}
	s.cpuFile = f
	return s, nil
}

// Stop ends the CPU profile and writes the heap profile. Calling it again
// does nothing.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.memPath != "" {
		errs = append(errs, writeHeap(s.memPath))
	}
	return errors.Join(errs...)
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

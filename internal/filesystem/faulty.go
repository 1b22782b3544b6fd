package filesystem

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInjected is the error returned by FaultyFS when a fault carries none.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail temp file writes after this many bytes. -1 to disable.
	FailOnClose    bool
	FailOnOpen     bool // Fail OpenRead of matching names
	FailOnReplace  bool // Fail Replace onto matching names
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FileSystem

	mu      sync.Mutex
	rules   map[string]Fault // Name pattern -> Fault
	Default Fault            // Applies to temp files and to names no rule matches

	replaced int
}

// NewFaultyFS wraps inner.
func NewFaultyFS(inner FileSystem) *FaultyFS {
	return &FaultyFS{
		FileSystem: inner,
		rules:      make(map[string]Fault),
		Default:    Fault{FailAfterBytes: -1},
	}
}

// AddRule adds a fault injection rule for names containing pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// Replaced returns how many Replace calls went through.
func (f *FaultyFS) Replaced() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replaced
}

func (f *FaultyFS) fault(name string) Fault {
	f.mu.Lock()
	defer f.mu.Unlock()

	fault := f.Default
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	return fault
}

func (f *FaultyFS) OpenRead(ctx context.Context, name string) (io.ReadCloser, error) {
	if fault := f.fault(name); fault.FailOnOpen {
		return nil, fault.err()
	}
	return f.FileSystem.OpenRead(ctx, name)
}

func (f *FaultyFS) CreateTemp(ctx context.Context) (TempFile, error) {
	file, err := f.FileSystem.CreateTemp(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	fault := f.Default
	f.mu.Unlock()
	return &faultyFile{TempFile: file, fault: fault}, nil
}

func (f *FaultyFS) Replace(ctx context.Context, tempName, name string) error {
	if fault := f.fault(name); fault.FailOnReplace {
		return fault.err()
	}
	if err := f.FileSystem.Replace(ctx, tempName, name); err != nil {
		return err
	}

	f.mu.Lock()
	f.replaced++
	f.mu.Unlock()
	return nil
}

type faultyFile struct {
	TempFile
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}

	n, err := ff.TempFile.Write(p)
	if n > 0 {
		ff.written += int64(n)
	}
	return n, err
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.TempFile.Close()
		return ff.fault.err()
	}
	return ff.TempFile.Close()
}

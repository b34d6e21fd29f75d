package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session owns the mutable state of one in-progress capture. All state is
// guarded by a single mutex so that an append either completes fully before
// the stop flag is observed or is rejected fully after, and so finalize
// flushes a consistent snapshot with no interleaved appends.
type Session struct {
	mu          sync.Mutex
	name        string
	bundleDir   string
	status      Status
	operations  []Operation
	screenshots []string
	htmlPaths   []string
	createdAt   time.Time

	// info caches the finalize result once the session is Stopped, making
	// repeated finalize calls idempotent.
	info *Info
}

// NewSession creates a session and its bundle directory skeleton under
// outputDir/name. The session starts Active.
func NewSession(name, outputDir string) (*Session, error) {
	if name == "" {
		return nil, fmt.Errorf("session name is required")
	}

	bundleDir := filepath.Join(outputDir, name)
	for _, dir := range []string{bundleDir, filepath.Join(bundleDir, ScreenshotsDir), filepath.Join(bundleDir, HTMLDir)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create bundle directory: %w", err)
		}
	}

	return &Session{
		name:      name,
		bundleDir: bundleDir,
		status:    StatusActive,
		createdAt: time.Now(),
	}, nil
}

// Name returns the session's unique name.
func (s *Session) Name() string {
	return s.name
}

// BundleDir returns the directory the session's bundle is written under.
func (s *Session) BundleDir() string {
	return s.bundleDir
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// OperationCount returns the number of operations recorded so far.
func (s *Session) OperationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.operations)
}

// Operations returns a snapshot copy of the recorded operations.
func (s *Session) Operations() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]Operation, len(s.operations))
	copy(ops, s.operations)
	return ops
}

// Record appends one operation, writing the screenshot and HTML snapshot
// captures into the bundle when provided. It returns ErrSessionStopped once
// the stop flag has been observed; the operation is then not recorded in
// any part.
//
// Capture writes are best effort: a failed screenshot or snapshot write
// leaves the corresponding path empty on the operation rather than failing
// the append, matching how interrupted captures behave mid-navigation.
func (s *Session) Record(op Operation, screenshot []byte, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ErrSessionStopped
	}

	op.Step = len(s.operations) + 1
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now()
	}

	if len(screenshot) > 0 {
		rel := filepath.Join(ScreenshotsDir, fmt.Sprintf("step_%d.png", op.Step))
		if err := os.WriteFile(filepath.Join(s.bundleDir, rel), screenshot, 0o640); err == nil {
			op.Screenshot = rel
			s.screenshots = append(s.screenshots, rel)
		}
	}

	if html != "" {
		rel := filepath.Join(HTMLDir, fmt.Sprintf("step_%d.html", op.Step))
		cleaned, err := CleanHTML(html, DefaultMaxHTMLBytes)
		if err != nil {
			cleaned = html
		}
		if err := os.WriteFile(filepath.Join(s.bundleDir, rel), []byte(cleaned), 0o640); err == nil {
			op.HTML = rel
			s.htmlPaths = append(s.htmlPaths, rel)
		}
	}

	s.operations = append(s.operations, op)
	return nil
}

// RequestStop raises the stop flag, transitioning an Active session to
// Stopping. Calling it on a Stopping or Stopped session is a no-op.
func (s *Session) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusActive {
		s.status = StatusStopping
	}
}

// Stopped reports whether the stop flag has been observed. Interceptors
// check this before forwarding, so calls issued after a stop forward
// without recording.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status != StatusActive
}

// Finalize transitions the session to Stopped, flushes the bundle to disk,
// and returns the Info summary. It is idempotent: once the session is
// Stopped it returns the cached Info without re-flushing and without error.
func (s *Session) Finalize() (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusStopped {
		return s.info, nil
	}

	// Active sessions pass through Stopping so the flag is set before the
	// flush begins.
	s.status = StatusStopping

	if err := s.flushLocked(); err != nil {
		return nil, fmt.Errorf("failed to flush session %q: %w", s.name, err)
	}

	info := &Info{
		SessionName:     s.name,
		OperationCount:  len(s.operations),
		ScreenshotPaths: append([]string(nil), s.screenshots...),
		HTMLPaths:       append([]string(nil), s.htmlPaths...),
		BundlePath:      s.bundleDir,
	}
	if len(s.screenshots) > 0 {
		info.FinalScreenshot = filepath.Join(s.bundleDir, s.screenshots[len(s.screenshots)-1])
	}

	s.info = info
	s.status = StatusStopped
	return info, nil
}

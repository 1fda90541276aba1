package invocationlock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"worthit/internal/logging"
	"worthit/internal/services"
)

const retryDelay = 100 * time.Millisecond

// Lease represents a held invocation lock. Release it when the pipeline
// completes; the OS releases it regardless if the process dies.
type Lease struct {
	scope  string
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// Manager acquires per-scope invocation locks in a shared directory.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager constructs a lock manager rooted at the shared lock directory.
func NewManager(dir string, logger *slog.Logger) *Manager {
	return &Manager{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "invocationlock"),
	}
}

// TryAcquire attempts to take the lock for scope, retrying until timeout.
// A lock held elsewhere surfaces services.ErrLockHeld; the caller must then
// exit without side effects.
func (m *Manager) TryAcquire(ctx context.Context, scope string, timeout time.Duration) (*Lease, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, services.Wrap(services.ErrValidation, "invocationlock", "acquire", "scope required", nil)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(m.dir, sanitizeScope(scope)+".lock")
	fileLock := flock.New(path)

	lockCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ok, err := fileLock.TryLockContext(lockCtx, retryDelay)
	if err != nil && lockCtx.Err() == nil {
		return nil, fmt.Errorf("acquire lock %q: %w", scope, err)
	}
	if !ok {
		m.logger.Debug("invocation lock already held",
			logging.String("scope", scope),
			logging.String("path", path))
		return nil, services.Wrap(services.ErrLockHeld, "invocationlock", "acquire", "scope "+scope, nil)
	}

	// Record holder metadata for diagnostics. Best effort; the advisory lock
	// is the actual guard.
	meta := fmt.Sprintf("pid=%d started=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	_ = os.WriteFile(path, []byte(meta), 0o644)

	m.logger.Debug("invocation lock acquired",
		logging.String("scope", scope),
		logging.String("path", path))

	return &Lease{scope: scope, path: path, lock: fileLock, logger: m.logger}, nil
}

// Release unlocks the lease. Safe to call on a nil lease.
func (l *Lease) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %q: %w", l.scope, err)
	}
	l.logger.Debug("invocation lock released", logging.String("scope", l.scope))
	return nil
}

// Scope returns the scope this lease guards.
func (l *Lease) Scope() string {
	if l == nil {
		return ""
	}
	return l.scope
}

func sanitizeScope(scope string) string {
	var b strings.Builder
	for _, r := range scope {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

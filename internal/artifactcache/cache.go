package artifactcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"worthit/internal/logging"
	"worthit/internal/state"
	"worthit/internal/videoid"
)

// Kind identifies an artifact namespace. Kinds are independent of one another.
type Kind string

const (
	KindTranscript      Kind = "transcript"
	KindRawComments     Kind = "rawComments"
	KindContentAnalysis Kind = "contentAnalysis"
	KindCommentInsights Kind = "commentInsights"
	KindQAHistory       Kind = "qaHistory"
	KindRecentIndex     Kind = "recentIndex"
)

// ErrMiss reports that neither tier holds the requested artifact.
var ErrMiss = errors.New("artifact cache miss")

// timestampLayout pads fractional seconds to a fixed width so that the SQL
// text comparison on written_at matches time order. RFC3339Nano trims
// trailing zeros, which breaks lexicographic ordering across writes whose
// fractions render at different widths.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is a cached artifact with its write timestamp.
type Entry struct {
	Payload   []byte
	WrittenAt time.Time
}

type memKey struct {
	id   videoid.ID
	kind Kind
}

// Cache is the two-tier artifact store. One instance per process; both
// processes share the durable tier through the state database.
type Cache struct {
	db     *state.DB
	logger *slog.Logger

	mu  sync.RWMutex
	mem map[memKey]Entry
}

// New constructs a cache over the shared state database.
func New(db *state.DB, logger *slog.Logger) *Cache {
	return &Cache{
		db:     db,
		logger: logging.NewComponentLogger(logger, "artifactcache"),
		mem:    make(map[memKey]Entry),
	}
}

// Get returns the cached artifact for (id, kind), consulting the volatile
// tier first and falling back to the durable tier. Returns ErrMiss when
// neither tier holds it.
func (c *Cache) Get(ctx context.Context, id videoid.ID, kind Kind) (Entry, error) {
	key := memKey{id: id, kind: kind}

	c.mu.RLock()
	entry, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return entry, nil
	}

	entry, err := c.loadDurable(ctx, id, kind)
	if err != nil {
		return Entry{}, err
	}

	c.mu.Lock()
	c.mem[key] = entry
	c.mu.Unlock()
	return entry, nil
}

// Put stores an artifact, durable tier first. The durable write is dropped
// when a newer write for the same key already exists; the volatile tier is
// only updated when the durable write applied. Returns whether the write won.
func (c *Cache) Put(ctx context.Context, id videoid.ID, kind Kind, payload []byte, writtenAt time.Time) (bool, error) {
	if strings.TrimSpace(string(id)) == "" {
		return false, errors.New("artifact cache: video id required")
	}
	timestamp := writtenAt.UTC().Format(timestampLayout)

	res, err := c.db.Handle().ExecContext(ctx,
		`INSERT INTO artifacts (video_id, kind, payload, written_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (video_id, kind) DO UPDATE SET
             payload = excluded.payload,
             written_at = excluded.written_at
         WHERE excluded.written_at >= artifacts.written_at`,
		id.String(), string(kind), payload, timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("persist artifact: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("persist artifact: rows affected: %w", err)
	}
	if affected == 0 {
		c.logger.Debug("dropped stale artifact write",
			logging.String(logging.FieldVideoID, id.String()),
			logging.String(logging.FieldArtifact, string(kind)),
			logging.Time("written_at", writtenAt))
		return false, nil
	}

	c.mu.Lock()
	key := memKey{id: id, kind: kind}
	if existing, ok := c.mem[key]; !ok || !existing.WrittenAt.After(writtenAt) {
		c.mem[key] = Entry{Payload: payload, WrittenAt: writtenAt.UTC()}
	}
	c.mu.Unlock()
	return true, nil
}

// Delete removes one (id, kind) entry from both tiers.
func (c *Cache) Delete(ctx context.Context, id videoid.ID, kind Kind) error {
	if _, err := c.db.Handle().ExecContext(ctx,
		"DELETE FROM artifacts WHERE video_id = ? AND kind = ?",
		id.String(), string(kind),
	); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	c.mu.Lock()
	delete(c.mem, memKey{id: id, kind: kind})
	c.mu.Unlock()
	return nil
}

// ClearMemoryTier drops the volatile tier. Durable entries are untouched and
// will repopulate memory on the next Get.
func (c *Cache) ClearMemoryTier() {
	c.mu.Lock()
	c.mem = make(map[memKey]Entry)
	c.mu.Unlock()
}

// ClearAll removes every artifact from both tiers.
func (c *Cache) ClearAll(ctx context.Context) error {
	if _, err := c.db.Handle().ExecContext(ctx, "DELETE FROM artifacts"); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}
	c.ClearMemoryTier()
	return nil
}

// List returns the identifiers holding a given kind, newest write first.
func (c *Cache) List(ctx context.Context, kind Kind) ([]videoid.ID, error) {
	rows, err := c.db.Handle().QueryContext(ctx,
		"SELECT video_id FROM artifacts WHERE kind = ? ORDER BY written_at DESC",
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var ids []videoid.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		ids = append(ids, videoid.ID(id))
	}
	return ids, rows.Err()
}

func (c *Cache) loadDurable(ctx context.Context, id videoid.ID, kind Kind) (Entry, error) {
	var payload []byte
	var writtenAt string
	err := c.db.Handle().QueryRowContext(ctx,
		"SELECT payload, written_at FROM artifacts WHERE video_id = ? AND kind = ?",
		id.String(), string(kind),
	).Scan(&payload, &writtenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load artifact: %w", err)
	}

	ts, err := time.Parse(timestampLayout, writtenAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse artifact timestamp %q: %w", writtenAt, err)
	}
	return Entry{Payload: payload, WrittenAt: ts}, nil
}

// Package contrib keeps the viewer contribution leaderboard. Counts are
// accumulated in memory and flushed to Postgres in batches so the bridge's
// event loop never waits on the database.
package contrib

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultFlushInterval is how often pending counts are written out.
const DefaultFlushInterval = 5 * time.Second

// Entry is one leaderboard row.
type Entry struct {
	AuthorID    string
	DisplayName string
	Total       int
}

type pendingEntry struct {
	displayName string
	count       int
}

// Store accumulates contributions and periodically upserts them. It satisfies
// the bridge's ContributionSink.
type Store struct {
	db       *sql.DB
	interval time.Duration

	mu      sync.Mutex
	pending map[string]pendingEntry
}

// NewStore builds a store flushing every interval (zero or below falls back to
// DefaultFlushInterval).
func NewStore(db *sql.DB, interval time.Duration) *Store {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Store{
		db:       db,
		interval: interval,
		pending:  make(map[string]pendingEntry),
	}
}

// RecordContribution adds count for the author. It only touches memory and
// never blocks on the database.
func (s *Store) RecordContribution(authorID, displayName string, count int) {
	if authorID == "" || count <= 0 {
		return
	}
	s.mu.Lock()
	e := s.pending[authorID]
	e.count += count
	if displayName != "" {
		e.displayName = displayName
	}
	s.pending[authorID] = e
	s.mu.Unlock()
}

// Start runs the flush loop until ctx is canceled, then makes a final flush so
// shutdown does not drop counts.
func (s *Store) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := s.Flush(fctx); err != nil {
					slog.Error("final contribution flush failed", slog.Any("error", err))
				}
				cancel()
				return
			case <-ticker.C:
				if err := s.Flush(ctx); err != nil {
					slog.Error("contribution flush failed", slog.Any("error", err))
				}
			}
		}
	}()
}

// Flush writes all pending counts in one transaction. Failed batches are
// re-merged so the next flush retries them.
func (s *Store) Flush(ctx context.Context) error {
	batch := s.drain()
	if len(batch) == 0 {
		return nil
	}
	if err := s.upsert(ctx, batch); err != nil {
		s.remerge(batch)
		return err
	}
	return nil
}

func (s *Store) drain() map[string]pendingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = make(map[string]pendingEntry)
	return batch
}

func (s *Store) remerge(batch map[string]pendingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range batch {
		cur := s.pending[id]
		cur.count += e.count
		if cur.displayName == "" {
			cur.displayName = e.displayName
		}
		s.pending[id] = cur
	}
}

func (s *Store) upsert(ctx context.Context, batch map[string]pendingEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin contribution batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO contributions(author_id, display_name, total, updated_at)
		  VALUES($1,$2,$3,NOW())
		  ON CONFLICT(author_id) DO UPDATE SET
		    total=contributions.total+EXCLUDED.total,
		    display_name=CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE contributions.display_name END,
		    updated_at=NOW()`
	for id, e := range batch {
		if _, err := tx.ExecContext(ctx, q, id, e.displayName, e.count); err != nil {
			return fmt.Errorf("upsert contribution for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Top returns the n highest contributors.
func (s *Store) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT author_id, COALESCE(display_name, ''), total FROM contributions ORDER BY total DESC, author_id LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.AuthorID, &e.DisplayName, &e.Total); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PendingCount reports how many authors have unflushed counts.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

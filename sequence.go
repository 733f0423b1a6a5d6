package identity

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// NextSequenceValueSQL performs the increment-and-fetch as one statement so
// concurrent allocations can never read the same value. The counter row is
// created lazily; the first allocation returns 1.
var NextSequenceValueSQL = `INSERT INTO "counters" AS "cnt" ("name", "value")
VALUES (?, 1)
ON CONFLICT ("name") DO UPDATE SET
	"value" = "cnt"."value" + 1
RETURNING "value";`

// Sequences issues unique, strictly increasing integers from named counters.
type Sequences interface {
	Next(ctx context.Context, name string) (int64, error)
	NextTx(ctx context.Context, tx bun.IDB, name string) (int64, error)
}

type sequences struct {
	db *bun.DB
}

// NewSequences returns a store-backed allocator. The increment must stay a
// single statement; a read-modify-write here would race across processes.
func NewSequences(db *bun.DB) Sequences {
	return &sequences{db: db}
}

func (s *sequences) Next(ctx context.Context, name string) (int64, error) {
	return s.NextTx(ctx, s.db, name)
}

func (s *sequences) NextTx(ctx context.Context, tx bun.IDB, name string) (int64, error) {
	var value int64
	if err := tx.NewRaw(NextSequenceValueSQL, name).Scan(ctx, &value); err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to allocate sequence value").
			WithMetadata(map[string]any{"sequence": name})
	}
	return value, nil
}

// MemorySequences is the in-process, mutex-guarded fallback. It satisfies
// the same contract for a single process only; cross-process deployments
// need the store-backed allocator.
type MemorySequences struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemorySequences() *MemorySequences {
	return &MemorySequences{values: map[string]int64{}}
}

// Seed positions a counter's high-water mark, e.g. when importing records.
func (s *MemorySequences) Seed(name string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value > s.values[name] {
		s.values[name] = value
	}
}

func (s *MemorySequences) Next(ctx context.Context, name string) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during sequence allocation")
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name]++
	return s.values[name], nil
}

func (s *MemorySequences) NextTx(ctx context.Context, tx bun.IDB, name string) (int64, error) {
	return s.Next(ctx, name)
}

var _ Sequences = (*MemorySequences)(nil)

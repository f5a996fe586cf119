package executor

import (
	"context"

	"go.uber.org/zap"
)

// undoFn compensates a single external effect.
type undoFn func(ctx context.Context) error

type journalEntry struct {
	name string
	undo undoFn
}

// journal is the undo log backing the all-or-nothing guarantee. Each external
// effect (wrap, authorization, pool leg, intermediate pull) records a
// compensating action; on failure the log unwinds in reverse order.
type journal struct {
	entries []journalEntry
	logger  *zap.Logger
}

func newJournal(logger *zap.Logger) *journal {
	return &journal{logger: logger}
}

// record registers a compensating action for an effect that has been applied.
func (j *journal) record(name string, undo undoFn) {
	j.entries = append(j.entries, journalEntry{name: name, undo: undo})
}

// unwind runs the recorded compensations newest-first. Compensation failures
// are logged and counted but never mask the error that triggered the unwind.
func (j *journal) unwind(ctx context.Context) int {
	failed := 0
	for i := len(j.entries) - 1; i >= 0; i-- {
		entry := j.entries[i]
		if err := entry.undo(ctx); err != nil {
			failed++
			j.logger.Error("rollback step failed",
				zap.String("step", entry.name),
				zap.Error(err),
			)
		}
	}
	j.entries = j.entries[:0]
	return failed
}

// discard drops the recorded compensations after a successful commit.
func (j *journal) discard() {
	j.entries = j.entries[:0]
}

func (j *journal) depth() int {
	return len(j.entries)
}

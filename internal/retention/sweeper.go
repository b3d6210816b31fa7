package retention

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

const sweepInterval = 24 * time.Hour

// PartitionStore is the slice of the index store the sweeper needs.
type PartitionStore interface {
	ListPartitions(ctx context.Context) ([]string, error)
	DeletePartition(ctx context.Context, name string) error
}

// Sweeper deletes daily partitions older than the retention window.
type Sweeper struct {
	store   PartitionStore
	prefix  string
	days    int
	clock   func() time.Time
	log     *slog.Logger
	deleted func()
}

func NewSweeper(store PartitionStore, prefix string, days int, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:  store,
		prefix: prefix,
		days:   days,
		clock:  time.Now,
		log:    log,
	}
}

// SetClock overrides the time source.
func (s *Sweeper) SetClock(clock func() time.Time) { s.clock = clock }

// SetDeleteHook registers a callback invoked once per deleted partition.
func (s *Sweeper) SetDeleteHook(fn func()) { s.deleted = fn }

// Run sweeps immediately, then once per interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce deletes every partition whose date is strictly older than the
// cutoff (now minus the retention window). The cutoff-day partition itself
// is retained. Names that do not parse as partition dates are skipped, and
// a failed delete does not stop the sweep. Sweeping an already-clean set
// deletes nothing, so repeat runs are harmless.
func (s *Sweeper) RunOnce(ctx context.Context) {
	cutoff := s.clock().UTC().AddDate(0, 0, -s.days).Format("2006-01-02")

	names, err := s.store.ListPartitions(ctx)
	if err != nil {
		s.log.Error("retention: list partitions failed", "err", err)
		return
	}

	removed := 0
	for _, name := range names {
		date, ok := s.partitionDate(name)
		if !ok {
			s.log.Warn("retention: skipping unrecognized index", "index", name)
			continue
		}
		if date >= cutoff {
			continue
		}
		if err := s.store.DeletePartition(ctx, name); err != nil {
			s.log.Error("retention: delete failed", "index", name, "err", err)
			continue
		}
		removed++
		if s.deleted != nil {
			s.deleted()
		}
		s.log.Info("retention: partition deleted", "index", name)
	}
	s.log.Info("retention sweep complete", "cutoff", cutoff, "deleted", removed)
}

// partitionDate extracts and validates the YYYY-MM-DD suffix.
func (s *Sweeper) partitionDate(name string) (string, bool) {
	suffix, ok := strings.CutPrefix(name, s.prefix+"-")
	if !ok {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", suffix); err != nil {
		return "", false
	}
	return suffix, true
}

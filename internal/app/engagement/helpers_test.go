package engagement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/habitloop/habitloop/internal/app/engagement"
	"github.com/habitloop/habitloop/internal/clock"
	"github.com/habitloop/habitloop/internal/domain"
	"github.com/habitloop/habitloop/internal/infra/sqlite"
)

// monday is 2025-03-10 09:30 UTC.
var monday = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// movableClock returns a clock reading *now and a setter.
func movableClock(start time.Time) (clock.Clock, func(time.Time)) {
	var mu sync.Mutex
	now := start
	clk := clock.Func(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})
	return clk, func(t time.Time) {
		mu.Lock()
		now = t
		mu.Unlock()
	}
}

// flakyStore wraps a store and fails on demand.
type flakyStore struct {
	domain.StateStore
	failLoad bool
	failSave bool
}

var errDiskGone = errors.New("disk gone")

func (s *flakyStore) Load(key string) ([]byte, bool, error) {
	if s.failLoad {
		return nil, false, errDiskGone
	}
	return s.StateStore.Load(key)
}

func (s *flakyStore) Save(key string, value []byte) error {
	if s.failSave {
		return errDiskGone
	}
	return s.StateStore.Save(key, value)
}

// scriptedRandom replays fixed draws. An exhausted Float64 queue returns
// 0.999 so every probability check fails; an exhausted Intn queue returns 0.
type scriptedRandom struct {
	floats []float64
	ints   []int
}

func (r *scriptedRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.999
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRandom) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

// recorder collects notifications.
type recorder struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recorder) Notify(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newEngine(t *testing.T, opts engagement.Options) *engagement.Engine {
	t.Helper()
	if opts.Store == nil {
		opts.Store = testDB(t)
	}
	if opts.Clock == nil {
		opts.Clock = clock.Fixed(monday)
	}
	if opts.Random == nil {
		opts.Random = engagement.NewRandom(1)
	}
	e, err := engagement.NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func record(d string, hour int) domain.CheckInRecord {
	day, _ := time.Parse(domain.DateLayout, d)
	return domain.CheckInRecord{Date: d, Timestamp: day.Add(time.Duration(hour) * time.Hour)}
}

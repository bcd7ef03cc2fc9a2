package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

// memoryStore mimics the reservation queries of the repository.
type memoryStore struct {
	mu      sync.Mutex
	rows    map[int64]models.Reservation
	batches int
	findErr error
}

func newMemoryStore(rows ...models.Reservation) *memoryStore {
	s := &memoryStore{rows: map[int64]models.Reservation{}}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *memoryStore) sorted() []models.Reservation {
	var list []models.Reservation
	for _, r := range s.rows {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *memoryStore) FindDueForReminder(_ context.Context, now time.Time) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var due []models.Reservation
	for _, r := range s.sorted() {
		if r.DateTime.After(now) && !r.DateTime.After(now.Add(24*time.Hour)) && (!r.Reminded24h || !r.Reminded12h) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (s *memoryStore) UpdateReminderFlags(_ context.Context, batch []models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	for _, b := range batch {
		r := s.rows[b.ID]
		r.Reminded24h = r.Reminded24h || b.Reminded24h
		r.Reminded12h = r.Reminded12h || b.Reminded12h
		s.rows[b.ID] = r
	}
	return nil
}

func (s *memoryStore) FindDueForSync(_ context.Context, now time.Time, grace time.Duration) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var due []models.Reservation
	for _, r := range s.sorted() {
		if r.Confirmed && r.HasProviderID() && r.DateTime.After(now) && !r.CreatedAt.After(now.Add(-grace)) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (s *memoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *memoryStore) get(id int64) (models.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	return r, ok
}

type notification struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, chatID int64, reply models.Reply) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{chatID: chatID, text: reply.Text})
	return nil
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestReminderSequence(t *testing.T) {
	at := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	store := newMemoryStore(models.Reservation{ID: 1, ProviderID: int64Ptr(555), UserID: 42, DateTime: at, Confirmed: true})
	notifier := &fakeNotifier{}
	c := &clock{}
	job := NewReminderJob(store, notifier, 0, msk, c.Now)
	ctx := context.Background()

	c.now = at.Add(-23*time.Hour - 59*time.Minute)
	require.NoError(t, job.RunOnce(ctx))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(42), notifier.sent[0].chatID)
	assert.Equal(t, "⏰ Напоминание: ваша запись на 2024-06-01 14:00 через 24 часа.", notifier.sent[0].text)
	r, _ := store.get(1)
	assert.True(t, r.Reminded24h)
	assert.False(t, r.Reminded12h)

	c.now = at.Add(-23*time.Hour - 50*time.Minute)
	require.NoError(t, job.RunOnce(ctx))
	assert.Len(t, notifier.sent, 1)

	c.now = at.Add(-11 * time.Hour)
	require.NoError(t, job.RunOnce(ctx))
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "⏰ Напоминание: ваша запись на 2024-06-01 14:00 через 12 часов.", notifier.sent[1].text)
	r, _ = store.get(1)
	assert.True(t, r.Reminded12h)

	c.now = at.Add(-10 * time.Hour)
	require.NoError(t, job.RunOnce(ctx))
	assert.Len(t, notifier.sent, 2)
	assert.Equal(t, 2, store.batches)
}

func TestReminderLateDiscoverySendsOnlyTwelveHour(t *testing.T) {
	at := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	store := newMemoryStore(models.Reservation{ID: 1, UserID: 42, DateTime: at, Confirmed: true})
	notifier := &fakeNotifier{}
	job := NewReminderJob(store, notifier, 0, msk, func() time.Time { return at.Add(-5 * time.Hour) })

	require.NoError(t, job.RunOnce(context.Background()))
	require.NoError(t, job.RunOnce(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].text, "через 12 часов")
	r, _ := store.get(1)
	assert.True(t, r.Reminded12h)
	assert.True(t, r.Reminded24h)
}

func TestReminderSendFailureKeepsFlags(t *testing.T) {
	at := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	store := newMemoryStore(
		models.Reservation{ID: 1, UserID: 42, DateTime: at},
		models.Reservation{ID: 2, UserID: 43, DateTime: at.Add(48 * time.Hour)},
	)
	notifier := &fakeNotifier{err: errors.New("chat not found")}
	job := NewReminderJob(store, notifier, 0, msk, func() time.Time { return at.Add(-20 * time.Hour) })

	require.NoError(t, job.RunOnce(context.Background()))
	r, _ := store.get(1)
	assert.False(t, r.Reminded24h)
	assert.Equal(t, 0, store.batches)

	notifier.err = nil
	require.NoError(t, job.RunOnce(context.Background()))
	require.Len(t, notifier.sent, 1)
	r, _ = store.get(1)
	assert.True(t, r.Reminded24h)
	far, _ := store.get(2)
	assert.False(t, far.Reminded24h)
}

func TestReminderStoreError(t *testing.T) {
	store := newMemoryStore()
	store.findErr = errors.New("db is down")
	job := NewReminderJob(store, &fakeNotifier{}, 10, msk, nil)
	assert.Error(t, job.RunOnce(context.Background()))
}

func TestReminderRateLimitHonoursContext(t *testing.T) {
	at := time.Now().Add(20 * time.Hour)
	var rows []models.Reservation
	for i := int64(1); i <= 3; i++ {
		rows = append(rows, models.Reservation{ID: i, UserID: i, DateTime: at})
	}
	store := newMemoryStore(rows...)
	notifier := &fakeNotifier{}
	job := NewReminderJob(store, notifier, 0.001, msk, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, job.RunOnce(ctx))

	// лимитер пропускает только первое сообщение
	assert.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, store.batches)
}

type fakeChecker struct {
	mu      sync.Mutex
	results map[int64]error
	checked []int64
}

func (f *fakeChecker) GetRecord(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, id)
	return f.results[id]
}

func TestSyncJob(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)
	store := newMemoryStore(
		models.Reservation{ID: 1, ProviderID: int64Ptr(101), DateTime: future, Confirmed: true, CreatedAt: created},
		models.Reservation{ID: 2, ProviderID: int64Ptr(102), DateTime: future, Confirmed: true, CreatedAt: created},
		models.Reservation{ID: 3, ProviderID: int64Ptr(103), DateTime: future, Confirmed: true, CreatedAt: created},
		models.Reservation{ID: 4, ProviderID: int64Ptr(104), DateTime: future, Confirmed: true, CreatedAt: created},
		// слишком свежая
		models.Reservation{ID: 5, ProviderID: int64Ptr(105), DateTime: future, Confirmed: true, CreatedAt: now.Add(-time.Minute)},
		// уже прошла
		models.Reservation{ID: 6, ProviderID: int64Ptr(106), DateTime: now.Add(-time.Hour), Confirmed: true, CreatedAt: created},
	)
	checker := &fakeChecker{results: map[int64]error{
		102: &models.ProviderError{Op: "get-record", Kind: models.KindRejected, Message: "Record not found"},
		103: &models.ProviderError{Op: "get-record", Kind: models.KindNetwork},
		104: &models.ProviderError{Op: "get-record", Kind: models.KindTimeout},
	}}
	job := NewSyncJob(store, checker, 5*time.Minute, func() time.Time { return now })

	require.NoError(t, job.RunOnce(context.Background()))

	assert.Equal(t, []int64{101, 102, 103, 104}, checker.checked)
	for id, wantKept := range map[int64]bool{1: true, 2: false, 3: true, 4: true, 5: true, 6: true} {
		_, ok := store.get(id)
		assert.Equal(t, wantKept, ok, "reservation %d", id)
	}
}

func TestSyncJobStoreError(t *testing.T) {
	store := newMemoryStore()
	store.findErr = errors.New("db is down")
	job := NewSyncJob(store, &fakeChecker{}, time.Minute, nil)
	assert.Error(t, job.RunOnce(context.Background()))
}

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (j funcJob) Name() string                      { return j.name }
func (j funcJob) RunOnce(ctx context.Context) error { return j.run(ctx) }

func TestRunnerRunsJobsAtStart(t *testing.T) {
	var runs int32
	runner := NewRunner(context.Background())
	runner.Add(funcJob{name: "count", run: func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("ignored")
	}}, time.Hour)
	runner.Add(funcJob{name: "panic", run: func(context.Context) error {
		panic("boom")
	}}, time.Hour)

	runner.Start()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 10*time.Millisecond)
	runner.Stop()
}

func TestRunnerSkipsOverlappingRunsAndStops(t *testing.T) {
	var runs int32
	started := make(chan struct{}, 1)
	runner := NewRunner(context.Background())
	runner.Add(funcJob{name: "slow", run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		started <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}}, time.Second)

	runner.Start()
	<-started
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	done := make(chan struct{})
	go func() {
		runner.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleWithDates(n int) models.Schedule {
	s := models.Schedule{}
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s[start.AddDate(0, 0, i).Format(models.DateLayout)] = map[string]models.Slot{"10:00": {Available: true}}
	}
	return s
}

func TestSelectingDatePagination(t *testing.T) {
	tests := []struct {
		dates     int
		wantPages int
	}{
		{dates: 0, wantPages: 0},
		{dates: 1, wantPages: 1},
		{dates: 7, wantPages: 1},
		{dates: 8, wantPages: 2},
		{dates: 14, wantPages: 2},
		{dates: 15, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d dates", tt.dates), func(t *testing.T) {
			st := NewSelectingDate(models.Cooperator{}, models.Service{}, scheduleWithDates(tt.dates), 7)
			assert.Equal(t, tt.wantPages, st.PageCount())

			seen := 0
			for {
				seen += len(st.PageDates())
				next, moved := st.Turn(1)
				if !moved {
					break
				}
				st = next
			}
			assert.Equal(t, tt.dates, seen)
		})
	}
}

func TestSelectingDateTurnIsClamped(t *testing.T) {
	st := NewSelectingDate(models.Cooperator{}, models.Service{}, scheduleWithDates(10), 7)

	prev, moved := st.Turn(-1)
	assert.False(t, moved)
	assert.Equal(t, 0, prev.Page)
	assert.False(t, st.HasPrev())
	assert.True(t, st.HasNext())

	last, moved := st.Turn(1)
	require.True(t, moved)
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, []string{"2024-06-08", "2024-06-09", "2024-06-10"}, last.PageDates())
	assert.True(t, last.HasPrev())
	assert.False(t, last.HasNext())

	beyond, moved := last.Turn(1)
	assert.False(t, moved)
	assert.Equal(t, 1, beyond.Page)

	back, moved := last.Turn(-5)
	assert.True(t, moved)
	assert.Equal(t, 0, back.Page)
}

func TestStore(t *testing.T) {
	s := NewStore()
	assert.Equal(t, KindIdle, s.Get(1).Kind())

	s.Put(1, EnteringName{})
	assert.Equal(t, KindEnteringName, s.Get(1).Kind())
	assert.Equal(t, KindIdle, s.Get(2).Kind())
	assert.Equal(t, 1, s.Len())

	s.Put(1, Idle{})
	assert.Equal(t, 0, s.Len())

	s.Put(2, Cancelling{})
	s.Reset(2)
	assert.Equal(t, KindIdle, s.Get(2).Kind())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "confirming_code", KindConfirmingCode.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestSerializerKeepsOrderPerKey(t *testing.T) {
	s := NewSerializer()

	var mu sync.Mutex
	got := map[int64][]int{}
	var inFlight [3]int32

	for i := 0; i < 50; i++ {
		for key := int64(0); key < 3; key++ {
			i, key := i, key
			require.True(t, s.Submit(key, func() {
				if n := atomic.AddInt32(&inFlight[key], 1); n != 1 {
					t.Errorf("key %d has %d concurrent tasks", key, n)
				}
				time.Sleep(time.Microsecond)
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				atomic.AddInt32(&inFlight[key], -1)
			}))
		}
	}
	s.Close()

	for key := int64(0); key < 3; key++ {
		require.Len(t, got[key], 50)
		for i, v := range got[key] {
			assert.Equal(t, i, v)
		}
	}
}

func TestSerializerKeysAreIndependent(t *testing.T) {
	s := NewSerializer()
	release := make(chan struct{})
	done := make(chan struct{})

	s.Submit(1, func() { <-release })
	s.Submit(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task of user 2 waited for user 1")
	}
	close(release)
	s.Close()
}

func TestSerializerRejectsAfterClose(t *testing.T) {
	s := NewSerializer()
	s.Close()
	assert.False(t, s.Submit(1, func() {}))
}

func TestSerializerSurvivesPanic(t *testing.T) {
	s := NewSerializer()
	var ran int32
	s.Submit(1, func() { panic("boom") })
	s.Submit(1, func() { atomic.StoreInt32(&ran, 1) })
	s.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

package session

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Serializer runs tasks keyed by user id one at a time, in submission order.
// Each key with pending work gets its own goroutine, so users never wait for each other.
type Serializer struct {
	mu     sync.Mutex
	queues map[int64][]func()
	closed bool
	wg     sync.WaitGroup
}

// NewSerializer creates a Serializer.
func NewSerializer() *Serializer {
	return &Serializer{queues: make(map[int64][]func())}
}

// Submit queues task behind the pending tasks of key.
// It returns false once Close has been called.
func (s *Serializer) Submit(key int64, task func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	queue, running := s.queues[key]
	s.queues[key] = append(queue, task)
	if !running {
		s.wg.Add(1)
		go s.drain(key)
	}
	return true
}

func (s *Serializer) drain(key int64) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		queue := s.queues[key]
		if len(queue) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		task := queue[0]
		s.queues[key] = queue[1:]
		s.mu.Unlock()

		s.run(key, task)
	}
}

func (s *Serializer) run(key int64, task func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Recovered from panic while processing user %d: %v", key, r)
		}
	}()
	task()
}

// Close stops accepting tasks and waits until queued tasks are done.
func (s *Serializer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

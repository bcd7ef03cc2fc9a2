package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
)

type fakeDirectory struct {
	cooperators []models.Cooperator
	services    map[int64][]models.Service
	err         error
}

func (d *fakeDirectory) GetCooperators(_ context.Context, _ bool) ([]models.Cooperator, error) {
	return d.cooperators, d.err
}

func (d *fakeDirectory) GetServicesByCooperator(_ context.Context, id int64, _ bool) ([]models.Service, error) {
	return d.services[id], d.err
}

type fakeProvider struct {
	mu          sync.Mutex
	schedule    models.Schedule
	scheduleErr error
	createID    int64
	createErr   error
	removeErr   error
	created     []models.RecordRequest
	removed     []int64
}

func (p *fakeProvider) GetSchedule(_ context.Context, _, _ int64) (models.Schedule, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.schedule, p.scheduleErr
}

func (p *fakeProvider) CreateRecord(_ context.Context, req models.RecordRequest) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, req)
	if p.createErr != nil {
		return 0, p.createErr
	}
	return p.createID, nil
}

func (p *fakeProvider) RemoveRecord(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, id)
	return p.removeErr
}

func (p *fakeProvider) createdRecords() []models.RecordRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.RecordRequest(nil), p.created...)
}

// fakeStore is an in-memory ReservationStore.
type fakeStore struct {
	mu        sync.Mutex
	rows      map[int64]models.Reservation
	nextID    int64
	insertErr error
	findErr   error
	deleteErr error
}

func newFakeStore(rows ...models.Reservation) *fakeStore {
	s := &fakeStore{rows: map[int64]models.Reservation{}}
	for _, r := range rows {
		s.rows[r.ID] = r
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
	}
	return s
}

func (s *fakeStore) Insert(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	r.ID = s.nextID
	s.rows[r.ID] = *r
	return nil
}

func (s *fakeStore) FindByUser(_ context.Context, userID int64) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var list []models.Reservation
	for _, r := range s.rows {
		if r.UserID == userID {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DateTime.Before(list[j].DateTime) })
	return list, nil
}

func (s *fakeStore) FindByUserAndDateTime(_ context.Context, userID int64, dt time.Time) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, r := range s.rows {
		if r.UserID == userID && r.DateTime.Equal(dt) {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.rows, id)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type sentSMS struct {
	phone string
	text  string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeSender) Send(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentSMS{phone: phone, text: text})
	return nil
}

type sentReply struct {
	chatID int64
	reply  models.Reply
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentReply
}

func (m *fakeMessenger) Send(_ context.Context, chatID int64, reply models.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentReply{chatID: chatID, reply: reply})
	return nil
}

func (m *fakeMessenger) textsFor(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		if s.chatID == chatID {
			out = append(out, s.reply.Text)
		}
	}
	return out
}

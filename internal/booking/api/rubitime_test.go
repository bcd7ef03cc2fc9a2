package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rubitimeStub answers every request with body and records the last request.
type rubitimeStub struct {
	mu      sync.Mutex
	path    string
	payload map[string]any
	body    string
	status  int
	delay   time.Duration
}

func (s *rubitimeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.path = r.URL.Path
	s.payload = map[string]any{}
	_ = json.Unmarshal(data, &s.payload)
	body, status, delay := s.body, s.status, s.delay
	s.mu.Unlock()

	time.Sleep(delay)
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write([]byte(body))
}

func (s *rubitimeStub) last() (string, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.payload
}

func (s *rubitimeStub) setBody(body string) {
	s.mu.Lock()
	s.body = body
	s.mu.Unlock()
}

func newRubitimeTest(t *testing.T, stub *rubitimeStub) *RubitimeAPI {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return NewRubitimeAPI(srv.URL+"/api2/", "secret", 12, time.Second)
}

func TestGetSchedule(t *testing.T) {
	stub := &rubitimeStub{body: `{"status":"ok","data":{
		"2024-06-02":{"10:00":{"available":true},"11:00":{"available":false}},
		"2024-06-01":{"14:00":{"available":true},"09:30":{"available":true}},
		"2024-06-03":[]}}`}
	client := newRubitimeTest(t, stub)

	schedule, err := client.GetSchedule(context.Background(), 3, 7)
	require.NoError(t, err)

	path, payload := stub.last()
	assert.Equal(t, "/api2/get-schedule", path)
	assert.Equal(t, "secret", payload["rk"])
	assert.EqualValues(t, 12, payload["branch_id"])
	assert.EqualValues(t, 3, payload["cooperator_id"])
	assert.EqualValues(t, 7, payload["service_id"])
	assert.EqualValues(t, 1, payload["only_available"])

	assert.Equal(t, []string{"2024-06-01", "2024-06-02", "2024-06-03"}, schedule.Dates())
	assert.Equal(t, []string{"09:30", "14:00"}, schedule.AvailableTimes("2024-06-01"))
	assert.Equal(t, []string{"10:00"}, schedule.AvailableTimes("2024-06-02"))
	assert.Empty(t, schedule.AvailableTimes("2024-06-03"))
}

func TestGetScheduleEmpty(t *testing.T) {
	for _, body := range []string{`{"status":"ok","data":[]}`, `{"status":"ok","data":{}}`, `{"status":"ok"}`} {
		client := newRubitimeTest(t, &rubitimeStub{body: body})
		schedule, err := client.GetSchedule(context.Background(), 3, 7)
		require.NoError(t, err, body)
		assert.NotNil(t, schedule, body)
		assert.Empty(t, schedule, body)
	}
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name     string
		stub     *rubitimeStub
		wantKind models.ErrorKind
		wantMsg  string
	}{
		{
			name:     "rejected",
			stub:     &rubitimeStub{body: `{"status":"error","message":"Время занято"}`},
			wantKind: models.KindRejected,
			wantMsg:  "Время занято",
		},
		{
			name:     "bad gateway",
			stub:     &rubitimeStub{status: http.StatusBadGateway, body: "<html>oops</html>"},
			wantKind: models.KindNetwork,
		},
		{
			name:     "malformed",
			stub:     &rubitimeStub{body: `not json`},
			wantKind: models.KindMalformed,
		},
		{
			name:     "timeout",
			stub:     &rubitimeStub{delay: 300 * time.Millisecond, body: `{"status":"ok"}`},
			wantKind: models.KindTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.stub)
			defer srv.Close()
			client := NewRubitimeAPI(srv.URL, "secret", 12, 100*time.Millisecond)

			_, err := client.GetSchedule(context.Background(), 1, 1)
			require.Error(t, err)
			kind, ok := models.ProviderErrorKind(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantMsg, models.RejectionMessage(err))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewRubitimeAPI(url, "secret", 12, time.Second)
	err := client.RemoveRecord(context.Background(), 1)
	kind, ok := models.ProviderErrorKind(err)
	require.True(t, ok)
	assert.Equal(t, models.KindNetwork, kind)
}

func TestCreateRecord(t *testing.T) {
	stub := &rubitimeStub{body: `{"status":"ok","data":{"id":555}}`}
	client := newRubitimeTest(t, stub)
	msk := time.FixedZone("MSK", 3*60*60)

	id, err := client.CreateRecord(context.Background(), models.RecordRequest{
		CooperatorID: 3,
		ServiceID:    7,
		DateTime:     time.Date(2024, 6, 1, 14, 0, 0, 0, msk),
		Name:         "Ivan",
		Phone:        "+79001234567",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)

	path, payload := stub.last()
	assert.Equal(t, "/api2/create-record", path)
	assert.Equal(t, "2024-06-01 14:00:00", payload["record"])
	assert.EqualValues(t, 0, payload["status"])
	assert.Equal(t, "Ivan", payload["name"])
	assert.Equal(t, "+79001234567", payload["phone"])
	assert.EqualValues(t, 12, payload["branch_id"])
}

func TestCreateRecordQuotedID(t *testing.T) {
	client := newRubitimeTest(t, &rubitimeStub{body: `{"status":"ok","data":{"id":"556"}}`})
	id, err := client.CreateRecord(context.Background(), models.RecordRequest{DateTime: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, int64(556), id)
}

func TestCreateRecordMissingID(t *testing.T) {
	client := newRubitimeTest(t, &rubitimeStub{body: `{"status":"ok","data":{}}`})
	_, err := client.CreateRecord(context.Background(), models.RecordRequest{DateTime: time.Now()})
	kind, ok := models.ProviderErrorKind(err)
	require.True(t, ok)
	assert.Equal(t, models.KindMalformed, kind)
}

func TestRemoveAndGetRecord(t *testing.T) {
	stub := &rubitimeStub{body: `{"status":"ok","data":{"id":555}}`}
	client := newRubitimeTest(t, stub)

	require.NoError(t, client.RemoveRecord(context.Background(), 555))
	path, payload := stub.last()
	assert.Equal(t, "/api2/remove-record", path)
	assert.EqualValues(t, 555, payload["id"])
	assert.Equal(t, "secret", payload["rk"])

	require.NoError(t, client.GetRecord(context.Background(), 555))
	path, _ = stub.last()
	assert.Equal(t, "/api2/get-record", path)

	stub.setBody(`{"status":"error","message":"Record not found"}`)
	err := client.GetRecord(context.Background(), 555)
	assert.True(t, models.IsRejected(err))
}

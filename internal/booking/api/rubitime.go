// Package api provides clients for the external systems the booking bot talks to:
// the Rubitime schedule provider, the sms.ru gateway and the Telegram Bot API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/sirupsen/logrus"
)

// Rubitime API v2 operations.
const (
	opGetSchedule  = "get-schedule"
	opCreateRecord = "create-record"
	opRemoveRecord = "remove-record"
	opGetRecord    = "get-record"
)

// RubitimeAPI manages interactions with the Rubitime scheduling API.
type RubitimeAPI struct {
	endpoint string       // Base URL, e.g. https://rubitime.ru/api2
	apiKey   string       // Key sent as "rk" with every request
	branchID int64        // Branch all records belong to
	client   *http.Client // HTTP client
}

// rubitimeResponse is the envelope of every Rubitime answer.
type rubitimeResponse struct {
	Status  string          `json:"status"`  // "ok" or "error"
	Message string          `json:"message"` // Reason of an error
	Data    json.RawMessage `json:"data"`
}

type scheduleRequest struct {
	RK            string `json:"rk"`
	BranchID      int64  `json:"branch_id"`
	CooperatorID  int64  `json:"cooperator_id"`
	ServiceID     int64  `json:"service_id"`
	OnlyAvailable int    `json:"only_available"`
}

type createRecordRequest struct {
	RK           string `json:"rk"`
	BranchID     int64  `json:"branch_id"`
	CooperatorID int64  `json:"cooperator_id"`
	ServiceID    int64  `json:"service_id"`
	Status       int    `json:"status"`
	Record       string `json:"record"` // "YYYY-MM-DD HH:MM:SS" in the branch time zone
	Name         string `json:"name"`
	Phone        string `json:"phone"`
}

type recordRequest struct {
	RK string `json:"rk"`
	ID int64  `json:"id"`
}

// recordID accepts both numeric and quoted ids.
type recordID int64

func (id *recordID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %s: %w", b, err)
	}
	*id = recordID(v)
	return nil
}

type createRecordData struct {
	ID recordID `json:"id"`
}

// NewRubitimeAPI creates a new instance of RubitimeAPI.
// Arguments:
//   - endpoint: base URL of the API.
//   - apiKey: Rubitime API key.
//   - branchID: branch all records are made in.
//   - timeout: upper bound of every request.
//
// Returns a pointer to a RubitimeAPI.
func NewRubitimeAPI(endpoint, apiKey string, branchID int64, timeout time.Duration) *RubitimeAPI {
	return &RubitimeAPI{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		branchID: branchID,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetSchedule returns the available slots of a cooperator for a service.
// An empty schedule means the provider has no free slots.
func (r *RubitimeAPI) GetSchedule(ctx context.Context, cooperatorID, serviceID int64) (models.Schedule, error) {
	data, err := r.call(ctx, opGetSchedule, scheduleRequest{
		RK:            r.apiKey,
		BranchID:      r.branchID,
		CooperatorID:  cooperatorID,
		ServiceID:     serviceID,
		OnlyAvailable: 1,
	})
	if err != nil {
		return nil, err
	}

	schedule, err := decodeSchedule(data)
	if err != nil {
		logrus.WithError(err).Error("Failed to decode Rubitime schedule")
		return nil, &models.ProviderError{Op: opGetSchedule, Kind: models.KindMalformed, Err: err}
	}
	return schedule, nil
}

// CreateRecord books a slot and returns the id assigned by Rubitime.
func (r *RubitimeAPI) CreateRecord(ctx context.Context, req models.RecordRequest) (int64, error) {
	data, err := r.call(ctx, opCreateRecord, createRecordRequest{
		RK:           r.apiKey,
		BranchID:     r.branchID,
		CooperatorID: req.CooperatorID,
		ServiceID:    req.ServiceID,
		Status:       0,
		Record:       req.DateTime.Format(models.RecordLayout),
		Name:         req.Name,
		Phone:        req.Phone,
	})
	if err != nil {
		return 0, err
	}

	var created createRecordData
	if err = json.Unmarshal(data, &created); err != nil || created.ID == 0 {
		if err == nil {
			err = errors.New("empty record id")
		}
		logrus.WithError(err).Error("Failed to decode Rubitime create-record response")
		return 0, &models.ProviderError{Op: opCreateRecord, Kind: models.KindMalformed, Err: err}
	}
	logrus.Infof("Rubitime record %d created for %s", created.ID, req.DateTime.Format(models.RecordLayout))
	return int64(created.ID), nil
}

// RemoveRecord cancels a record at Rubitime.
func (r *RubitimeAPI) RemoveRecord(ctx context.Context, providerID int64) error {
	_, err := r.call(ctx, opRemoveRecord, recordRequest{RK: r.apiKey, ID: providerID})
	return err
}

// GetRecord checks that a record still exists at Rubitime.
// A rejected error means Rubitime no longer knows the record.
func (r *RubitimeAPI) GetRecord(ctx context.Context, providerID int64) error {
	_, err := r.call(ctx, opGetRecord, recordRequest{RK: r.apiKey, ID: providerID})
	return err
}

// call posts payload to the operation endpoint and returns the data of an "ok" answer.
func (r *RubitimeAPI) call(ctx context.Context, op string, payload any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.client.Timeout)
	defer cancel()

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request body: %w", op, err)
	}

	url := r.endpoint + "/" + op
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		kind := transportErrorKind(err)
		logrus.WithError(err).Errorf("Failed to execute Rubitime %s request (%s)", op, kind)
		return nil, &models.ProviderError{Op: op, Kind: kind, Err: err}
	}
	defer func() {
		if err = res.Body.Close(); err != nil {
			logrus.WithError(err).Errorf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		kind := transportErrorKind(err)
		logrus.WithError(err).Errorf("Failed to read Rubitime %s response", op)
		return nil, &models.ProviderError{Op: op, Kind: kind, Err: err}
	}

	var response rubitimeResponse
	if err = json.Unmarshal(data, &response); err != nil {
		if res.StatusCode != http.StatusOK {
			err = fmt.Errorf("unexpected status code: %d, body: %s", res.StatusCode, string(data))
			logrus.WithError(err).Errorf("Rubitime %s failed with status: %s", op, res.Status)
			return nil, &models.ProviderError{Op: op, Kind: models.KindNetwork, Err: err}
		}
		logrus.WithError(err).Errorf("Failed to unmarshal Rubitime %s response", op)
		return nil, &models.ProviderError{Op: op, Kind: models.KindMalformed, Err: err}
	}

	if response.Status != "ok" {
		logrus.Warnf("Rubitime %s rejected: status=%q message=%q", op, response.Status, response.Message)
		return nil, &models.ProviderError{Op: op, Kind: models.KindRejected, Message: response.Message}
	}
	return response.Data, nil
}

// decodeSchedule decodes schedule data. Rubitime sends an empty JSON array instead of an empty object.
func decodeSchedule(data json.RawMessage) (models.Schedule, error) {
	schedule := models.Schedule{}
	if isEmptyJSON(data) {
		return schedule, nil
	}

	var days map[string]json.RawMessage
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, err
	}
	for date, raw := range days {
		slots := map[string]models.Slot{}
		if !isEmptyJSON(raw) {
			if err := json.Unmarshal(raw, &slots); err != nil {
				return nil, fmt.Errorf("date %s: %w", date, err)
			}
		}
		schedule[date] = slots
	}
	return schedule, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == "[]" || s == "{}"
}

// transportErrorKind tells timeouts apart from other transport failures.
func transportErrorKind(err error) models.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.KindTimeout
	}
	return models.KindNetwork
}

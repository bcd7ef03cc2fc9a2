package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/DenisKhanov/BookingBot/internal/booking/phone"
	"github.com/sirupsen/logrus"
)

const opSendSMS = "sms-send"

// SmsRuAPI sends text messages through the sms.ru gateway.
type SmsRuAPI struct {
	endpoint string       // e.g. https://sms.ru/sms/send
	apiID    string       // sms.ru api_id
	client   *http.Client //HTTP client
}

// smsRuResponse is the json=1 answer of sms.ru.
type smsRuResponse struct {
	Status     string                  `json:"status"`
	StatusCode int                     `json:"status_code"`
	StatusText string                  `json:"status_text"`
	SMS        map[string]smsRuMessage `json:"sms"` // Per recipient delivery status
}

type smsRuMessage struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	StatusText string `json:"status_text"`
	SMSID      string `json:"sms_id"`
}

// NewSmsRuAPI creates a new instance of SmsRuAPI.
func NewSmsRuAPI(endpoint, apiID string, timeout time.Duration) *SmsRuAPI {
	return &SmsRuAPI{
		endpoint: endpoint,
		apiID:    apiID,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send delivers text to a canonical +7 phone number.
// It succeeds only when both the request and the recipient status are "OK".
func (s *SmsRuAPI) Send(ctx context.Context, to, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.client.Timeout)
	defer cancel()

	recipient := phone.Digits(to)
	query := url.Values{}
	query.Set("api_id", s.apiID)
	query.Set("to", recipient)
	query.Set("msg", text)
	query.Set("json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		kind := transportErrorKind(err)
		logrus.WithError(err).Errorf("Failed to execute sms.ru request (%s)", kind)
		return &models.ProviderError{Op: opSendSMS, Kind: kind, Err: err}
	}
	defer func() {
		if err = res.Body.Close(); err != nil {
			logrus.WithError(err).Errorf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &models.ProviderError{Op: opSendSMS, Kind: transportErrorKind(err), Err: err}
	}
	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code: %d, body: %s", res.StatusCode, string(data))
		logrus.WithError(err).Errorf("sms.ru failed with status: %s", res.Status)
		return &models.ProviderError{Op: opSendSMS, Kind: models.KindNetwork, Err: err}
	}

	var response smsRuResponse
	if err = json.Unmarshal(data, &response); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal sms.ru response")
		return &models.ProviderError{Op: opSendSMS, Kind: models.KindMalformed, Err: err}
	}

	if response.Status != "OK" {
		return &models.ProviderError{Op: opSendSMS, Kind: models.KindRejected, Message: response.StatusText}
	}
	msg, ok := response.SMS[recipient]
	if !ok {
		// sms.ru keys the map by the number it dialled, fall back to any entry
		for _, m := range response.SMS {
			msg, ok = m, true
			break
		}
	}
	if !ok || msg.Status != "OK" {
		logrus.Warnf("sms.ru did not accept message to %s: %s", recipient, msg.StatusText)
		return &models.ProviderError{Op: opSendSMS, Kind: models.KindRejected, Message: msg.StatusText}
	}

	logrus.Infof("SMS %s sent to %s", msg.SMSID, recipient)
	return nil
}

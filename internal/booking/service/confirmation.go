package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/DenisKhanov/BookingBot/internal/booking/constant"
	"github.com/sirupsen/logrus"
)

// CodeSender delivers a text message to a phone number.
type CodeSender interface {
	Send(ctx context.Context, phone, text string) error
}

// Confirmation issues and verifies the SMS codes that confirm a phone number.
type Confirmation struct {
	sender   CodeSender
	enabled  bool
	generate func() (string, error)
}

// NewConfirmation creates a Confirmation.
// Arguments:
//   - sender: SMS gateway used to deliver codes.
//   - enabled: whether bookings need a confirmed phone at all.
//
// Returns a pointer to a Confirmation.
func NewConfirmation(sender CodeSender, enabled bool) *Confirmation {
	return &Confirmation{
		sender:   sender,
		enabled:  enabled,
		generate: generateCode,
	}
}

// Enabled reports whether phone confirmation is switched on.
func (c *Confirmation) Enabled() bool {
	return c != nil && c.enabled && c.sender != nil
}

// Issue generates a code and sends it to phone. The code is returned only if it was delivered.
func (c *Confirmation) Issue(ctx context.Context, phone string) (string, error) {
	code, err := c.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate confirmation code: %w", err)
	}
	if err = c.sender.Send(ctx, phone, fmt.Sprintf(constant.SMS_CONFIRMATION_TEMPLATE, code)); err != nil {
		logrus.WithError(err).Errorf("Failed to send confirmation code to %s", phone)
		return "", err
	}
	logrus.Infof("Confirmation code sent to %s", phone)
	return code, nil
}

// Verify compares the user's input with the issued code.
func (c *Confirmation) Verify(expected, input string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(input))) == 1
}

// generateCode returns a random four-digit code in [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 4)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}

func TestConfirmationEnabled(t *testing.T) {
	var nilConfirmation *Confirmation
	assert.False(t, nilConfirmation.Enabled())
	assert.False(t, NewConfirmation(nil, true).Enabled())
	assert.False(t, NewConfirmation(&fakeSender{}, false).Enabled())
	assert.True(t, NewConfirmation(&fakeSender{}, true).Enabled())
}

func TestConfirmationIssueAndVerify(t *testing.T) {
	sender := &fakeSender{}
	c := NewConfirmation(sender, true)
	c.generate = func() (string, error) { return "4821", nil }

	code, err := c.Issue(context.Background(), "+79001234567")
	require.NoError(t, err)
	assert.Equal(t, "4821", code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Ваш код подтверждения: 4821", sender.sent[0].text)

	assert.True(t, c.Verify(code, "4821"))
	assert.True(t, c.Verify(code, " 4821\n"))
	assert.False(t, c.Verify(code, "4822"))
	assert.False(t, c.Verify(code, "48210"))
	assert.False(t, c.Verify("", ""))
}

func TestConfirmationIssueFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("gateway down")}
	c := NewConfirmation(sender, true)
	code, err := c.Issue(context.Background(), "+79001234567")
	assert.Error(t, err)
	assert.Empty(t, code)

	c = NewConfirmation(&fakeSender{}, true)
	c.generate = func() (string, error) { return "", errors.New("no entropy") }
	_, err = c.Issue(context.Background(), "+79001234567")
	assert.Error(t, err)
}

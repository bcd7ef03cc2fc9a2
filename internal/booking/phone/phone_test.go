package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "canonical", input: "+79001234567", want: "+79001234567"},
		{name: "leading seven", input: "79001234567", want: "+79001234567"},
		{name: "leading eight", input: "89001234567", want: "+79001234567"},
		{name: "bare ten digits", input: "9001234567", want: "+79001234567"},
		{name: "spaces and dashes", input: " 8 900-123-45-67 ", want: "+79001234567"},
		{name: "too short", input: "900123456", wantErr: true},
		{name: "too long", input: "890012345678", wantErr: true},
		{name: "foreign prefix", input: "+19001234567", wantErr: true},
		{name: "letters", input: "8900abc4567", wantErr: true},
		{name: "plus eight", input: "+89001234567", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"+79001234567", "79991112233", "88005553535", "9261234567", "8 (900) 1234567"}
	for _, in := range inputs {
		first, err := Normalize(in)
		if err != nil {
			continue
		}
		second, err := Normalize(first)
		require.NoError(t, err, in)
		assert.Equal(t, first, second, in)
		assert.Regexp(t, `^\+7\d{10}$`, second)
	}
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "79001234567", Digits("+79001234567"))
}

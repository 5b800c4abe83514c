package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestMinLength(t *testing.T) {
	validate := MinLength("password", MinCredentialLength)

	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "", wantErr: true},
		{input: "abcd", wantErr: true},
		{input: "  abcd  ", wantErr: true},
		{input: "abcde", wantErr: false},
		{input: "héllo", wantErr: false},
		{input: "doctor@example.com", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			err := validate(tt.input)
			if tt.wantErr {
				assert.EqualError(t, err, "password must be at least 5 characters")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCredentialsUsesProvidedValues(t *testing.T) {
	// Nothing is prompted when both values are given.
	user, pass, err := Credentials("doctor", "s3cret-pass")
	assert.NoError(t, err)
	assert.Equal(t, "doctor", user)
	assert.Equal(t, "s3cret-pass", pass)
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(ErrAborted))
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(fmt.Errorf("login: %w", promptui.ErrAbort)))
	assert.False(t, IsAborted(errors.New("boom")))
	assert.False(t, IsAborted(nil))

	assert.NoError(t, wrapError(nil))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrInterrupt))
}

package reach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTerm_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", MaxTermSize - 1, false},
		{"Exact Limit", MaxTermSize, false},
		{"Over Limit", MaxTermSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeTerm(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTermTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeTerm_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "BANK/RATES", "BANK/RATES"},
		{"Padded", "  calc \n", "calc"},
		{"ANSI Code", "\x1b[31mLOAD\x1b[0m", "[31mLOAD[0m"},
		{"Null Byte", "LO\x00AD", "LOAD"},
		{"Tab Inside", "HR\t/EXPORT", "HR/EXPORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeTerm(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeTerm_InvalidUTF8(t *testing.T) {
	_, err := SanitizeTerm("LOAD\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

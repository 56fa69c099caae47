package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STARBUCKS #123", "starbucks 123"},
		{"  Starbucks   123 ", "starbucks 123"},
		{"Trader Joe's", "trader joes"},
		{"AMAZON.COM*AB12CD", "amazon com ab12cd"},
		{"Café del Mar", "café del mar"},
		{"SQ *BLUE BOTTLE", "sq blue bottle"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMerchant(tt.in))
		})
	}
}

func TestDerivePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STARBUCKS #123", "starbucks"},
		{"AMAZON MKTP US*2K4AB1", "amazon mktp us"},
		{"7-ELEVEN 34021", "7 eleven"},
		{"SHELL OIL 574 2231", "shell oil"},
		{"Netflix.com", "netflix com"},
		{"12345", "12345"},
		{"CHECK 1042", "check"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePattern(tt.in))
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "transaction date", NormalizeHeader("\ufeff  Transaction   Date "))
	assert.Equal(t, "amount", NormalizeHeader(`"Amount"`))
	assert.Equal(t, "posted date", NormalizeHeader("POSTED\tDATE"))
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailInDomain(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jane@paramount.co.ke", true},
		{"Jane.W@PARAMOUNT.CO.KE", true},
		{"jane@gmail.com", false},
		{"jane@paramount.co.ke.evil.com", false},
		{"", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, EmailInDomain(tc.email, "@paramount.co.ke"), tc.email)
	}
}

func TestFullName(t *testing.T) {
	account := StaffAccount{FirstName: "Jane", LastName: "Wanjiru"}
	assert.Equal(t, "Jane Wanjiru", account.FullName())
}

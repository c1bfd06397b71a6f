package bloodtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanDonate_UniversalDonor(t *testing.T) {
	for _, recipient := range AllTypes {
		assert.True(t, CanDonate("O-", recipient), "O- should donate to %s", recipient)
	}
}

func TestCanDonate_UniversalRecipient(t *testing.T) {
	for _, donor := range AllTypes {
		assert.True(t, CanDonate(donor, "AB+"), "%s should donate to AB+", donor)
	}
}

func TestCanDonate_Table(t *testing.T) {
	tests := []struct {
		donor     string
		recipient string
		want      bool
	}{
		{"A+", "A+", true},
		{"A-", "A+", true},
		{"O+", "A+", true},
		{"B+", "A+", false},
		{"AB+", "A+", false},
		{"A-", "A-", true},
		{"A+", "A-", false},
		{"O+", "A-", false},
		{"B-", "B-", true},
		{"O-", "B-", true},
		{"B+", "B-", false},
		{"A-", "AB-", true},
		{"B-", "AB-", true},
		{"O+", "AB-", false},
		{"O+", "O+", true},
		{"O-", "O+", true},
		{"A+", "O+", false},
		{"O-", "O-", true},
		{"O+", "O-", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanDonate(tt.donor, tt.recipient),
			"%s -> %s", tt.donor, tt.recipient)
	}
}

func TestCanDonate_UnknownTypes(t *testing.T) {
	assert.False(t, CanDonate("C+", "A+"))
	assert.False(t, CanDonate("A+", "C+"))
	assert.False(t, CanDonate("", ""))
	assert.False(t, CanDonate("a+", "A+"))
}

func TestCompatibleDonorTypes(t *testing.T) {
	assert.ElementsMatch(t, []string{"A+", "A-", "O+", "O-"}, CompatibleDonorTypes("A+"))
	assert.ElementsMatch(t, []string{"O-"}, CompatibleDonorTypes("O-"))
	assert.Len(t, CompatibleDonorTypes("AB+"), 8)
	assert.Nil(t, CompatibleDonorTypes("X"))
}

func TestIsValid(t *testing.T) {
	for _, bt := range AllTypes {
		assert.True(t, IsValid(bt))
	}
	assert.False(t, IsValid("O"))
	assert.False(t, IsValid("ab+"))
}

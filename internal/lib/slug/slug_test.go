package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "easter-vigil", want: "easter-vigil"},
		{in: "  Easter Vigil  ", want: "easter-vigil"},
		{in: "Fiesta de Santa Rita", want: "fiesta-de-santa-rita"},
		{in: "Café__Social!!", want: "cafe-social"},
		{in: "--a---b--", want: "a-b"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "easter-vigil", want: "easter-vigil"},
		{in: "feast_of_st_rita", want: "feast_of_st_rita"},
		{in: "Mass-Update", want: "Mass-Update"},
		{in: "v1.2~draft", want: "v1.2~draft"},
		{in: "  choir-practice \n", want: "choir-practice"},
		{in: "Choir Practice", want: "choir-practice"},
		{in: "Café Social", want: "cafe-social"},
		{in: "   ", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.in))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("parish-feast-2025"))
	assert.False(t, IsValid("Parish Feast"))
	assert.False(t, IsValid("-leading"))
	assert.False(t, IsValid(""))
}

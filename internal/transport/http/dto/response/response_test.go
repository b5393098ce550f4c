package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorResponse_WithDetailsKeepsTemplate(t *testing.T) {
	got := ErrInvalidRequestFormat.WithDetails("email is required").WithData([]int{})

	assert.Equal(t, "email is required", got.Details)
	assert.Equal(t, []int{}, got.Data)
	assert.Equal(t, "Invalid request format", ErrInvalidRequestFormat.Details)
	assert.Nil(t, ErrInvalidRequestFormat.Data)
}

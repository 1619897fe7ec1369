package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	URL   string `validate:"required,url"`
	Style string `validate:"omitempty,oneof=general sales"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&sample{URL: "https://meet.example.com/a"}))

	err := v.Validate(&sample{Style: "poem"})
	require.Error(t, err)
	msg := Describe(err)
	assert.Contains(t, msg, "URL failed required")
	assert.Contains(t, msg, "Style failed oneof=general sales")
}

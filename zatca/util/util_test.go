package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugEnabled_False(t *testing.T) {
	res := DebugEnabled()
	assert.False(t, res, "debug should be false")
}

func TestDebugEnabled_True(t *testing.T) {
	t.Setenv("ZATCA_DEBUG", "true")

	res := DebugEnabled()
	assert.True(t, res, "debug should be true")
}

func TestDebugEnabled_Garbage(t *testing.T) {
	t.Setenv("ZATCA_DEBUG", "maybe")

	res := DebugEnabled()
	assert.False(t, res)
}

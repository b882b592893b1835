package atmos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateArg(t *testing.T) {
	t.Parallel()

	s := &State{Args: []string{"first", "second"}}
	assert.Equal(t, "first", s.Arg(0, "def"))
	assert.Equal(t, "second", s.Arg(1, "def"))
	assert.Equal(t, "def", s.Arg(2, "def"))
	assert.Equal(t, "def", s.Arg(-1, "def"))
	assert.Equal(t, "", (&State{}).Arg(0, ""))
	// A state without a logger still logs somewhere.
	assert.NotNil(t, (&State{}).logger())
}

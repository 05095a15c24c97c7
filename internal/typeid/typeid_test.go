package typeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndValidate(t *testing.T) {
	id := NewBodyID()
	require.NoError(t, Validate(id, PrefixBody))
	assert.Error(t, Validate(id, PrefixConstraint))
	assert.Error(t, Validate("not an id", PrefixBody))
	assert.NotEqual(t, id, NewBodyID())
}

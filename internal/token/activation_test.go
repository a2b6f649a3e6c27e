package token

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestActivationRoundTrip(t *testing.T) {
    raw, err := NewActivation("secret", 42, 7)
    require.NoError(t, err)

    id, err := ParseActivation("secret", raw)
    require.NoError(t, err)
    assert.Equal(t, uint64(42), id)
}

func TestActivationWrongSecret(t *testing.T) {
    raw, err := NewActivation("secret", 42, 7)
    require.NoError(t, err)

    _, err = ParseActivation("other", raw)
    assert.ErrorIs(t, err, ErrInvalid)
}

func TestActivationExpired(t *testing.T) {
    raw, err := NewActivation("secret", 42, -1)
    require.NoError(t, err)

    _, err = ParseActivation("secret", raw)
    assert.ErrorIs(t, err, ErrExpired)
}

func TestActivationGarbage(t *testing.T) {
    _, err := ParseActivation("secret", "not-a-token")
    assert.ErrorIs(t, err, ErrInvalid)
}

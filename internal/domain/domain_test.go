package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	id, err := NewIdentity("u1", "f1")
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", FamilyID: "f1"}, id)

	_, err = NewIdentity("", "f1")
	assert.ErrorIs(t, err, ErrUserIDEmpty)
	_, err = NewIdentity("u1", "")
	assert.ErrorIs(t, err, ErrFamilyIDEmpty)
	_, err = NewIdentity(strings.Repeat("u", MaxUserIDLen+1), "f1")
	assert.ErrorIs(t, err, ErrUserIDTooLong)
	_, err = NewIdentity("u1", strings.Repeat("f", MaxFamilyIDLen+1))
	assert.ErrorIs(t, err, ErrFamilyIDTooLong)
}

func TestNewMember(t *testing.T) {
	id := Identity{UserID: "u1", FamilyID: "f1"}
	m, err := NewMember(id, "")
	require.NoError(t, err)
	assert.Equal(t, "u1", m.Username)

	_, err = NewMember(id, strings.Repeat("x", MaxUsernameLen+1))
	assert.ErrorIs(t, err, ErrUsernameTooLong)
}

func TestNewLocationSample(t *testing.T) {
	local := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	s := NewLocationSample("u1", 1, 2, 3, local)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, time.UTC, s.Timestamp.Location())
	assert.True(t, s.Timestamp.Equal(local))

	other := NewLocationSample("u1", 1, 2, 3, time.Time{})
	assert.NotEqual(t, s.ID, other.ID)
	assert.WithinDuration(t, time.Now(), other.Timestamp, time.Minute)
}

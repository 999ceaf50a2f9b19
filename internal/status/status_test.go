package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByName(t *testing.T) {
	s, err := GetByName("LimitReached")
	require.NoError(t, err)
	assert.Equal(t, LimitReached, s)
	assert.Equal(t, 4, s.ID())

	s, err = GetByName(" expired ")
	require.NoError(t, err)
	assert.Equal(t, Expired, s)

	_, err = GetByName("Deleted")
	assert.Error(t, err)
}

func TestGetByID(t *testing.T) {
	for _, want := range []Status{Active, Inactive, Expired, LimitReached} {
		got, err := GetByID(want.ID())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := GetByID(0)
	assert.Error(t, err)
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestResolveNames(t *testing.T) {
	list, err := ResolveNames([]string{"Active", "Inactive"})
	require.NoError(t, err)
	assert.Equal(t, []Status{Active, Inactive}, list)

	_, err = ResolveNames([]string{"Active", "Nope"})
	assert.Error(t, err)
}

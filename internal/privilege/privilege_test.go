package privilege_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/nps/internal/privilege"
)

func TestInitPicksAMode(t *testing.T) {
	g, err := privilege.Init()
	require.NoError(t, err)
	assert.NotEqual(t, "", g.Mode().String())
}

func TestRunAlwaysDescendsOnError(t *testing.T) {
	g, err := privilege.Init()
	require.NoError(t, err)

	ran := false
	runErr := g.Run(func() error {
		ran = true
		return assert.AnError
	})
	assert.True(t, ran)
	assert.ErrorIs(t, runErr, assert.AnError)
	assert.Equal(t, g.RUID, os.Geteuid(), "effective uid is back to the real uid after Run")
}

func TestUnprivilegedModeNeverReportsPrivileged(t *testing.T) {
	g, err := privilege.Init()
	require.NoError(t, err)
	if g.Mode() == privilege.ModeUnprivileged {
		assert.False(t, g.Privileged())
	}
}

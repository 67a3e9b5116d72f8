package device_test

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/nps/pkg/device"
)

func TestBuildAndLookupRealDevNull(t *testing.T) {
	info, err := os.Lstat("/dev/null")
	if err != nil {
		t.Skip("/dev/null not present in this sandbox")
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	require.True(t, ok)

	m, err := device.Build("/dev")
	require.NoError(t, err)

	path, found := m.Path(device.Char, uint64(st.Rdev))
	assert.True(t, found)
	assert.Equal(t, "/dev/null", path)
}

func TestPathMissReturnsFalse(t *testing.T) {
	m, err := device.Build(t.TempDir())
	require.NoError(t, err)
	_, found := m.Path(device.Char, 999999)
	assert.False(t, found)
}

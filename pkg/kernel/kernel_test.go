package kernel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/nps/pkg/kernel"
)

func TestReadStatCommWithSpacesAndParens(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "42")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	line := "42 (my cool (thing)) S 1 42 42 0 -1 4194560 100 0 0 0 10 5 0 0 20 0 1 0 1000 " +
		"1000 100 18446744073709551615 1 1 0 0 0 0 0 0 0 0 0 0 17 0 0 0 0 0 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(line), 0o644))

	st, err := kernel.ReadStat(root, 42)
	require.NoError(t, err)
	assert.Equal(t, "my cool (thing)", st.Comm)
	assert.Equal(t, byte('S'), st.State)
	assert.Equal(t, int64(1), st.PPID)
	assert.Equal(t, uint64(10), st.UTime)
	assert.Equal(t, uint64(5), st.STime)
}

func TestReadStatusUidGid(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "7")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	contents := "Name:\tbash\nUid:\t1000\t1000\t1000\t1000\nGid:\t1000\t1000\t1000\t1000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte(contents), 0o644))

	st, err := kernel.ReadStatus(root, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, st.EUid)
	assert.EqualValues(t, 1000, st.RUid)
}

func TestReadIOMissingIsError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "9"), 0o755))
	_, err := kernel.ReadIO(root, 9)
	assert.Error(t, err)
}

func TestReadCmdlineNulSeparated(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "3")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte("ls\x00-la\x00/tmp\x00"), 0o644))

	cmd, err := kernel.ReadCmdline(root, 3)
	require.NoError(t, err)
	assert.Equal(t, "ls -la /tmp", cmd)
}

func TestMemInfoBinarySearch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "meminfo"),
		[]byte("MemTotal:       16384000 kB\nMemFree:        1024000 kB\n"), 0o644))

	mi, err := kernel.MemInfo(root)
	require.NoError(t, err)
	assert.EqualValues(t, 16384000, mi["MemTotal"])
	assert.EqualValues(t, 1024000, mi["MemFree"])
}

func TestSystemStatAggregateAndPerCPU(t *testing.T) {
	root := t.TempDir()
	contents := "cpu  100 10 50 800 5 0 2 0 0 0\ncpu0 50 5 25 400 2 0 1 0 0 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "stat"), []byte(contents), 0o644))

	total, perCPU, err := kernel.SystemStat(root)
	require.NoError(t, err)
	assert.EqualValues(t, 100, total.User)
	assert.EqualValues(t, 50, perCPU[0].User)
}

func TestLoadAvg(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "loadavg"), []byte("0.50 0.25 0.10 1/200 12345\n"), 0o644))
	one, five, fifteen, err := kernel.LoadAvg(root)
	require.NoError(t, err)
	assert.InDelta(t, 0.50, one, 1e-9)
	assert.InDelta(t, 0.25, five, 1e-9)
	assert.InDelta(t, 0.10, fifteen, 1e-9)
}

func TestListPIDs(t *testing.T) {
	root := t.TempDir()
	for _, pid := range []string{"1", "42", "not-a-pid"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, pid), 0o755))
	}
	pids, err := kernel.ListPIDs(root)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 42}, pids)
}

package task_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ja7ad/nps/pkg/task"
)

// writeTask creates a minimal <root>/<pid>/{stat,status,cmdline,statm}
// tree sufficient for Snapshot.Build and Fields to parse without error.
// statm is needed because, with no smaps_rollup, Task.RSS falls back to
// statm and a missing statm marks the task vanished.
func writeTask(t *testing.T, root string, pid, ppid, starttimeTicks int) {
	t.Helper()
	dir := filepath.Join(root, fmt.Sprint(pid))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	stat := fmt.Sprintf("%d (proc%d) S %d 1 1 0 -1 0 0 0 0 0 10 5 0 0 20 0 1 0 %d 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0\n",
		pid, pid, ppid, starttimeTicks)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte("Uid:\t1000\t1000\t1000\t1000\nGid:\t1000\t1000\t1000\t1000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(fmt.Sprintf("proc%d\x00", pid)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "statm"), []byte("0 0 0 0 0 0 0\n"), 0o644))
}

func writeSystemFiles(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "uptime"), []byte("1000.0 900.0\n"), 0o644))
}

func TestBuildEnumeratesAllTasks(t *testing.T) {
	root := t.TempDir()
	writeSystemFiles(t, root)
	writeTask(t, root, 1, 0, 0)
	writeTask(t, root, 2, 1, 0)

	snap, err := task.Build(root, false, nil)
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)
}

func TestFieldsResolvesBasicIdentity(t *testing.T) {
	root := t.TempDir()
	writeSystemFiles(t, root)
	writeTask(t, root, 1, 0, 0)

	snap, err := task.Build(root, false, nil)
	require.NoError(t, err)
	f := snap.Fields(snap.Tasks[0])
	require.Equal(t, 1, f.Pid)
	require.Equal(t, "proc1", f.Comm)
	require.False(t, f.Vanished)
}

func TestAncestryDepthAndIsDescendant(t *testing.T) {
	root := t.TempDir()
	writeSystemFiles(t, root)
	writeTask(t, root, 1, 0, 0)
	writeTask(t, root, 2, 1, 0)
	writeTask(t, root, 3, 2, 0)

	snap, err := task.Build(root, false, nil)
	require.NoError(t, err)

	require.Equal(t, 0, snap.Depth(1))
	require.Equal(t, 1, snap.Depth(2))
	require.Equal(t, 2, snap.Depth(3))

	require.True(t, snap.IsDescendant(3, 1))
	require.True(t, snap.IsDescendant(2, 1))
	require.False(t, snap.IsDescendant(1, 3))
	require.True(t, snap.IsDescendant(1, 1), "a pid is considered its own descendant, preserving the original's equality-true behavior")
}

func TestCompareHierarchyOrdersAncestorBeforeDescendant(t *testing.T) {
	root := t.TempDir()
	writeSystemFiles(t, root)
	writeTask(t, root, 1, 0, 0)
	writeTask(t, root, 2, 1, 0)
	writeTask(t, root, 3, 1, 0)

	snap, err := task.Build(root, false, nil)
	require.NoError(t, err)

	require.Equal(t, 0, snap.CompareHierarchy(1, 1))
	require.Equal(t, -1, snap.CompareHierarchy(1, 2), "a direct ancestor sorts before its descendant")
	require.Equal(t, 1, snap.CompareHierarchy(2, 1))
	// siblings: ordered by pid
	require.Equal(t, -1, snap.CompareHierarchy(2, 3))
}

func TestMissingTaskDoesNotPanicVanishedIsFalseWithoutAFailedRead(t *testing.T) {
	root := t.TempDir()
	writeSystemFiles(t, root)
	writeTask(t, root, 1, 0, 0)

	snap, err := task.Build(root, false, nil)
	require.NoError(t, err)
	f := snap.Fields(snap.Tasks[0])
	require.False(t, f.Vanished)
}

// TestWholeProcessTaskCarriesTidMinusOne locks in spec.md §3's data model
// convention: the whole-process Task built for each pid uses tid == -1,
// never tid == pid, so it is never confused with a thread once threads
// are listed alongside it.
func TestWholeProcessTaskCarriesTidMinusOne(t *testing.T) {
	root := t.TempDir()
	writeSystemFiles(t, root)
	writeTask(t, root, 1, 0, 0)
	writeTask(t, root, 2, 1, 0)

	snap, err := task.Build(root, false, nil)
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)
	for _, tk := range snap.Tasks {
		require.Equal(t, -1, tk.TID())
	}
}

// TestIncludeThreadsAddsRealTidsAlongsideTheWholeProcessTask builds one
// thread subdirectory and confirms enumeration adds it as a distinct
// Task with its real, non-negative tid, without disturbing the
// whole-process Task's tid == -1 row.
func TestIncludeThreadsAddsRealTidsAlongsideTheWholeProcessTask(t *testing.T) {
	root := t.TempDir()
	writeSystemFiles(t, root)
	writeTask(t, root, 1, 0, 0)
	taskDir := filepath.Join(root, "1", "task", "1")
	require.NoError(t, os.MkdirAll(taskDir, 0o755))

	snap, err := task.Build(root, true, nil)
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 2)

	var sawWholeProcess, sawThread bool
	for _, tk := range snap.Tasks {
		switch tk.TID() {
		case -1:
			sawWholeProcess = true
		case 1:
			sawThread = true
		}
	}
	require.True(t, sawWholeProcess)
	require.True(t, sawThread)
}

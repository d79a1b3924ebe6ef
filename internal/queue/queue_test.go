package queue

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempQueuePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "install-queue")
}

func TestLoadMissingFileIsEmptyQueue(t *testing.T) {
	q := New(tempQueuePath(t))
	require.NoError(t, q.Load())
	assert.Equal(t, 0, q.Len())
}

func TestAddPersistsAndRoundTrips(t *testing.T) {
	path := tempQueuePath(t)
	q := New(path)
	require.NoError(t, q.Load())
	require.NoError(t, q.Add("system/package/origin/a/stable", "install"))
	require.NoError(t, q.Add("system/package/origin/b/stable", "manage-repository-install"))

	q2 := New(path)
	require.NoError(t, q2.Load())
	require.Equal(t, 2, q2.Len())
	assert.True(t, q2.Has("system/package/origin/a/stable"))
	assert.True(t, q2.Has("system/package/origin/b/stable"))
}

func TestAddIsIdempotentPerUniqueID(t *testing.T) {
	q := New(tempQueuePath(t))
	require.NoError(t, q.Add("a", "install"))
	require.NoError(t, q.Add("a", "install"))
	assert.Equal(t, 1, q.Len())
}

func TestRemoveDrainsFileFromDisk(t *testing.T) {
	path := tempQueuePath(t)
	q := New(path)
	require.NoError(t, q.Add("a", "install"))
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, q.Remove("a"))
	assert.Equal(t, 0, q.Len())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "queue file should be removed once the queue drains")
}

func TestRemoveUnknownEntryIsNoop(t *testing.T) {
	q := New(tempQueuePath(t))
	require.NoError(t, q.Add("a", "install"))
	require.NoError(t, q.Remove("does-not-exist"))
	assert.Equal(t, 1, q.Len())
}

func TestOnChangeFiresAfterMutation(t *testing.T) {
	q := New(tempQueuePath(t))
	var fired int32
	done := make(chan struct{}, 1)
	q.OnChange(func() {
		atomic.AddInt32(&fired, 1)
		done <- struct{}{}
	})

	require.NoError(t, q.Add("a", "install"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnChange callback did not fire")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestSnapshotIsACopy(t *testing.T) {
	q := New(tempQueuePath(t))
	require.NoError(t, q.Add("a", "install"))
	snap := q.Snapshot()
	require.Len(t, snap, 1)
	snap[0].UniqueID = "mutated"
	assert.True(t, q.Has("a"), "mutating the snapshot must not affect the queue")
}

package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/software-center/catalog/internal/app"
)

func TestNewJobHasUniqueIDAndKind(t *testing.T) {
	j1 := New(context.Background(), KindListApps, nil, false)
	j2 := New(context.Background(), KindListApps, nil, false)
	assert.NotEmpty(t, j1.ID())
	assert.NotEqual(t, j1.ID(), j2.ID())
	assert.Equal(t, KindListApps, j1.Kind())
}

func TestCancelIsIdempotentAndObservable(t *testing.T) {
	j := New(context.Background(), KindInstall, nil, false)
	assert.False(t, j.Cancelled())
	j.Cancel()
	j.Cancel()
	assert.True(t, j.Cancelled())
}

func TestFinishUnblocksWaitWithResult(t *testing.T) {
	j := New(context.Background(), KindListApps, nil, false)
	list := app.NewList()
	list.Add(app.New("org.ex.A"))

	go func() {
		time.Sleep(10 * time.Millisecond)
		j.Finish(list, "", nil)
	}()

	gotList, gotStr, err := j.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, list, gotList)
	assert.Equal(t, "", gotStr)
}

func TestFinishIsIdempotent(t *testing.T) {
	j := New(context.Background(), KindListApps, nil, false)
	list1 := app.NewList()
	list2 := app.NewList()
	j.Finish(list1, "", nil)
	j.Finish(list2, "", nil) // must be a no-op, not a double-close panic

	got, _, _ := j.Wait(context.Background())
	assert.Same(t, list1, got)
}

func TestWaitReturnsErrOnCallerContextCancellation(t *testing.T) {
	j := New(context.Background(), KindListApps, nil, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := j.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobKindMaskableAndBoundedAndInteractive(t *testing.T) {
	assert.True(t, KindListApps.Maskable())
	assert.False(t, KindInstall.Maskable())

	assert.True(t, KindInstall.Bounded())
	assert.False(t, KindListApps.Bounded())

	assert.True(t, KindInstall.Interactive())
	assert.False(t, KindRefreshMetadata.Interactive())
}

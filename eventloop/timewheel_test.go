//go:build linux
// +build linux

package eventloop

import (
	"errors"
	"testing"

	"github.com/ikilobyte/netloop/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticks(w *TimeWheel, n int) {
	for i := 0; i < n; i++ {
		w.Tick()
	}
}

func TestTimeWheelFiresAfterDelay(t *testing.T) {
	w := newWheel(10)
	fired := 0
	require.NoError(t, w.Add(1, 3, func() { fired++ }))
	assert.True(t, w.Has(1))

	ticks(w, 2)
	assert.Equal(t, 0, fired)

	w.Tick()
	assert.Equal(t, 1, fired)
	assert.False(t, w.Has(1))
	assert.Equal(t, 0, w.Len())

	// 转完一圈也不会再触发
	ticks(w, 20)
	assert.Equal(t, 1, fired)
}

func TestTimeWheelCancel(t *testing.T) {
	w := newWheel(10)
	fired := false
	require.NoError(t, w.Add(7, 2, func() { fired = true }))

	w.Cancel(7)
	assert.False(t, w.Has(7))
	ticks(w, 5)
	assert.False(t, fired)
	assert.Equal(t, 0, w.Len())

	// 未知id
	w.Cancel(100)
	w.Refresh(100)
}

func TestTimeWheelRefresh(t *testing.T) {
	w := newWheel(10)
	fired := 0
	require.NoError(t, w.Add(1, 3, func() { fired++ }))

	ticks(w, 2)
	w.Refresh(1)

	// 原本的第3格到了，但还有一份引用在第5格
	w.Tick()
	assert.Equal(t, 0, fired)
	assert.True(t, w.Has(1))

	ticks(w, 2)
	assert.Equal(t, 1, fired)
	assert.False(t, w.Has(1))
}

func TestTimeWheelDuplicateAdd(t *testing.T) {
	w := newWheel(10)
	var got []string
	require.NoError(t, w.Add(1, 2, func() { got = append(got, "first") }))
	w.Tick()
	require.NoError(t, w.Add(1, 4, func() { got = append(got, "second") }))

	// 第2格的引用先释放，回调不变，仍在第5格
	ticks(w, 3)
	assert.Empty(t, got)
	assert.True(t, w.Has(1))

	w.Tick()
	assert.Equal(t, []string{"first"}, got)
}

func TestTimeWheelReAddAfterCancel(t *testing.T) {
	w := newWheel(10)
	var got []string
	require.NoError(t, w.Add(1, 2, func() { got = append(got, "old") }))
	w.Cancel(1)
	require.NoError(t, w.Add(1, 4, func() { got = append(got, "new") }))
	assert.True(t, w.Has(1))

	// 旧任务到期时不能把新任务从map中删掉
	ticks(w, 2)
	assert.Empty(t, got)
	assert.True(t, w.Has(1))

	ticks(w, 2)
	assert.Equal(t, []string{"new"}, got)
	assert.False(t, w.Has(1))
}

func TestTimeWheelInvalidDelay(t *testing.T) {
	w := newWheel(10)
	for _, delay := range []int{-1, 0, 10, 11} {
		err := w.Add(1, delay, func() {})
		assert.True(t, errors.Is(err, util.ErrInvalidDelay), "delay %d", delay)
	}
	assert.Equal(t, 0, w.Len())
	assert.NoError(t, w.Add(1, 9, func() {}))
}

func TestTimeWheelCallbackAddsTask(t *testing.T) {
	w := newWheel(10)
	var got []uint64
	require.NoError(t, w.Add(1, 1, func() {
		got = append(got, 1)
		require.NoError(t, w.Add(2, 1, func() { got = append(got, 2) }))
	}))

	w.Tick()
	assert.Equal(t, []uint64{1}, got)
	w.Tick()
	assert.Equal(t, []uint64{1, 2}, got)
}

//go:build linux
// +build linux

package eventloop

import (
	"errors"
	"testing"
	"time"

	"github.com/ikilobyte/netloop/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopThreadPool(t *testing.T) {
	pool := NewLoopThreadPool(3, WithTickInterval(10*time.Millisecond))
	require.NoError(t, pool.Init())
	defer pool.Stop()

	assert.Equal(t, 3, pool.Len())
	assert.True(t, errors.Is(pool.Init(), util.ErrPoolInitialized))

	seen := make(map[*EventLoop]bool)
	for _, loop := range pool.Loops() {
		seen[loop] = true
		assert.False(t, loop.InLoop())

		done := make(chan bool, 1)
		loop.Post(func() { done <- loop.InLoop() })
		select {
		case ok := <-done:
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("loop is not running")
		}
	}
	assert.Len(t, seen, 3)
}

func TestLoopThreadPoolEmpty(t *testing.T) {
	pool := NewLoopThreadPool(0)
	require.NoError(t, pool.Init())
	assert.Equal(t, 0, pool.Len())
	pool.Stop()
}

func TestLoopThreadQuit(t *testing.T) {
	thread := NewLoopThread()
	loop, err := thread.GetLoop()
	require.NoError(t, err)

	loop.Quit()
	select {
	case <-thread.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not quit")
	}

	// 退出后fd已经关闭，投递不会panic
	assert.NotPanics(t, func() { loop.Post(func() {}) })
}
